package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name       string
		user       string
		assistant  string
		want       string
		normalized bool
	}{
		{"no prior turn", "네", "", "네", false},
		{"prior turn not a question", "네", "알람을 설정했습니다.", "네", false},
		{"affirmative after question mark", "응", "운동 알람을 설정할까요?", AffirmativeReply, true},
		{"affirmative with punctuation", " 네!! ", "진행할까요", AffirmativeReply, true},
		{"english affirmative", "OK", "Shall I?", AffirmativeReply, true},
		{"negative", "아니요~", "현재 위치에서 출발하시겠습니까?", NegativeReply, true},
		{"cue before trailing period", "ㄴㄴ", "삭제해 드릴까요.", NegativeReply, true},
		{"full-width question mark", "넵", "맞으세요？", AffirmativeReply, true},
		{"longer answer untouched", "네 그런데 7시로 해줘", "설정할까요?", "네 그런데 7시로 해줘", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.user, tt.assistant)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.normalized, ok)
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	once, _ := Normalize("응", "할까요?")
	twice, changed := Normalize(once, "할까요?")
	assert.Equal(t, once, twice)
	assert.False(t, changed)
}
