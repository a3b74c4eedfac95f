package engine

import (
	"strings"
)

// Canonical rewrites of terse confirmations.
const (
	AffirmativeReply = "네, 그렇게 진행해 주세요."
	NegativeReply    = "아니요, 진행하지 말아 주세요."
)

var questionCues = []string{
	"?", "？", "까요", "나요", "습니까", "을까", "할까", "인가요", "건가요", "실래요", "드릴까요", "맞나요", "괜찮으세요",
}

var affirmativeTokens = tokenSet(
	"네", "예", "응", "어", "그래", "좋아", "맞아", "ㅇㅇ", "넵", "넹", "웅",
	"yes", "y", "ok", "okay", "sure", "yep",
)

var negativeTokens = tokenSet(
	"아니", "아니요", "아니오", "아뇨", "싫어", "ㄴㄴ", "노",
	"no", "n", "nope",
)

func tokenSet(tokens ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// Normalize rewrites a bare yes/no reply into an explicit instruction when
// the previous assistant message asked a question. Any other input is
// returned unchanged. The function is pure and idempotent.
func Normalize(userText, lastAssistantText string) (string, bool) {
	if !endsWithQuestion(lastAssistantText) {
		return userText, false
	}

	token := strings.ToLower(strings.TrimSpace(userText))
	token = strings.TrimRight(token, ".!~")
	token = strings.TrimSpace(token)

	if _, ok := affirmativeTokens[token]; ok {
		return AffirmativeReply, true
	}
	if _, ok := negativeTokens[token]; ok {
		return NegativeReply, true
	}
	return userText, false
}

// endsWithQuestion looks for a question cue at the end of the last sentence.
func endsWithQuestion(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	text = strings.TrimRight(text, ".!~ ")
	for _, cue := range questionCues {
		if strings.HasSuffix(text, cue) {
			return true
		}
	}
	return false
}
