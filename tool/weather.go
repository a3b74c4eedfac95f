package tool

import (
	"fmt"

	"github.com/Sjoneon/DaySync-Server/core"
)

type weatherArgs struct {
	Day string `json:"day" enum:"today,tomorrow,day_after_tomorrow" description:"조회할 날: today, tomorrow, day_after_tomorrow"`
}

var weatherDays = map[string]struct {
	offset int
	label  string
}{
	"today":              {0, "오늘"},
	"tomorrow":           {1, "내일"},
	"day_after_tomorrow": {2, "모레"},
}

// getWeatherInfo surfaces a weather pending action; the caller fetches the
// forecast.
func getWeatherInfo(tc *core.ToolContext, args map[string]any) (core.DispatchResult, error) {
	var in weatherArgs
	if err := bindArgs(args, &in); err != nil {
		return core.Failure("날씨 요청을 해석하지 못했습니다."), nil
	}
	day, ok := weatherDays[in.Day]
	if !ok {
		return core.Failure(fmt.Sprintf("지원하지 않는 날짜입니다: %s", in.Day)), nil
	}

	date := tc.Now().In(tc.Location()).AddDate(0, 0, day.offset).Format(DateLayout)
	res := core.Success(
		fmt.Sprintf("%s 날씨를 조회합니다.", day.label),
		map[string]any{"day": in.Day, "date": date},
	)
	res.Pending = &core.PendingAction{
		Kind:   core.PendingWeather,
		Fields: map[string]string{"day": in.Day, "date": date},
	}
	return res, nil
}
