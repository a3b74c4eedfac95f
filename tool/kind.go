package tool

import (
	"errors"
	"fmt"
)

// Kind names one callable function of the closed catalog.
type Kind string

const (
	KindCreateSchedule  Kind = "create_schedule"
	KindGetScheduleInfo Kind = "get_schedule_info"
	KindUpdateSchedule  Kind = "update_schedule"
	KindDeleteSchedule  Kind = "delete_schedule"
	KindCreateAlarm     Kind = "create_alarm"
	KindUpdateAlarm     Kind = "update_alarm"
	KindDeleteAlarm     Kind = "delete_alarm"
	KindSearchRoute     Kind = "search_route"
	KindGetWeatherInfo  Kind = "get_weather_info"
)

var allKinds = []Kind{
	KindCreateSchedule,
	KindGetScheduleInfo,
	KindUpdateSchedule,
	KindDeleteSchedule,
	KindCreateAlarm,
	KindUpdateAlarm,
	KindDeleteAlarm,
	KindSearchRoute,
	KindGetWeatherInfo,
}

// ErrUnknownKind is returned by ParseKind for names outside the catalog.
var ErrUnknownKind = errors.New("unknown function")

// Kinds returns every catalog kind in declaration order.
func Kinds() []Kind { return append([]Kind(nil), allKinds...) }

// ParseKind maps a function name emitted by the oracle onto a Kind.
func ParseKind(name string) (Kind, error) {
	for _, k := range allKinds {
		if string(k) == name {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

func (k Kind) String() string { return string(k) }
