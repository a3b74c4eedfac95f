package tool

import (
	"fmt"
	"strings"

	"github.com/Sjoneon/DaySync-Server/core"
)

type searchRouteArgs struct {
	Destination   string `json:"destination" description:"목적지"`
	StartLocation string `json:"start_location,omitempty" description:"출발지. 비우면 현재 위치 사용 여부를 사용자에게 확인합니다."`
}

var hereTokens = []string{"여기", "현재", "지금", "현위치", "내 위치", "here", "current"}

// normalizeStart maps "here/now" phrasings onto core.CurrentLocation.
func normalizeStart(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, tok := range hereTokens {
		if strings.Contains(lower, tok) {
			return core.CurrentLocation
		}
	}
	return s
}

// searchRoute never touches the repository: the caller resolves the route.
func searchRoute(tc *core.ToolContext, args map[string]any) (core.DispatchResult, error) {
	var in searchRouteArgs
	if err := bindArgs(args, &in); err != nil {
		return core.Failure("경로 정보를 해석하지 못했습니다."), nil
	}
	dest := strings.TrimSpace(in.Destination)

	if strings.TrimSpace(in.StartLocation) == "" {
		return core.DispatchResult{
			Status:  core.StatusPending,
			Message: fmt.Sprintf("현재 위치에서 %s까지 경로를 찾을까요?", dest),
			Payload: map[string]any{"destination": dest},
			Pending: &core.PendingAction{
				Kind:   core.PendingConfirmLocation,
				Fields: map[string]string{"destination": dest},
			},
		}, nil
	}

	start := normalizeStart(in.StartLocation)
	label := start
	if start == core.CurrentLocation {
		label = "현재 위치"
	}

	res := core.Success(
		fmt.Sprintf("%s에서 %s까지 경로를 검색합니다.", label, dest),
		map[string]any{"start_location": start, "destination": dest},
	)
	res.Pending = &core.PendingAction{
		Kind:   core.PendingRouteSearch,
		Fields: map[string]string{"start_location": start, "destination": dest},
	}
	return res, nil
}
