package tool

import (
	"errors"
	"fmt"
	"time"

	"github.com/Sjoneon/DaySync-Server/core"
	"github.com/Sjoneon/DaySync-Server/logging"
	"github.com/Sjoneon/DaySync-Server/model"
)

// Store is the slice of the repository the handlers mutate.
type Store interface {
	core.CalendarStore
	core.AlarmStore
}

// Registry binds every Kind to its handler and dispatches oracle calls.
type Registry struct {
	tools map[Kind]Tool
}

// NewRegistry builds the full catalog over store.
func NewRegistry(store Store) *Registry {
	r := &Registry{tools: make(map[Kind]Tool, len(allKinds))}

	r.register(NewFunctionToolFromStruct(KindCreateSchedule,
		"새 일정을 캘린더에 등록합니다.", createScheduleArgs{}, createSchedule(store)))
	r.register(NewFunctionToolFromStruct(KindGetScheduleInfo,
		"등록된 일정을 제목 또는 날짜로 조회합니다.", getScheduleInfoArgs{}, getScheduleInfo(store)))
	r.register(NewFunctionToolFromStruct(KindUpdateSchedule,
		"기존 일정의 제목, 시간, 설명 또는 장소를 수정합니다.", updateScheduleArgs{}, updateSchedule(store)))
	r.register(NewFunctionToolFromStruct(KindDeleteSchedule,
		"기존 일정을 삭제합니다.", deleteScheduleArgs{}, deleteSchedule(store)))
	r.register(NewFunctionToolFromStruct(KindCreateAlarm,
		"지정한 시각에 울릴 알람을 만듭니다.", createAlarmArgs{}, createAlarm(store)))
	r.register(NewFunctionToolFromStruct(KindUpdateAlarm,
		"기존 알람의 시간, 이름, 반복 요일 또는 활성화 상태를 수정합니다.", updateAlarmArgs{}, updateAlarm(store)))
	r.register(NewFunctionToolFromStruct(KindDeleteAlarm,
		"기존 알람을 삭제합니다.", deleteAlarmArgs{}, deleteAlarm(store)))
	r.register(NewFunctionToolFromStruct(KindSearchRoute,
		"출발지에서 목적지까지 대중교통 경로 검색을 요청합니다.", searchRouteArgs{}, searchRoute))
	r.register(NewFunctionToolFromStruct(KindGetWeatherInfo,
		"오늘, 내일 또는 모레의 날씨 조회를 요청합니다.", weatherArgs{}, getWeatherInfo))

	return r
}

func (r *Registry) register(t Tool) {
	if _, ok := r.tools[t.Kind()]; ok {
		panic(fmt.Sprintf("tool: duplicate registration of %s", t.Kind()))
	}
	r.tools[t.Kind()] = t
}

// Lookup returns the tool bound to kind.
func (r *Registry) Lookup(kind Kind) (Tool, bool) {
	t, ok := r.tools[kind]
	return t, ok
}

// Definitions returns the catalog as oracle tool definitions, in Kind order.
func (r *Registry) Definitions() []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, len(r.tools))
	for _, k := range allKinds {
		t, ok := r.tools[k]
		if !ok {
			continue
		}
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        string(k),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

// Dispatch validates and executes one function call on behalf of
// tc.UserID(). Unknown names, undecodable arguments and validation failures
// are in-band error results; only repository faults are returned as errors.
func (r *Registry) Dispatch(tc *core.ToolContext, call core.FunctionCall) (core.DispatchResult, error) {
	logger := tc.Logger()
	start := time.Now()

	kind, err := ParseKind(call.Name)
	if err != nil {
		logger.Warn("dispatch.unknown_function", "function", call.Name)
		return core.Failure(fmt.Sprintf("지원하지 않는 기능입니다: %s", call.Name)), nil
	}
	t, ok := r.tools[kind]
	if !ok {
		return core.Failure(fmt.Sprintf("지원하지 않는 기능입니다: %s", call.Name)), nil
	}

	args, err := call.DecodeArgs()
	if err != nil {
		logger.Warn("dispatch.bad_arguments", "function", call.Name, "error", err.Error())
		return core.Failure("요청 인자를 해석하지 못했습니다."), nil
	}

	result, err := t.Call(tc, args)
	logging.LogDispatch(logger, call.Name, string(result.Status), time.Since(start), err)
	if err != nil {
		return core.DispatchResult{}, err
	}
	return result, nil
}

// IsRepositoryFault reports whether a dispatch error came from storage.
func IsRepositoryFault(err error) bool {
	var re *core.RepositoryError
	return errors.As(err, &re)
}
