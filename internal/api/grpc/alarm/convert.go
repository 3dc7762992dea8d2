package alarm

import (
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/viktoriya-kutsarova/project-gravity/internal/domain/alarm"
)

// Struct field names used on the wire.
const (
	fieldKind     = "kind"
	fieldAt       = "at"
	fieldRunID    = "run_id"
	fieldState    = "state"
	fieldPrevious = "previous"
	fieldTitle    = "title"
	fieldTick     = "tick"
	fieldMaxTicks = "max_ticks"
)

// SnapshotToStruct converts a domain snapshot to a protobuf Struct.
func SnapshotToStruct(snapshot *domain.Snapshot) *structpb.Struct {
	if snapshot == nil {
		return new(structpb.Struct)
	}

	fields := map[string]*structpb.Value{
		fieldState: structpb.NewStringValue(snapshot.State.String()),
		fieldTitle: structpb.NewStringValue(snapshot.Title),
	}

	if snapshot.RunID != "" {
		fields[fieldRunID] = structpb.NewStringValue(snapshot.RunID)
	}

	putProgress(fields, snapshot.Progress)

	return &structpb.Struct{Fields: fields}
}

// StructToSnapshot converts a protobuf Struct back to a domain snapshot.
func StructToSnapshot(s *structpb.Struct) *domain.Snapshot {
	fields := s.GetFields()

	return &domain.Snapshot{
		State:    domain.TimerState(fields[fieldState].GetStringValue()),
		RunID:    fields[fieldRunID].GetStringValue(),
		Title:    fields[fieldTitle].GetStringValue(),
		Progress: takeProgress(fields),
	}
}

// EventToStruct converts a bus event to a protobuf Struct.
func EventToStruct(event domain.Event) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldKind: structpb.NewStringValue(string(event.Kind)),
	}

	if !event.At.IsZero() {
		fields[fieldAt] = structpb.NewStringValue(event.At.UTC().Format(time.RFC3339Nano))
	}

	if event.RunID != "" {
		fields[fieldRunID] = structpb.NewStringValue(event.RunID)
	}

	if event.State != "" {
		fields[fieldState] = structpb.NewStringValue(event.State.String())
	}

	if event.Previous != "" {
		fields[fieldPrevious] = structpb.NewStringValue(event.Previous.String())
	}

	if event.Title != "" {
		fields[fieldTitle] = structpb.NewStringValue(event.Title)
	}

	putProgress(fields, event.Progress)

	return &structpb.Struct{Fields: fields}
}

// StructToEvent converts a protobuf Struct back to a bus event.
// Unknown kinds are kept verbatim.
func StructToEvent(s *structpb.Struct) domain.Event {
	fields := s.GetFields()

	event := domain.Event{
		Kind:     domain.EventKind(fields[fieldKind].GetStringValue()),
		RunID:    fields[fieldRunID].GetStringValue(),
		State:    domain.TimerState(fields[fieldState].GetStringValue()),
		Previous: domain.TimerState(fields[fieldPrevious].GetStringValue()),
		Title:    fields[fieldTitle].GetStringValue(),
		Progress: takeProgress(fields),
	}

	if at, err := time.Parse(time.RFC3339Nano, fields[fieldAt].GetStringValue()); err == nil {
		event.At = at
	}

	return event
}

// putProgress stores progress fields when progress is set.
func putProgress(fields map[string]*structpb.Value, progress *domain.Progress) {
	if progress == nil {
		return
	}

	fields[fieldTick] = structpb.NewNumberValue(float64(progress.Current))
	fields[fieldMaxTicks] = structpb.NewNumberValue(float64(progress.Max))
}

// takeProgress reads progress fields, nil when absent.
func takeProgress(fields map[string]*structpb.Value) *domain.Progress {
	maxTicks, ok := fields[fieldMaxTicks]
	if !ok {
		return nil
	}

	return &domain.Progress{
		Max:     int(maxTicks.GetNumberValue()),
		Current: int(fields[fieldTick].GetNumberValue()),
	}
}
