package zsock

import "go.uber.org/zap"

// LogBus writes events to a zap logger. Failures are logged at warn level,
// everything else at debug level.
type LogBus struct {
	Logger *zap.Logger
}

func (b LogBus) Post(ev Event) {
	if b.Logger == nil {
		return
	}

	fields := []zap.Field{
		zap.String("ctx", ev.Context),
	}
	if ev.Role != 0 {
		fields = append(fields, zap.Stringer("role", ev.Role))
	}
	if ev.Endpoint != "" {
		fields = append(fields, zap.String("endpoint", ev.Endpoint))
	}
	if ev.Notes != "" {
		fields = append(fields, zap.String("notes", ev.Notes))
	}

	if ev.EventType == EventTypeFailed {
		fields = append(fields, zap.Stringer("kind", ev.Kind))
		b.Logger.Warn(ev.EventType.String(), fields...)
		return
	}
	b.Logger.Debug(ev.EventType.String(), fields...)
}
