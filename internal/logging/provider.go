package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/embedded"
	"go.opentelemetry.io/otel/log/global"
)

// slog levels sit 9 below otel severities, e.g. Info (0) is SeverityInfo (9).
const severityOffset = int(log.SeverityInfo)

// LoggerProvider forwards otel log records to a slog handler, so libraries
// that log through the otel bridge end up next to the application's own
// logs.
type LoggerProvider struct {
	embedded.LoggerProvider

	handler slog.Handler
}

func NewLoggerProvider(handler slog.Handler) *LoggerProvider {
	return &LoggerProvider{handler: handler}
}

// Install makes logger the sink for every otel bridged logger.
func Install(logger *slog.Logger) {
	slog.SetDefault(logger)
	global.SetLoggerProvider(NewLoggerProvider(logger.Handler()))
}

func (p *LoggerProvider) Logger(name string, _ ...log.LoggerOption) log.Logger {
	handler := p.handler
	if name != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("scope", name)})
	}
	return &bridgedLogger{handler: handler}
}

type bridgedLogger struct {
	embedded.Logger

	handler slog.Handler
}

func (l *bridgedLogger) Emit(ctx context.Context, record log.Record) {
	level := toLevel(record.Severity())
	if !l.handler.Enabled(ctx, level) {
		return
	}

	r := slog.NewRecord(record.Timestamp(), level, record.Body().String(), 0)
	record.WalkAttributes(func(kv log.KeyValue) bool {
		r.AddAttrs(slog.Attr{Key: kv.Key, Value: toValue(kv.Value)})
		return true
	})
	_ = l.handler.Handle(ctx, r)
}

func (l *bridgedLogger) Enabled(ctx context.Context, param log.EnabledParameters) bool {
	return l.handler.Enabled(ctx, toLevel(param.Severity))
}

func toLevel(severity log.Severity) slog.Level {
	if severity == log.SeverityUndefined {
		return slog.LevelInfo
	}
	return slog.Level(int(severity) - severityOffset)
}

func toValue(v log.Value) slog.Value {
	switch v.Kind() {
	case log.KindBool:
		return slog.BoolValue(v.AsBool())
	case log.KindInt64:
		return slog.Int64Value(v.AsInt64())
	case log.KindFloat64:
		return slog.Float64Value(v.AsFloat64())
	case log.KindString:
		return slog.StringValue(v.AsString())
	case log.KindMap:
		attrs := make([]slog.Attr, 0, len(v.AsMap()))
		for _, kv := range v.AsMap() {
			attrs = append(attrs, slog.Attr{Key: kv.Key, Value: toValue(kv.Value)})
		}
		return slog.GroupValue(attrs...)
	default:
		return slog.StringValue(v.String())
	}
}
