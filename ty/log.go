package ty

import (
	"context"
	"log/slog"
)

// LogTy wraps a Ty as a slog.LogValuer so that types are only rendered
// when a record is actually emitted
func LogTy(t Ty) slog.LogValuer { return tyLogValuer{t} }

// LogRegion is like LogTy, for regions
func LogRegion(r Region) slog.LogValuer { return regionLogValuer{r} }

type tyLogValuer struct{ Ty }
type regionLogValuer struct{ Region }

func (l tyLogValuer) LogValue() slog.Value {
	if l.Ty == nil {
		return slog.StringValue("<nil>")
	}
	return slog.StringValue(l.Ty.String())
}

func (l regionLogValuer) LogValue() slog.Value {
	if l.Region == nil {
		return slog.StringValue("<nil>")
	}
	return slog.StringValue(l.Region.String())
}

// SlogHandler wraps underlying so that any Ty or Region attribute is
// lazily printed
func SlogHandler(underlying slog.Handler) slog.Handler {
	return &tyLogHandler{underlying: underlying}
}

type tyLogHandler struct {
	underlying slog.Handler
}

func (l *tyLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return l.underlying.Enabled(ctx, level)
}

func (l *tyLogHandler) Handle(ctx context.Context, record slog.Record) error {
	newRecord := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		newRecord.AddAttrs(wrapAttr(attr))
		return true
	})
	return l.underlying.Handle(ctx, newRecord)
}

func (l *tyLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	wrapped := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		wrapped[i] = wrapAttr(attr)
	}
	return SlogHandler(l.underlying.WithAttrs(wrapped))
}

func (l *tyLogHandler) WithGroup(name string) slog.Handler {
	return SlogHandler(l.underlying.WithGroup(name))
}

func wrapAttr(attr slog.Attr) slog.Attr {
	if attr.Value.Kind() != slog.KindAny {
		return attr
	}
	switch value := attr.Value.Any().(type) {
	case Ty:
		attr.Value = slog.AnyValue(LogTy(value))
	case Region:
		attr.Value = slog.AnyValue(LogRegion(value))
	}
	return attr
}
