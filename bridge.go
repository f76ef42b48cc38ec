package logstream

import (
	"context"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

/*
Bridges to structured loggers, both ways:
  - ZerologCallback and SlogCallback are sinks re-emitting entries into a
    zerolog.Logger or an slog.Handler (for services whose log pipeline is
    built on one of those).
  - SlogHandler is a producer: an slog.Handler queuing records on a Stream,
    so code written against log/slog ends up in the same callbacks.
*/

// Extra slog levels around the standard four.
const (
	SLOG_LEVEL_BULK  = slog.LevelDebug - 4
	SLOG_LEVEL_ALERT = slog.LevelError
	SLOG_LEVEL_POPUP = slog.LevelError + 4
)

func zerologLevel(p Priority) zerolog.Level {
	switch p {
	case LVL_BULK:
		return zerolog.TraceLevel
	case LVL_DEBUG:
		return zerolog.DebugLevel
	case LVL_INFO:
		return zerolog.InfoLevel
	case LVL_WARN:
		return zerolog.WarnLevel
	case LVL_ALERT, LVL_POPUP:
		return zerolog.ErrorLevel
	}
	return zerolog.NoLevel
}

func slogLevel(p Priority) slog.Level {
	switch p {
	case LVL_BULK:
		return SLOG_LEVEL_BULK
	case LVL_DEBUG:
		return slog.LevelDebug
	case LVL_WARN:
		return slog.LevelWarn
	case LVL_ALERT:
		return SLOG_LEVEL_ALERT
	case LVL_POPUP:
		return SLOG_LEVEL_POPUP
	}
	return slog.LevelInfo
}

// PriorityFromSlog maps an slog level to the nearest priority at or below it.
func PriorityFromSlog(l slog.Level) Priority {
	switch {
	case l >= SLOG_LEVEL_POPUP:
		return LVL_POPUP
	case l >= SLOG_LEVEL_ALERT:
		return LVL_ALERT
	case l >= slog.LevelWarn:
		return LVL_WARN
	case l >= slog.LevelInfo:
		return LVL_INFO
	case l >= slog.LevelDebug:
		return LVL_DEBUG
	}
	return LVL_BULK
}

/////////////////////////////////////////////////////////////////////////////////////////

// ZerologCallback re-emits entries as zerolog events with category, seq and
// (when present) file and line fields.
type ZerologCallback struct {
	Filter
	logger zerolog.Logger
}

func NewZerologCallback(logger zerolog.Logger, c Category, p Priority) *ZerologCallback {
	zc := &ZerologCallback{logger: logger}
	zc.SetFilter(c, p)
	return zc
}

func (zc *ZerologCallback) Invoke(e Entry) {
	if !zc.ShouldLog(e.Category, e.Priority) {
		return
	}
	ev := zc.logger.WithLevel(zerologLevel(e.Priority))
	if ev == nil {
		return
	}
	ev = ev.Str("category", e.Category.String()).Uint64("seq", e.Seq)
	if e.HasLocation() {
		ev = ev.Str("file", e.File).Int("line", e.Line)
	}
	if e.Priority == LVL_POPUP {
		ev = ev.Bool("popup", true)
	}
	ev.Msg(e.Message)
}

/////////////////////////////////////////////////////////////////////////////////////////

// SlogCallback re-emits entries as slog records on handler h.
type SlogCallback struct {
	Filter
	handler slog.Handler
}

func NewSlogCallback(h slog.Handler, c Category, p Priority) *SlogCallback {
	sc := &SlogCallback{handler: h}
	sc.SetFilter(c, p)
	return sc
}

func (sc *SlogCallback) Invoke(e Entry) {
	if !sc.ShouldLog(e.Category, e.Priority) {
		return
	}
	ctx := context.Background()
	level := slogLevel(e.Priority)
	if !sc.handler.Enabled(ctx, level) {
		return
	}
	rec := slog.NewRecord(time.Now(), level, e.Message, 0)
	rec.AddAttrs(slog.String("category", e.Category.String()), slog.Uint64("seq", e.Seq))
	if e.HasLocation() {
		rec.AddAttrs(slog.String("file", e.File), slog.Int("line", e.Line))
	}
	sc.handler.Handle(ctx, rec)
}

/////////////////////////////////////////////////////////////////////////////////////////

// SlogHandler is an slog.Handler logging into a Stream under one category.
// Attributes are appended to the message as key=value pairs, groups prefix
// their keys with "group.".
type SlogHandler struct {
	stream   *Stream
	category Category
	prefix   string // open groups, "a.b."
	attrs    string // preformatted attributes from WithAttrs
}

// NewSlogHandler returns a handler; slog.New(s.NewSlogHandler(CAT_IO))
// gives an *slog.Logger writing to s.
func (s *Stream) NewSlogHandler(c Category) *SlogHandler {
	return &SlogHandler{stream: s, category: c}
}

func (h *SlogHandler) Enabled(_ context.Context, l slog.Level) bool {
	return h.stream.WouldLog(h.category, PriorityFromSlog(l))
}

func (h *SlogHandler) Handle(_ context.Context, r slog.Record) error {
	if h.stream.IsClosed() {
		return ErrStreamClosed
	}
	var sb strings.Builder
	sb.WriteString(r.Message)
	sb.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&sb, h.prefix, a)
		return true
	})
	file, line := "", NO_LINE
	if r.PC != 0 && h.stream.IsFileLine() {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		if frame.File != "" {
			file, line = filepath.Base(frame.File), frame.Line
		}
	}
	h.stream.Log(h.category, PriorityFromSlog(r.Level), file, line, sb.String())
	return nil
}

func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var sb strings.Builder
	sb.WriteString(h.attrs)
	for _, a := range attrs {
		appendAttr(&sb, h.prefix, a)
	}
	h2 := *h
	h2.attrs = sb.String()
	return &h2
}

func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix = h.prefix + name + "."
	return &h2
}

func appendAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			appendAttr(sb, prefix, ga)
		}
		return
	}
	sb.WriteByte(' ')
	sb.WriteString(prefix)
	sb.WriteString(a.Key)
	sb.WriteByte('=')
	sb.WriteString(a.Value.String())
}
