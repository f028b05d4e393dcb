package utils

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/mdobak/go-xerrors"
)

var (
	loggerOnce sync.Once
	logger     *slog.Logger
)

type stackFrame struct {
	Func   string `json:"func"`
	Source string `json:"source"`
	Line   int    `json:"line"`
}

// GetLogger returns the process-wide structured logger. Errors wrapped with
// xerrors carry stack traces which are rendered as structured frames.
func GetLogger() *slog.Logger {
	loggerOnce.Do(func() {
		handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:       slog.LevelInfo,
			ReplaceAttr: replaceAttr,
		})
		logger = slog.New(handler)
	})
	return logger
}

func replaceAttr(_ []string, attr slog.Attr) slog.Attr {
	switch attr.Value.Kind() {
	case slog.KindAny:
		if err, ok := attr.Value.Any().(error); ok {
			attr.Value = formatError(err)
		}
	}
	return attr
}

func formatError(err error) slog.Value {
	attrs := []slog.Attr{slog.String("msg", err.Error())}

	trace := xerrors.StackTrace(err)
	if len(trace) > 0 {
		frames := trace.Frames()
		formatted := make([]stackFrame, 0, len(frames))
		for _, frame := range frames {
			formatted = append(formatted, stackFrame{
				Func:   filepath.Base(frame.Function),
				Source: filepath.Join(filepath.Base(filepath.Dir(frame.File)), filepath.Base(frame.File)),
				Line:   frame.Line,
			})
		}
		attrs = append(attrs, slog.Any("trace", formatted))
	}

	return slog.GroupValue(attrs...)
}
