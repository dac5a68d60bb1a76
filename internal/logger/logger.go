package logger

import (
	"io"
	"log/slog"
	"os"
)

// New creates the service logger.
// prod/dev: JSONHandler for log aggregation
// anything else: TextHandler at debug level
func New(env string) *slog.Logger {
	return NewWithWriter(os.Stdout, env)
}

func NewWithWriter(w io.Writer, env string) *slog.Logger {
	var handler slog.Handler
	if UseJSON(env) {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: true,
		})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}
	return slog.New(handler).With(slog.String("service", "lost-and-found-api"))
}

func UseJSON(env string) bool {
	return env == "prod" || env == "production" || env == "dev"
}
