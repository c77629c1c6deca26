package config

import (
	"os"
	"strings"

	"github.com/gookit/slog"
	"github.com/gookit/slog/handler"
)

// AppLogger is the minimal logger surface used across the module.
type AppLogger interface {
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Fields are structured log fields emitted as top-level JSON keys.
type Fields map[string]any

// Logger works at info level until InitLogger is called.
var Logger AppLogger = NewLogger("info")

// InitLogger replaces the global logger using the configured level.
func InitLogger(cfg LoggingConfig) {
	level := strings.ToLower(cfg.Level)
	if level == "" {
		level = "info"
	}
	Logger = NewLogger(level)
}

// NewLogger builds a gookit/slog JSON console logger for the given level.
func NewLogger(level string) AppLogger {
	logLevel := slog.LevelByName(level)

	var levels slog.Levels
	for _, lv := range slog.AllLevels {
		if lv <= logLevel {
			levels = append(levels, lv)
		}
	}

	h := handler.NewConsoleHandler(levels)
	formatter := slog.NewJSONFormatter(func(f *slog.JSONFormatter) {
		f.Fields = []string{
			slog.FieldKeyDatetime,
			slog.FieldKeyLevel,
			slog.FieldKeyMessage,
		}
		f.Aliases = slog.StringMap{
			slog.FieldKeyDatetime: "datetime",
			slog.FieldKeyLevel:    "level",
			slog.FieldKeyMessage:  "message",
		}
		f.TimeFormat = "2006-01-02T15:04:05"
	})
	h.SetFormatter(formatter)

	return slog.NewWithHandlers(h)
}

func withServiceName(fields Fields) Fields {
	if fields == nil {
		fields = Fields{}
	}
	if _, ok := fields["service_name"]; !ok {
		if sn := os.Getenv("SERVICE_NAME"); sn != "" {
			fields["service_name"] = sn
		}
	}
	return fields
}

func withFields(fields Fields) (*slog.Record, bool) {
	lg, ok := Logger.(*slog.Logger)
	if !ok {
		return nil, false
	}
	return lg.WithFields(slog.M(withServiceName(fields))), true
}

func InfoWithFields(msg string, fields Fields) {
	if r, ok := withFields(fields); ok {
		r.Info(msg)
		return
	}
	Logger.Info(msg)
}

func DebugWithFields(msg string, fields Fields) {
	if r, ok := withFields(fields); ok {
		r.Debug(msg)
		return
	}
	Logger.Debug(msg)
}

func WarnWithFields(msg string, fields Fields) {
	if r, ok := withFields(fields); ok {
		r.Warn(msg)
		return
	}
	Logger.Warn(msg)
}

func ErrorWithFields(msg string, fields Fields) {
	if r, ok := withFields(fields); ok {
		r.Error(msg)
		return
	}
	Logger.Error(msg)
}
