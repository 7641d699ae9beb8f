package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/habitual/internal/constants"
)

// Logger is nil until Init succeeds; the package helpers are no-ops until then.
var Logger *log.Logger

var logPath string

type Config struct {
	Debug     bool
	ConfigDir string
	// Stderr mirrors logs to stderr at info level in logfmt, for `serve`.
	Stderr bool
}

func (c Config) level() log.Level {
	switch {
	case c.Debug:
		return log.DebugLevel
	case c.Stderr:
		return log.InfoLevel
	default:
		return log.WarnLevel
	}
}

// Init writes logs to <ConfigDir>/logs/habitual.log, rotated by size.
func Init(cfg Config) error {
	dir := filepath.Join(cfg.ConfigDir, "logs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	logPath = filepath.Join(dir, constants.AppName+".log")

	var out io.Writer = &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
	if cfg.Debug || cfg.Stderr {
		out = io.MultiWriter(os.Stderr, out)
	}

	formatter := log.TextFormatter
	if cfg.Stderr {
		formatter = log.LogfmtFormatter
	}

	Logger = log.NewWithOptions(out, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           cfg.level(),
		Prefix:          constants.AppName,
		Formatter:       formatter,
	})
	return nil
}

// Path returns the log file, or "" before Init.
func Path() string {
	return logPath
}

// Writer logs each write at info level. HTTP access logs go through it.
func Writer() io.Writer {
	if Logger == nil {
		return io.Discard
	}
	return Logger.StandardLog(log.StandardLogOptions{ForceLevel: log.InfoLevel}).Writer()
}

func Debug(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

func Info(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

func Warn(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

func Error(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}

// Fatal logs msg and exits with status 1 even when Init never ran.
func Fatal(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Fatal(msg, keyvals...)
	}
	os.Exit(1)
}
