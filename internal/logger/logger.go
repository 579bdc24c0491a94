// Package logger provides the logging facade for dynrestore: a small
// interface over logrus with a human-readable console formatter and an
// optional mirrored log file per run.
package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

var bufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// Color printers shared across the CLI output.
var (
	SuccessColor = color.New(color.FgGreen, color.Bold)
	ErrorColor   = color.New(color.FgRed, color.Bold)
	WarnColor    = color.New(color.FgYellow, color.Bold)
	InfoColor    = color.New(color.FgCyan)
	DebugColor   = color.New(color.FgWhite)
	DimColor     = color.New(color.FgHiBlack)
)

// Logger defines the interface the rest of the tool logs through.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	WithField(key string, value interface{}) Logger

	// StartStage tracks timing for one orchestration stage.
	StartStage(name string) StageLogger
}

// StageLogger reports progress of a single named stage with elapsed time.
type StageLogger interface {
	Update(msg string, args ...any)
	Complete(msg string, args ...any)
	Fail(msg string, args ...any)
}

type logger struct {
	logrus *logrus.Logger
	fields logrus.Fields
}

type stageLogger struct {
	name      string
	startTime time.Time
	parent    *logger
}

// New creates a logger writing to stdout.
func New(level, format string) Logger {
	l := logrus.New()
	l.SetLevel(parseLevel(level))
	l.SetOutput(os.Stdout)
	setFormatter(l, format)
	return &logger{logrus: l}
}

// NewWithFile creates a logger that mirrors every entry to stdout and to the
// given file, the way the original restore runs kept a per-run log.
func NewWithFile(level, format, filename string) (Logger, error) {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := logrus.New()
	l.SetLevel(parseLevel(level))
	l.SetOutput(io.MultiWriter(os.Stdout, file))
	setFormatter(l, format)
	return &logger{logrus: l}, nil
}

// NewSilent creates a logger that discards all output (for tests).
func NewSilent() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &logger{logrus: l}
}

func parseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func setFormatter(l *logrus.Logger, format string) {
	if strings.EqualFold(format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	l.SetFormatter(&CleanFormatter{})
}

func (l *logger) Debug(msg string, args ...any) { l.log(logrus.DebugLevel, msg, args...) }
func (l *logger) Info(msg string, args ...any)  { l.log(logrus.InfoLevel, msg, args...) }
func (l *logger) Warn(msg string, args ...any)  { l.log(logrus.WarnLevel, msg, args...) }
func (l *logger) Error(msg string, args ...any) { l.log(logrus.ErrorLevel, msg, args...) }

// WithField returns a logger whose entries always carry the given field.
func (l *logger) WithField(key string, value interface{}) Logger {
	fields := make(logrus.Fields, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	fields[key] = value
	return &logger{logrus: l.logrus, fields: fields}
}

func (l *logger) StartStage(name string) StageLogger {
	return &stageLogger{name: name, startTime: time.Now(), parent: l}
}

func (sl *stageLogger) Update(msg string, args ...any) {
	elapsed := time.Since(sl.startTime)
	sl.parent.Info(fmt.Sprintf("[%s] %s", sl.name, msg),
		append(args, "elapsed", formatDuration(elapsed))...)
}

func (sl *stageLogger) Complete(msg string, args ...any) {
	elapsed := time.Since(sl.startTime)
	sl.parent.Info(fmt.Sprintf("[%s] COMPLETED: %s", sl.name, msg),
		append(args, "duration", formatDuration(elapsed))...)
}

func (sl *stageLogger) Fail(msg string, args ...any) {
	elapsed := time.Since(sl.startTime)
	sl.parent.Error(fmt.Sprintf("[%s] FAILED: %s", sl.name, msg),
		append(args, "duration", formatDuration(elapsed))...)
}

func (l *logger) log(level logrus.Level, msg string, args ...any) {
	if l == nil || l.logrus == nil {
		return
	}
	if !l.logrus.IsLevelEnabled(level) {
		return
	}

	fields := fieldsFromArgs(args...)
	if len(l.fields) > 0 && fields == nil {
		fields = logrus.Fields{}
	}
	for k, v := range l.fields {
		if _, ok := fields[k]; !ok {
			fields[k] = v
		}
	}

	var entry *logrus.Entry
	if fields != nil {
		entry = l.logrus.WithFields(fields)
	} else {
		entry = logrus.NewEntry(l.logrus)
	}

	switch level {
	case logrus.DebugLevel:
		entry.Debug(msg)
	case logrus.WarnLevel:
		entry.Warn(msg)
	case logrus.ErrorLevel:
		entry.Error(msg)
	default:
		entry.Info(msg)
	}
}

// fieldsFromArgs converts variadic key/value pairs into logrus fields.
func fieldsFromArgs(args ...any) logrus.Fields {
	if len(args) == 0 {
		return nil
	}

	fields := make(logrus.Fields, len(args)/2+1)
	for i := 0; i < len(args); {
		if i+1 < len(args) {
			if key, ok := args[i].(string); ok {
				fields[key] = args[i+1]
				i += 2
				continue
			}
		}
		fields[fmt.Sprintf("arg%d", i)] = args[i]
		i++
	}
	return fields
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm %ds", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}

// CleanFormatter formats entries as `LEVEL [timestamp] message key=value`
// with deterministic field ordering.
type CleanFormatter struct {
	levelStrings     map[logrus.Level]string
	levelStringsOnce sync.Once
}

func (f *CleanFormatter) getLevelStrings() map[logrus.Level]string {
	f.levelStringsOnce.Do(func() {
		f.levelStrings = map[logrus.Level]string{
			logrus.DebugLevel: DebugColor.Sprint("DEBUG"),
			logrus.InfoLevel:  SuccessColor.Sprint("INFO "),
			logrus.WarnLevel:  WarnColor.Sprint("WARN "),
			logrus.ErrorLevel: ErrorColor.Sprint("ERROR"),
			logrus.FatalLevel: ErrorColor.Sprint("FATAL"),
			logrus.PanicLevel: ErrorColor.Sprint("PANIC"),
			logrus.TraceLevel: DebugColor.Sprint("TRACE"),
		}
	})
	return f.levelStrings
}

// Format implements logrus.Formatter.
func (f *CleanFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	levelStrings := f.getLevelStrings()
	levelText, ok := levelStrings[entry.Level]
	if !ok {
		levelText = levelStrings[logrus.InfoLevel]
	}

	buf.WriteString(levelText)
	buf.WriteString(" [")
	buf.WriteString(entry.Time.Format("2006-01-02T15:04:05"))
	buf.WriteString("] ")
	buf.WriteString(entry.Message)

	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if k == "duration" {
				if str, ok := entry.Data[k].(string); ok {
					buf.WriteString(" (")
					buf.WriteString(str)
					buf.WriteByte(')')
				}
				continue
			}
			buf.WriteByte(' ')
			buf.WriteString(k)
			buf.WriteByte('=')
			fmt.Fprint(buf, entry.Data[k])
		}
	}

	buf.WriteByte('\n')

	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}
