package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TimeLayout is the timestamp format of every send log line.
const TimeLayout = "2006-01-02 15:04:05"

type Logger struct {
	sugar *zap.SugaredLogger
	file  *os.File
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		MessageKey:       "msg",
		EncodeTime:       zapcore.TimeEncoderOfLayout(TimeLayout),
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " - ",
		LineEnding:       zapcore.DefaultLineEnding,
	}
}

// Open appends to the log file at path, creating it and its directory when
// needed. Lines are "<time> - <message>". When tee is non-nil every line is
// also written there.
func Open(path string, tee io.Writer, debug bool) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if debug {
		level.SetLevel(zapcore.DebugLevel)
	}

	enc := zapcore.NewConsoleEncoder(encoderConfig())
	cores := []zapcore.Core{zapcore.NewCore(enc, zapcore.AddSync(file), level)}
	if tee != nil {
		cores = append(cores, zapcore.NewCore(enc.Clone(), zapcore.Lock(zapcore.AddSync(tee)), level))
	}

	return &Logger{
		sugar: zap.New(zapcore.NewTee(cores...)).Sugar(),
		file:  file,
	}, nil
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

func (l *Logger) Close() error {
	_ = l.sugar.Sync()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) Info(v ...any) {
	l.sugar.Info(v...)
}

func (l *Logger) Infof(format string, v ...any) {
	l.sugar.Infof(format, v...)
}

func (l *Logger) Warn(v ...any) {
	l.sugar.Warn(v...)
}

func (l *Logger) Warnf(format string, v ...any) {
	l.sugar.Warnf(format, v...)
}

func (l *Logger) Error(v ...any) {
	l.sugar.Error(v...)
}

func (l *Logger) Errorf(format string, v ...any) {
	l.sugar.Errorf(format, v...)
}

func (l *Logger) Debug(v ...any) {
	l.sugar.Debug(v...)
}

func (l *Logger) Debugf(format string, v ...any) {
	l.sugar.Debugf(format, v...)
}
