package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts a zap.SugaredLogger to ftmgmt.Logger.
// Verbose maps to the debug level, which is only enabled in verbose mode.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger builds a JSON logger on stderr using zap's production config.
func NewZapLogger(verbose bool) (*ZapLogger, error) {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	config.OutputPaths = []string{"stderr"}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return &ZapLogger{sugar: logger.Sugar()}, nil
}

// NewZapLoggerTo builds a JSON logger writing to w.
func NewZapLoggerTo(w io.Writer, verbose bool) *ZapLogger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	if w == nil {
		w = os.Stderr
	}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(w), level)
	return &ZapLogger{sugar: zap.New(core).Sugar()}
}

func (l *ZapLogger) Verbose(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

func (l *ZapLogger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

func (l *ZapLogger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}
