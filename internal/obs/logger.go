// Package obs builds the process logger and the metrics/health HTTP endpoint.
package obs

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig selects the level and encoding of the process logger and the
// fields stamped on every entry.
type LogConfig struct {
	Level   string // debug|info|warn|error; empty means info
	Pretty  bool   // console encoder instead of JSON
	Service string
	Env     string
	Version string
}

// NewLogger builds the authd logger writing to stderr.
func NewLogger(c LogConfig) (*zap.Logger, error) {
	return newLogger(c, zapcore.Lock(os.Stderr))
}

func newLogger(c LogConfig, out zapcore.WriteSyncer) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if c.Level != "" {
		l, err := zapcore.ParseLevel(c.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		level = l
	}

	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "ts"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if c.Pretty {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(ec)
	} else {
		enc = zapcore.NewJSONEncoder(ec)
	}

	fields := []zap.Field{zap.String("service", c.Service)}
	if c.Env != "" {
		fields = append(fields, zap.String("env", c.Env))
	}
	if c.Version != "" {
		fields = append(fields, zap.String("version", c.Version))
	}

	// no sampler: login and revocation lines are kept one for one
	core := zapcore.NewCore(enc, out, level)
	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(fields...),
	), nil
}
