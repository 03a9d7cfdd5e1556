// Package logging builds the process-wide zap logger and the request
// logging middleware used by the dashboard server.
package logging

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"inventory-dashboard/internal/config"
)

// New builds a logger from the configuration and installs it as the zap
// global. Production mode writes JSON; anything else writes console output.
// When LOG_FILE is set, a rotated JSON copy is written there as well.
func New(cfg *config.Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level.SetLevel(zapcore.InfoLevel)
	}

	var logger *zap.Logger
	if cfg.LogFile != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
		}
		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(rotated),
				level,
			),
			zapcore.NewCore(
				consoleEncoder(cfg.LogMode),
				zapcore.AddSync(os.Stdout),
				level,
			),
		)
		logger = zap.New(core, zap.AddCaller())
	} else {
		var zapConfig zap.Config
		if cfg.LogMode == "production" {
			zapConfig = zap.NewProductionConfig()
		} else {
			zapConfig = zap.NewDevelopmentConfig()
		}
		zapConfig.Level = level
		zapConfig.OutputPaths = []string{"stdout"}

		var err error
		logger, err = zapConfig.Build(zap.AddCaller())
		if err != nil {
			return nil, err
		}
	}

	zap.ReplaceGlobals(logger)
	return logger, nil
}

func consoleEncoder(mode string) zapcore.Encoder {
	if mode == "production" {
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	return zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
}

// Middleware logs one line per request. It expects chi's RequestID
// middleware to run first.
func Middleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int64("latency_ms", time.Since(start).Milliseconds()),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
