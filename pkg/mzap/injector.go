package mzap

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/agentlang-ai/agentstore/pkg/mlog"
)

// InitializeLogger initializes our log layer and returns it.
//
//nolint:ireturn
func InitializeLogger() mlog.Logger {
	var zapCfg zap.Config

	if os.Getenv("ENV_NAME") == "production" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	if lvl, err := zapcore.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	logger, err := zapCfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}

	sugar := logger.Sugar()

	sugar.Infof("Log level is (%v)", zapCfg.Level)

	return &ZapLogger{
		Logger: sugar,
	}
}
