package logger

import (
	"log"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type loggerConfig struct {
	Logger struct {
		Level      int8     `yaml:"level"`
		Encoding   string   `yaml:"encoding"`
		OutputPath []string `yaml:"outputPath"`
	}
}

func InitLogger(cfgPath string) *zap.SugaredLogger {
	log.Println("Initiating logger...")

	cfg := readLoggerConfig(cfgPath)

	// file sinks need their directory before zap opens them
	for _, path := range cfg.Logger.OutputPath {
		if path == "stdout" || path == "stderr" {
			continue
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				log.Fatalf("Cannot create log output directory %q because of: %s", dir, err)
			}
		}
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	config := zap.Config{
		Level:             zap.NewAtomicLevelAt(zapcore.Level(cfg.Logger.Level)),
		Development:       false,
		DisableCaller:     false,
		DisableStacktrace: false,
		Sampling:          nil,
		Encoding:          cfg.Logger.Encoding,
		EncoderConfig:     encoderCfg,
		OutputPaths:       cfg.Logger.OutputPath,
		ErrorOutputPaths: []string{
			"stderr",
		},
	}
	return zap.Must(config.Build()).Sugar()
}

func readLoggerConfig(cfgPath string) *loggerConfig {
	f, err := os.Open(cfgPath)
	if err != nil {
		log.Fatalf("Cannot read config file because of: %s", err)
	}
	defer f.Close()

	cfg := &loggerConfig{}

	decoder := yaml.NewDecoder(f)
	err = decoder.Decode(cfg)
	if err != nil {
		log.Fatalf("Cannot parse app config file because of: %s", err)
	}
	return cfg
}
