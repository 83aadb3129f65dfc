package appinit

import (
	"os"
	"strings"

	errors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"gitee.com/czyczk/attested-reveal/internal/utils/timingutils"
)

// LogInfo configures the process-wide logger.
type LogInfo struct {
	Level          string `yaml:"level"`          // "debug", "info" (default), "warn" or "error"
	Format         string `yaml:"format"`         // "text" (default) or "json"
	ShowTimingLogs bool   `yaml:"showTimingLogs"` // Log how long each network operation takes (at debug level)
}

// SetupLogger applies the log config to the standard logrus logger. A nil config keeps the defaults.
func SetupLogger(info *LogInfo) error {
	if info == nil {
		info = &LogInfo{}
	}

	level := log.InfoLevel
	if info.Level != "" {
		parsed, err := log.ParseLevel(info.Level)
		if err != nil {
			return errors.Wrapf(err, "无法识别的日志级别 '%v'", info.Level)
		}
		level = parsed
	}

	switch strings.ToLower(info.Format) {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return errors.Errorf("无法识别的日志格式 '%v'", info.Format)
	}

	log.SetOutput(os.Stderr)
	log.SetLevel(level)
	timingutils.ShowTimingLogs = info.ShowTimingLogs

	return nil
}
