package timingutils

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// ShowTimingLogs toggles the loggers returned by `GetDeferrableTimingLogger`. It is set once during app initialization.
var ShowTimingLogs = false

// GetDeferrableTimingLogger creates a logger function that starts a timer when called and ends the timer when the calling function ends and logs (at debug level) the time diff.
func GetDeferrableTimingLogger(message string) func() {
	if !ShowTimingLogs {
		return func() {}
	}

	start := time.Now()
	return func() {
		log.Debugf("%v: %v", message, time.Since(start))
	}
}

func SerializeDuration(duration time.Duration) string {
	return duration.String()
}
