package sqlite

import (
	"strings"
	"time"
)

const (
	maxRetryAttempts  = 5
	initialRetryDelay = 10 * time.Millisecond
)

// isSQLiteBusy reports whether err is lock contention surfaced by the driver.
func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

// retryOnBusy runs op, retrying with doubling backoff while the database
// reports lock contention. Any other error fails immediately.
func retryOnBusy(op func() error) error {
	delay := initialRetryDelay
	var err error
	for attempt := 0; attempt < maxRetryAttempts; attempt++ {
		err = op()
		if err == nil || !isSQLiteBusy(err) {
			return err
		}
		if attempt < maxRetryAttempts-1 {
			time.Sleep(delay)
			delay *= 2
		}
	}
	return err
}
