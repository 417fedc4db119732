package repository

import (
	"errors"
	"time"

	"github.com/okian/hackreg/pkg/metrics"
)

// observe records latency for op and counts failures other than ErrNotFound.
func observe(op string, start time.Time, err error) {
	metrics.RecordRepositoryLatency(op, float64(time.Since(start).Microseconds())/1000.0)
	if err != nil && !errors.Is(err, ErrNotFound) {
		metrics.RecordRepositoryError(op)
	}
}
