package utils

import "time"

// Measure runs f and returns its duration.
func Measure(f func() error) (time.Duration, error) {
	t0 := time.Now()
	err := f()
	return time.Since(t0), err
}
