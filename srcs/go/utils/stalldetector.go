package utils

import (
	"time"

	"k8s.io/klog/v2"
)

type StallDetector struct {
	name    string
	tk      *time.Ticker
	stopped chan struct{}
}

// InstallStallDetector reports every period that the named task is still running, until Stop is called.
func InstallStallDetector(name string, period time.Duration) *StallDetector {
	s := &StallDetector{
		name:    name,
		tk:      time.NewTicker(period),
		stopped: make(chan struct{}),
	}
	go s.start()
	return s
}

func (s *StallDetector) start() {
	t0 := time.Now()
	var hasStalled bool
	for {
		select {
		case <-s.tk.C:
			hasStalled = true
			klog.Warningf("%s stalled for %s", s.name, time.Since(t0))
		case <-s.stopped:
			if hasStalled {
				klog.Infof("%s recovered after %s", s.name, time.Since(t0))
			}
			return
		}
	}
}

func (s *StallDetector) Stop() {
	s.tk.Stop()
	close(s.stopped)
}
