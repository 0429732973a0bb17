// Package log is the leveled logger used across kungfu-graph, backed by klog.
package log

import (
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/lsds/kungfu-graph/srcs/go/kungfu/config"
	"k8s.io/klog/v2"
)

type Level int32

const (
	Debug Level = iota
	Info
	Warn
	Error
)

// debugVerbosity is the klog verbosity at which Debugf messages are emitted.
const debugVerbosity = 1

var flags = flag.NewFlagSet("kungfu-log", flag.ContinueOnError)

func init() {
	klog.InitFlags(flags)
	if config.LogLevel == `DEBUG` {
		SetLevel(Debug)
	}
}

// SetLevel enables debug messages when level is Debug.
func SetLevel(level Level) {
	v := 0
	if level <= Debug {
		v = debugVerbosity
	}
	flags.Set("v", strconv.Itoa(v))
}

// SetOutput redirects all log messages to w.
func SetOutput(w io.Writer) {
	flags.Set("logtostderr", "false")
	flags.Set("alsologtostderr", "false")
	klog.SetOutput(w)
}

func Debugf(format string, v ...interface{}) {
	if klogV := klog.V(debugVerbosity); klogV.Enabled() {
		klogV.InfoDepth(1, fmt.Sprintf(format, v...))
	}
}

func Infof(format string, v ...interface{}) {
	klog.InfoDepth(1, fmt.Sprintf(format, v...))
}

func Warnf(format string, v ...interface{}) {
	klog.WarningDepth(1, fmt.Sprintf(format, v...))
}

func Errorf(format string, v ...interface{}) {
	klog.ErrorDepth(1, fmt.Sprintf(format, v...))
}

// Exitf logs at error level, flushes and exits the process with code 1.
func Exitf(format string, v ...interface{}) {
	klog.ExitDepth(1, fmt.Sprintf(format, v...))
}

func Flush() {
	klog.Flush()
}
