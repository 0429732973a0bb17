package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lsds/kungfu-graph/srcs/go/utils"
)

var UseUnixSock = false

const (
	ConnRetryCount  = 500
	ConnRetryPeriod = 200 * time.Millisecond
)

const (
	// WaitPeerPeriod is the interval between two pings while a group is being created.
	WaitPeerPeriod = 200 * time.Millisecond
	ChunkSize      = 1 << 20
)

const (
	EnableStallDetectionEnvKey = `KUNGFU_CONFIG_ENABLE_STALL_DETECTION`
	LogLevelEnvKey             = `KUNGFU_CONFIG_LOG_LEVEL`
	UseUnixSockEnvKey          = `KUNGFU_CONFIG_USE_UNIX_SOCK`
	StallDetectionPeriodEnvKey = `KUNGFU_CONFIG_STALL_DETECTION_PERIOD`
)

var ConfigEnvKeys = []string{
	EnableStallDetectionEnvKey,
	LogLevelEnvKey,
	UseUnixSockEnvKey,
	StallDetectionPeriodEnvKey,
}

var (
	EnableStallDetection = false
	LogLevel             = `INFO`
	StallDetectionPeriod = 3 * time.Second
)

func init() {
	if val := os.Getenv(EnableStallDetectionEnvKey); len(val) > 0 {
		EnableStallDetection = isTrue(val)
	}
	if val := os.Getenv(StallDetectionPeriodEnvKey); len(val) > 0 {
		StallDetectionPeriod = parseDuration(val)
	}
	if val := os.Getenv(LogLevelEnvKey); len(val) > 0 {
		LogLevel = strings.ToUpper(val) // FIXME: check enum value
	}
	if val := os.Getenv(UseUnixSockEnvKey); len(val) > 0 {
		UseUnixSock = isTrue(val)
	}
}

func isTrue(val string) bool {
	ok, err := strconv.ParseBool(val)
	return err == nil && ok
}

func parseDuration(val string) time.Duration {
	d, err := time.ParseDuration(val)
	if err != nil {
		utils.ExitErr(err)
	}
	return d
}
