package env

// Internal environment variables set by kungfu-run, users should not set them.
const (
	PeerListEnvKey          = `KUNGFU_INIT_PEERS`
	SelfSpecEnvKey          = `KUNGFU_SELF_SPEC` // self spec should never change during the life of a process
	AllReduceStrategyEnvKey = `KUNGFU_ALLREDUCE_STRATEGY`
	JobStartTimestampEnvKey = `KUNGFU_JOB_START_TIMESTAMP`
)

var BootstrapEnvKeys = []string{
	PeerListEnvKey,
	SelfSpecEnvKey,
	AllReduceStrategyEnvKey,
}
