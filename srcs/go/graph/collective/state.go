package collective

import (
	"sync/atomic"

	"github.com/lsds/kungfu-graph/srcs/go/log"
	"github.com/pkg/errors"
)

// State is the progress of one collective operator instance.
type State int32

const (
	Idle State = iota
	WaitingForPeers
	Exchanging
	Complete
	Failed
)

var stateNames = map[State]string{
	Idle:            "Idle",
	WaitingForPeers: "WaitingForPeers",
	Exchanging:      "Exchanging",
	Complete:        "Complete",
	Failed:          "Failed",
}

func (s State) String() string {
	return stateNames[s]
}

var ErrNotIdle = errors.New("operator instance already started")

type stateMachine struct {
	name  string
	state atomic.Int32
}

func (m *stateMachine) State() State {
	return State(m.state.Load())
}

func (m *stateMachine) transit(from, to State) bool {
	if m.state.CompareAndSwap(int32(from), int32(to)) {
		log.Debugf("%s: %s -> %s", m.name, from, to)
		return true
	}
	return false
}

// start moves Idle to WaitingForPeers. An instance runs at most once.
func (m *stateMachine) start() error {
	if !m.transit(Idle, WaitingForPeers) {
		return errors.Wrapf(ErrNotIdle, "%s is %s", m.name, m.State())
	}
	return nil
}

// exchanging is called on every message, only the first one changes the state.
func (m *stateMachine) exchanging() {
	m.transit(WaitingForPeers, Exchanging)
}

// finish moves to Complete or Failed according to err, and returns err.
func (m *stateMachine) finish(err error) error {
	from := m.State()
	if err != nil {
		m.transit(from, Failed)
		return err
	}
	m.transit(from, Complete)
	return nil
}
