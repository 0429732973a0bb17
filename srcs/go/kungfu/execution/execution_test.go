package execution

import (
	"sync"
	"testing"

	"github.com/lsds/kungfu-graph/srcs/go/plan"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func Test_ParSeq(t *testing.T) {
	pl := plan.PeerList{{IPv4: 1, Port: 1}, {IPv4: 1, Port: 2}, {IPv4: 1, Port: 3}}
	errBad := errors.New("bad")

	var mu sync.Mutex
	seen := make(map[plan.PeerID]bool)
	var f PeerFunc = func(p plan.PeerID) error {
		mu.Lock()
		defer mu.Unlock()
		seen[p] = true
		if p.Port == 2 {
			return errBad
		}
		return nil
	}
	assert.True(t, errors.Is(f.Par(pl), errBad))
	assert.Len(t, seen, 3, "Par runs every peer")

	seen = make(map[plan.PeerID]bool)
	assert.True(t, errors.Is(f.Seq(pl), errBad))
	assert.Len(t, seen, 2, "Seq stops at the first error")

	assert.NoError(t, PeerFunc(f).Par(nil))
}
