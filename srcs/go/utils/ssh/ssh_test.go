package ssh

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func Test_completeConfig(t *testing.T) {
	c := completeConfig(Config{User: "u", Host: "node1"})
	assert.Equal(t, "node1:22", c.Host)
	c = completeConfig(Config{User: "u", Host: "node1:2222"})
	assert.Equal(t, "node1:2222", c.Host)
	assert.Equal(t, "u", c.User)
}

func Test_loadSigner(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	block, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)
	file := filepath.Join(t.TempDir(), "id")
	require.NoError(t, os.WriteFile(file, pem.EncodeToMemory(block), 0600))

	signer, err := loadSigner(Config{KeyFile: file})
	require.NoError(t, err)
	assert.Equal(t, ssh.KeyAlgoED25519, signer.PublicKey().Type())

	_, err = loadSigner(Config{KeyFile: filepath.Join(t.TempDir(), "missing")})
	assert.True(t, errors.Is(err, errNoKey))
}
