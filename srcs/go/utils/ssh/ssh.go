// Package ssh runs commands on remote hosts with golang.org/x/crypto/ssh.
package ssh

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"
)

var defaultTimeout = 8 * time.Second

var keyFiles = []string{"id_ed25519", "id_rsa"}

var errNoKey = errors.New("no usable private key")

// Config is a pair of user and host.
type Config struct {
	User    string
	Host    string
	KeyFile string // defaults to the first of ~/.ssh/id_ed25519 and ~/.ssh/id_rsa
}

func withDefaultPort(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, "22")
}

func withDefaultUser(name string) string {
	if len(name) == 0 {
		if u, err := user.Current(); err == nil {
			return u.Username
		}
	}
	return name
}

func completeConfig(config Config) Config {
	return Config{
		User:    withDefaultUser(config.User),
		Host:    withDefaultPort(config.Host),
		KeyFile: config.KeyFile,
	}
}

func loadSigner(config Config) (ssh.Signer, error) {
	files := []string{config.KeyFile}
	if len(config.KeyFile) == 0 {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(errNoKey, err.Error())
		}
		files = nil
		for _, name := range keyFiles {
			files = append(files, filepath.Join(home, ".ssh", name))
		}
	}
	for _, file := range files {
		buf, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		signer, err := ssh.ParsePrivateKey(buf)
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s", file)
		}
		return signer, nil
	}
	return nil, errors.Wrapf(errNoKey, "tried %q", files)
}

// Client is a connection to one remote host.
type Client struct {
	config Config
	client *ssh.Client
}

// New dials the host of cfg. The dial is canceled with ctx.
func New(ctx context.Context, cfg Config) (*Client, error) {
	cfg = completeConfig(cfg)
	signer, err := loadSigner(cfg)
	if err != nil {
		return nil, err
	}
	clientConfig := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         defaultTimeout,
	}
	d := net.Dialer{Timeout: defaultTimeout}
	conn, err := d.DialContext(ctx, "tcp", cfg.Host)
	if err != nil {
		return nil, err
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, cfg.Host, clientConfig)
	if err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "ssh %s@%s", cfg.User, cfg.Host)
	}
	return &Client{config: cfg, client: ssh.NewClient(c, chans, reqs)}, nil
}

func (c *Client) String() string {
	return fmt.Sprintf("%s@%s", c.config.User, c.config.Host)
}

// Watch runs cmd and passes its stdout and stderr to the watchers until it exits.
// When ctx is done the session is closed, which hangs up the remote command.
// Watchers that were started have returned when Watch returns.
func (c *Client) Watch(ctx context.Context, cmd string, stdoutWatcher, stderrWatcher func(io.Reader)) error {
	session, err := c.client.NewSession()
	if err != nil {
		return err
	}
	defer session.Close()
	stdout, err := session.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := session.StderrPipe()
	if err != nil {
		return err
	}
	// A pty makes the remote command receive SIGHUP when the session is closed.
	if err := session.RequestPty("xterm", 80, 40, ssh.TerminalModes{}); err != nil {
		return err
	}
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { stdoutWatcher(stdout); wg.Done() }()
	go func() { stderrWatcher(stderr); wg.Done() }()
	if err := session.Start(cmd); err != nil {
		session.Close()
		wg.Wait()
		return err
	}
	done := make(chan error, 1)
	go func() {
		wg.Wait() // before session.Wait()
		done <- session.Wait()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		session.Close()
		<-done
		return ctx.Err()
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}
