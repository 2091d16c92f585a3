package ssh

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/imamik/hacluster/internal/util/retry"
)

const (
	defaultPort        = 22
	defaultDialTimeout = 10 * time.Second
	defaultMaxRetries  = 60
	defaultRetryDelay  = 5 * time.Second
	defaultMaxDelay    = 10 * time.Second
)

// Config holds SSH client configuration.
type Config struct {
	Port       int
	User       string
	PrivateKey []byte

	// DialTimeout is the timeout for establishing the TCP connection.
	DialTimeout time.Duration

	// MaxRetries is the maximum number of dial retries.
	MaxRetries int

	// RetryDelay is the initial delay between dial attempts.
	RetryDelay time.Duration

	// Logger receives a line for every failed dial that will be retried.
	Logger Logger

	// HostKeyCallback handles host key verification.
	// If nil, ssh.InsecureIgnoreHostKey() is used; machines are created by
	// this tool and their host keys are not known in advance.
	HostKeyCallback ssh.HostKeyCallback
}

// Logger is the minimal logging interface used by the client.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Resolver maps a machine name to a reachable host address.
type Resolver interface {
	Address(ctx context.Context, machine string) (string, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, machine string) (string, error)

// Address implements Resolver.
func (f ResolverFunc) Address(ctx context.Context, machine string) (string, error) {
	return f(ctx, machine)
}

// Client executes commands on machines via SSH. It parses the private key
// once and opens a connection per call.
type Client struct {
	config   Config
	signer   ssh.Signer
	resolver Resolver
}

// NewClient creates a new SSH client and validates the private key.
func NewClient(cfg Config, resolver Resolver) (*Client, error) {
	if cfg.User == "" {
		return nil, fmt.Errorf("config user cannot be empty")
	}
	if len(cfg.PrivateKey) == 0 {
		return nil, fmt.Errorf("config private key cannot be empty")
	}
	if resolver == nil {
		return nil, fmt.Errorf("resolver cannot be nil")
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.HostKeyCallback == nil {
		cfg.HostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // machines are created by this tool
	}

	signer, err := ssh.ParsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return &Client{config: cfg, signer: signer, resolver: resolver}, nil
}

// Execute runs command on machine and returns stdout and stderr combined.
func (c *Client) Execute(ctx context.Context, machine, command string) (string, error) {
	return c.ExecuteWithInput(ctx, machine, command, nil)
}

// ExecuteWithInput runs command on machine with stdin as its input.
func (c *Client) ExecuteWithInput(ctx context.Context, machine, command string, stdin []byte) (string, error) {
	host, err := c.resolver.Address(ctx, machine)
	if err != nil {
		return "", fmt.Errorf("failed to resolve address of %s: %w", machine, err)
	}

	client, err := c.connect(ctx, host)
	if err != nil {
		return "", err
	}
	defer func() { _ = client.Close() }()

	return c.runCommand(ctx, client, machine, command, stdin)
}

// connect establishes an SSH connection with retry logic.
func (c *Client) connect(ctx context.Context, host string) (*ssh.Client, error) {
	config := &ssh.ClientConfig{
		User:            c.config.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(c.signer)},
		HostKeyCallback: c.config.HostKeyCallback,
		Timeout:         c.config.DialTimeout,
	}

	addr := net.JoinHostPort(host, strconv.Itoa(c.config.Port))
	var client *ssh.Client

	opts := []retry.Option{
		retry.WithMaxRetries(c.config.MaxRetries),
		retry.WithInitialDelay(c.config.RetryDelay),
		retry.WithMaxDelay(defaultMaxDelay),
	}
	if c.config.Logger != nil {
		opts = append(opts, retry.WithOnRetry(func(attempt int, err error) {
			c.config.Logger.Printf("[ssh] Dial %s failed (attempt %d/%d), retrying: %v", addr, attempt, c.config.MaxRetries+1, err)
		}))
	}

	err := retry.WithExponentialBackoff(ctx, func() error {
		var dialErr error
		client, dialErr = ssh.Dial("tcp", addr, config)
		if dialErr != nil && isAuthError(dialErr) {
			return retry.Fatal(dialErr)
		}
		return dialErr
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to establish SSH connection to %s: %w", addr, err)
	}
	return client, nil
}

// runCommand executes a command on an established connection. The session
// is closed when ctx is done.
func (c *Client) runCommand(ctx context.Context, client *ssh.Client, machine, command string, stdin []byte) (string, error) {
	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to create SSH session on %s: %w", machine, err)
	}
	defer func() { _ = session.Close() }()

	if stdin != nil {
		session.Stdin = bytes.NewReader(stdin)
	}
	output := &syncBuffer{}
	session.Stdout = output
	session.Stderr = output

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	select {
	case <-ctx.Done():
		_ = session.Close()
		return "", fmt.Errorf("command on %s interrupted: %w", machine, ctx.Err())
	case err := <-done:
		if err != nil {
			return output.String(), fmt.Errorf("command failed on %s: %w\nOutput: %s", machine, err, output.String())
		}
		return output.String(), nil
	}
}

// syncBuffer collects stdout and stderr, which are copied concurrently.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func isAuthError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "unable to authenticate")
}
