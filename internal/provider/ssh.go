package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/provost-dev/provost/internal/util/retry"
)

// SSHProvider executes catalog actions over SSH. Dialing is retried with
// backoff because targets are routinely mid-boot when a pipeline reaches
// them; command execution itself is never retried here, that is the
// readiness poller's job.
type SSHProvider struct {
	// DialTimeout bounds a single connection attempt.
	DialTimeout time.Duration

	// DialAttempts is the total dial attempt budget per invocation.
	DialAttempts int
}

// NewSSHProvider returns an SSH provider with default dial behavior.
func NewSSHProvider() *SSHProvider {
	return &SSHProvider{
		DialTimeout:  10 * time.Second,
		DialAttempts: 3,
	}
}

// Invoke implements Provider.
func (p *SSHProvider) Invoke(ctx context.Context, inv Invocation) (Result, error) {
	command, err := renderCommand(inv.Action.Name, inv.Action.Params)
	if err != nil {
		return Result{}, err
	}

	config, err := p.clientConfig(inv)
	if err != nil {
		return Result{}, err
	}

	addr := fmt.Sprintf("%s:%d", inv.Target.Address, inv.Target.Port)

	var conn *ssh.Client
	dialErr := retry.Do(ctx, func() error {
		var err error
		conn, err = ssh.Dial("tcp", addr, config)
		return err
	}, retry.WithAttempts(p.DialAttempts), retry.WithInitialDelay(2*time.Second))
	if dialErr != nil {
		return Result{}, fmt.Errorf("%w: dialing %s: %v", ErrUnreachable, addr, dialErr)
	}
	defer conn.Close()

	session, err := conn.NewSession()
	if err != nil {
		return Result{}, fmt.Errorf("%w: opening session on %s: %v", ErrUnreachable, addr, err)
	}
	defer session.Close()

	output, err := session.CombinedOutput(command)
	if err != nil {
		return Result{}, fmt.Errorf("action %s on %s: %w, output: %s",
			inv.Action.Name, inv.Target.Name, err, strings.TrimSpace(string(output)))
	}

	return parseOutput(string(output)), nil
}

func (p *SSHProvider) clientConfig(inv Invocation) (*ssh.ClientConfig, error) {
	var methods []ssh.AuthMethod

	if len(inv.Credential.PrivateKey) > 0 {
		signer, err := ssh.ParsePrivateKey(inv.Credential.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key for %s: %w", inv.Target.Name, err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	if inv.Credential.Password != "" {
		methods = append(methods, ssh.Password(inv.Credential.Password))
	}
	if len(methods) == 0 {
		return nil, fmt.Errorf("no usable auth method for %s", inv.Target.Name)
	}

	user := inv.Credential.User
	if user == "" {
		user = inv.Target.User
	}

	return &ssh.ClientConfig{
		User: user,
		Auth: methods,
		// Targets are freshly provisioned VMs with generated host keys.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // #nosec G106
		Timeout:         p.DialTimeout,
	}, nil
}

// parseOutput interprets the apply helper's stdout contract. Marker lines
// report state transitions; everything else is diagnostic text.
func parseOutput(output string) Result {
	var res Result
	var diag []string

	for _, line := range strings.Split(output, "\n") {
		switch strings.TrimSpace(line) {
		case "changed":
			res.Changed = true
		case "reboot-required":
			res.RebootRequired = true
		case "":
		default:
			diag = append(diag, strings.TrimSpace(line))
		}
	}

	res.Diagnostic = strings.Join(diag, "; ")
	return res
}
