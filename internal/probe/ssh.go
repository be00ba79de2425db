// Package probe refreshes agentless servers over SSH. A probe runs a few
// read-only commands on the host and turns their output into the same report
// an agent check-in carries.
package probe

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vesaa/patchdeck/internal/config"
	"github.com/vesaa/patchdeck/internal/logging"
	"github.com/vesaa/patchdeck/internal/models"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Prober collects a check-in report from a host address.
type Prober interface {
	Probe(ctx context.Context, host string) (models.CheckIn, error)
}

// Commands run on the target, one per reported field.
const (
	cmdKernel  = "uname -r"
	cmdUptime  = "cat /proc/uptime"
	cmdOS      = `. /etc/os-release 2>/dev/null && echo "$NAME $VERSION_ID"`
	cmdPending = PendingUpdatesCommand
)

// PendingUpdatesCommand prints the number of upgradable packages on apt and
// dnf based hosts, and 0 elsewhere.
const PendingUpdatesCommand = `if command -v apt >/dev/null 2>&1; then apt list --upgradable 2>/dev/null | grep -c upgradable; ` +
	`elif command -v dnf >/dev/null 2>&1; then dnf -q check-update 2>/dev/null | grep -c '^[[:alnum:]]'; ` +
	`else echo 0; fi`

// AgentVersion is reported for servers refreshed over SSH.
const AgentVersion = "ssh"

// SSHProber dials hosts with key or password authentication.
type SSHProber struct {
	user    string
	auth    []ssh.AuthMethod
	hostKey ssh.HostKeyCallback
	timeout time.Duration
	log     *logrus.Entry
}

// NewSSHProber builds a prober from the ssh_* settings. It fails when neither
// a key nor a password is configured.
func NewSSHProber(cfg *config.Config, log logrus.FieldLogger) (*SSHProber, error) {
	var auth []ssh.AuthMethod
	if cfg.SSHKeyPath != "" {
		pem, err := os.ReadFile(cfg.SSHKeyPath)
		if err != nil {
			return nil, fmt.Errorf("reading SSH key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, fmt.Errorf("parsing SSH key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if cfg.SSHPassword != "" {
		auth = append(auth, ssh.Password(cfg.SSHPassword))
	}
	if len(auth) == 0 {
		return nil, errors.New("ssh_key_path or ssh_password is required for resync")
	}

	hostKey := ssh.InsecureIgnoreHostKey()
	if cfg.SSHKnownHosts != "" {
		cb, err := knownhosts.New(cfg.SSHKnownHosts)
		if err != nil {
			return nil, fmt.Errorf("loading known_hosts: %w", err)
		}
		hostKey = cb
	}

	timeout := cfg.SSHDialTimeout()
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &SSHProber{
		user:    cfg.SSHUser,
		auth:    auth,
		hostKey: hostKey,
		timeout: timeout,
		log:     logging.Component(log, "probe"),
	}, nil
}

// Probe connects to host and reads kernel, uptime, OS and pending updates.
// Kernel and uptime are required; OS and pending updates are best effort.
func (p *SSHProber) Probe(ctx context.Context, host string) (models.CheckIn, error) {
	client, err := p.dial(ctx, host)
	if err != nil {
		return models.CheckIn{}, err
	}
	defer client.Close()

	var report models.CheckIn
	kernel, err := client.Run(cmdKernel)
	if err != nil {
		return models.CheckIn{}, fmt.Errorf("%s [%s]: %w", cmdKernel, host, err)
	}
	report.KernelVersion = strings.TrimSpace(kernel)

	raw, err := client.Run(cmdUptime)
	if err != nil {
		return models.CheckIn{}, fmt.Errorf("%s [%s]: %w", cmdUptime, host, err)
	}
	if report.Uptime, err = ParseProcUptime(raw); err != nil {
		return models.CheckIn{}, fmt.Errorf("uptime [%s]: %w", host, err)
	}

	if out, err := client.Run(cmdOS); err == nil {
		report.OSType = strings.TrimSpace(out)
	}
	// grep -c exits 1 when it counts zero lines, so only the output matters.
	out, _ := client.Run(cmdPending)
	if n, ok := ParsePendingCount(out); ok {
		report.PendingUpdates = &n
	} else {
		p.log.WithField("host", host).Debugf("pending update count unavailable: %q", strings.TrimSpace(out))
	}

	report.AgentVersion = AgentVersion
	p.log.WithField("host", host).Infof("probed: kernel %s, up %s", report.KernelVersion, report.Uptime)
	return report, nil
}

func (p *SSHProber) dial(ctx context.Context, host string) (*sshClient, error) {
	addr := host
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(host, "22")
	}

	cfg := &ssh.ClientConfig{
		User:            p.user,
		Auth:            p.auth,
		HostKeyCallback: p.hostKey,
		Timeout:         p.timeout,
	}

	d := net.Dialer{Timeout: p.timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("SSH dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("SSH handshake %s: %w", addr, err)
	}
	return &sshClient{client: ssh.NewClient(c, chans, reqs)}, nil
}

// sshClient wraps an authenticated SSH connection.
type sshClient struct {
	client *ssh.Client
}

func (s *sshClient) Close() error { return s.client.Close() }

// Run executes a command and returns combined stdout+stderr.
func (s *sshClient) Run(cmd string) (string, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("new session: %w", err)
	}
	defer sess.Close()

	out, err := sess.CombinedOutput(cmd)
	return string(out), err
}
