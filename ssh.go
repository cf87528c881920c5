package pullsync

import (
	"fmt"
	"os/user"
	"strings"
	"time"

	"github.com/alexhunt7/ssher"
	"golang.org/x/crypto/ssh"
)

type SSHOpts struct {
	// ConfigPath is an alternate ssh config file; empty uses ~/.ssh/config.
	ConfigPath string
	// Password, if set, is offered after the keys found through the ssh
	// config and agent.
	Password string
	Timeout  time.Duration
}

// SplitTarget splits "user@host" into its parts. An omitted user is the
// current local user.
func SplitTarget(target string) (string, string, error) {
	if username, host, ok := strings.Cut(target, "@"); ok {
		return username, host, nil
	}

	current, err := user.Current()
	if err != nil {
		return "", "", fmt.Errorf("failed to determine local username: %w", err)
	}
	return current.Username, target, nil
}

// OpenSSH connects to target ("[user@]host"). Host keys are accepted
// without verification.
func OpenSSH(target string, opts SSHOpts) (*ssh.Client, error) {
	username, host, err := SplitTarget(target)
	if err != nil {
		return nil, err
	}

	sshConfig, hostPort, err := ssher.ClientConfig(host, opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if strings.Contains(target, "@") || sshConfig.User == "" {
		sshConfig.User = username
	}
	if opts.Password != "" {
		sshConfig.Auth = append(sshConfig.Auth, ssh.Password(opts.Password))
	}
	if opts.Timeout > 0 {
		sshConfig.Timeout = opts.Timeout
	}
	sshConfig.HostKeyCallback = ssh.InsecureIgnoreHostKey()
	return ssh.Dial("tcp", hostPort, sshConfig)
}
