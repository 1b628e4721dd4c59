package fs

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const (
	BackendLocal = "local"
	BackendSFTP  = "sftp"
)

// SFTPConfig describes the remote host serving the listing root.
type SFTPConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	KnownHosts string
	Timeout    time.Duration
}

// New opens the backend named by backend.
func New(backend string, cfg SFTPConfig, logger *zap.Logger) (FileSystem, error) {
	switch backend {
	case "", BackendLocal:
		return NewLocalFileSystem(logger), nil
	case BackendSFTP:
		return DialSFTP(cfg, logger)
	}
	return nil, fmt.Errorf("unknown backend: %s", backend)
}

// DialSFTP connects to cfg.Host over SSH and starts an SFTP session on it.
func DialSFTP(cfg SFTPConfig, logger *zap.Logger) (*SFTPFileSystem, error) {
	if cfg.Host == "" || cfg.User == "" {
		return nil, fmt.Errorf("sftp backend needs a host and a user")
	}
	if cfg.Port == 0 {
		cfg.Port = 22
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if cfg.KnownHosts != "" {
		cb, err := knownhosts.New(cfg.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts: %w", err)
		}
		hostKeyCallback = cb
	} else {
		logger.Warn("sftp host key verification disabled", zap.String("host", cfg.Host))
	}

	clientConfig := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(cfg.Password)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         cfg.Timeout,
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	sshClient, err := ssh.Dial("tcp", addr, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("failed to create sftp client: %w", err)
	}

	logger.Info("sftp backend connected", zap.String("addr", addr), zap.String("user", cfg.User))
	return NewSFTPFileSystem(sftpClient, sshClient, logger), nil
}
