package fs

import (
	"fmt"
	"os"
	"path"

	"github.com/pkg/sftp"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
)

type SFTPFileSystem struct {
	*sftp.Client
	sshClient *ssh.Client
	logger    *zap.Logger
}

// NewSFTPFileSystem wraps an established SFTP client. sshClient may be nil
// when the client was created over a plain pipe.
func NewSFTPFileSystem(client *sftp.Client, sshClient *ssh.Client, logger *zap.Logger) *SFTPFileSystem {
	return &SFTPFileSystem{
		Client:    client,
		sshClient: sshClient,
		logger:    logger.Named("fs"),
	}
}

func (s *SFTPFileSystem) Name() string {
	return "sftp"
}

// Canonicalize implements FileSystem. The SFTP realpath request does not
// resolve links on every server, so components are walked with Lstat.
func (s *SFTPFileSystem) Canonicalize(p string) (string, error) {
	if !path.IsAbs(p) {
		wd, err := s.Client.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		p = path.Join(wd, p)
	}
	return walkLinks(p, s.Client.Lstat, s.Client.ReadLink)
}

// Stat implements FileSystem.
func (s *SFTPFileSystem) Stat(p string) (os.FileInfo, error) {
	return s.Client.Stat(p)
}

// Lstat implements FileSystem.
func (s *SFTPFileSystem) Lstat(p string) (os.FileInfo, error) {
	return s.Client.Lstat(p)
}

// ReadDir implements FileSystem.
func (s *SFTPFileSystem) ReadDir(p string) ([]os.FileInfo, error) {
	files, err := s.Client.ReadDir(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	return files, nil
}

// Open implements FileSystem.
func (s *SFTPFileSystem) Open(p string) (File, error) {
	f, err := s.Client.Open(p)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Close releases the SFTP session and the SSH connection underneath it.
func (s *SFTPFileSystem) Close() error {
	err := s.Client.Close()
	if s.sshClient != nil {
		if sshErr := s.sshClient.Close(); err == nil {
			err = sshErr
		}
	}
	return err
}
