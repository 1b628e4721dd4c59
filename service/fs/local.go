package fs

import (
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

type LocalFileSystem struct {
	logger *zap.Logger
}

func NewLocalFileSystem(logger *zap.Logger) *LocalFileSystem {
	return &LocalFileSystem{logger: logger.Named("fs")}
}

func (l *LocalFileSystem) Name() string {
	return "local"
}

// Canonicalize implements FileSystem. Links are walked like the SFTP
// backend does, so loops end in ErrTooManyLinks on both.
func (l *LocalFileSystem) Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(filepath.FromSlash(path))
	if err != nil {
		return "", err
	}
	return walkLinks(filepath.ToSlash(abs), l.Lstat, func(p string) (string, error) {
		return os.Readlink(filepath.FromSlash(p))
	})
}

// Stat implements FileSystem.
func (l *LocalFileSystem) Stat(path string) (os.FileInfo, error) {
	return os.Stat(filepath.FromSlash(path))
}

// Lstat implements FileSystem.
func (l *LocalFileSystem) Lstat(path string) (os.FileInfo, error) {
	return os.Lstat(filepath.FromSlash(path))
}

// ReadDir implements FileSystem.
func (l *LocalFileSystem) ReadDir(path string) ([]os.FileInfo, error) {
	dirEntries, err := os.ReadDir(filepath.FromSlash(path))
	if err != nil {
		return nil, err
	}

	infos := make([]os.FileInfo, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		info, err := dirEntry.Info()
		if errors.Is(err, iofs.ErrNotExist) {
			l.logger.Debug("entry vanished during read", zap.String("dir", path), zap.String("name", dirEntry.Name()))
			continue
		}
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Open implements FileSystem.
func (l *LocalFileSystem) Open(path string) (File, error) {
	return os.Open(filepath.FromSlash(path))
}

func (l *LocalFileSystem) Close() error {
	return nil
}
