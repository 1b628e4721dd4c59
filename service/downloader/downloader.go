package downloader

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"dirserve/service/fs"
	"dirserve/service/listing"
)

// inlineTypes are the top-level media types browsers are allowed to display.
var inlineTypes = map[string]bool{
	"image":       true,
	"audio":       true,
	"video":       true,
	"text":        true,
	"application": true,
}

// FileInfo represents metadata about a download
type FileInfo struct {
	Name        string
	Size        int64
	ModTime     time.Time
	ContentType string
	// Inline is false when the file must be sent as an attachment.
	Inline bool
}

// Downloader defines the interface for downloading resolved paths
type Downloader interface {
	// Download opens a resolved regular file for streaming
	Download(file *listing.Resolved) (fs.File, *FileInfo, error)

	// DownloadDir streams a resolved directory as a zip archive
	DownloadDir(dir *listing.Resolved) (io.ReadCloser, *FileInfo, error)
}

type FileDownloader struct {
	resolver *listing.Resolver
	fs       fs.FileSystem
	logger   *zap.Logger
}

func New(resolver *listing.Resolver, logger *zap.Logger) *FileDownloader {
	return &FileDownloader{
		resolver: resolver,
		fs:       resolver.FileSystem(),
		logger:   logger.Named("downloader"),
	}
}

func (d *FileDownloader) Download(file *listing.Resolved) (fs.File, *FileInfo, error) {
	if file == nil || file.Kind != listing.File {
		return nil, nil, fmt.Errorf("%w: not a file", listing.ErrNotFound)
	}

	f, err := d.fs.Open(file.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to get file info: %w", err)
	}

	if info.IsDir() {
		f.Close()
		return nil, nil, fmt.Errorf("%w: path is a directory, use DownloadDir instead", listing.ErrNotFound)
	}

	result := &FileInfo{
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
	if err := d.detectType(f, result); err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, result, nil
}

// detectType fills in the content type and disposition. Only files whose
// extension maps to a displayable type are served inline; anything else is
// sniffed for a better Content-Type but still sent as an attachment.
func (d *FileDownloader) detectType(f fs.File, info *FileInfo) error {
	if ctype := listing.MimeType(info.Name); ctype != "" {
		top, _, _ := strings.Cut(ctype, "/")
		info.ContentType = ctype
		info.Inline = inlineTypes[top]
		return nil
	}

	info.ContentType = "application/octet-stream"
	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		d.logger.Debug("content sniffing failed", zap.String("name", info.Name), zap.Error(err))
	} else {
		info.ContentType = mtype.String()
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind file: %w", err)
	}
	return nil
}
