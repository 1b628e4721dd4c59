package downloader

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"

	"go.uber.org/zap"

	"dirserve/service/listing"
)

// DownloadDir streams dir as a zip archive. Hidden and ignored entries are
// left out and symbolic links are not followed.
func (d *FileDownloader) DownloadDir(dir *listing.Resolved) (io.ReadCloser, *FileInfo, error) {
	if dir == nil || dir.Kind != listing.Directory {
		return nil, nil, fmt.Errorf("%w: path is not a directory", listing.ErrNotFound)
	}

	name := path.Base(dir.Path)
	if dir.IsRoot() {
		name = "root"
	}

	// Create pipes for streaming zip content
	pr, pw := io.Pipe()

	go func() {
		zw := zip.NewWriter(pw)
		err := d.addDir(zw, dir.Path, "")
		if closeErr := zw.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			d.logger.Warn("archive aborted", zap.String("dir", dir.Rel), zap.Error(err))
		}
		pw.CloseWithError(err)
	}()

	return pr, &FileInfo{
		Name:        name + ".zip",
		ModTime:     dir.Info.ModTime(),
		ContentType: "application/zip",
	}, nil
}

func (d *FileDownloader) addDir(zw *zip.Writer, dirPath, prefix string) error {
	infos, err := d.fs.ReadDir(dirPath)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, info := range infos {
		if !d.resolver.Visible(info.Name()) || info.Mode()&os.ModeSymlink != 0 {
			continue
		}
		fullPath := path.Join(dirPath, info.Name())
		relPath := path.Join(prefix, info.Name())

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return fmt.Errorf("failed to create zip header: %w", err)
		}
		header.Name = relPath

		if info.IsDir() {
			header.Name += "/"
			if _, err := zw.CreateHeader(header); err != nil {
				return fmt.Errorf("failed to create directory in zip: %w", err)
			}
			if err := d.addDir(zw, fullPath, relPath); err != nil {
				return err
			}
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		header.Method = zip.Deflate
		writer, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("failed to create file in zip: %w", err)
		}
		if err := d.copyFile(writer, fullPath); err != nil {
			return err
		}
	}
	return nil
}

func (d *FileDownloader) copyFile(w io.Writer, p string) error {
	file, err := d.fs.Open(p)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(w, file); err != nil {
		return fmt.Errorf("failed to copy file content: %w", err)
	}
	return nil
}
