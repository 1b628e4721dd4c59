package controller

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dirserve/metrics"
	"dirserve/service/listing"
)

// maxFaviconSize caps the body proxied from the FAVICON URL.
const maxFaviconSize = 1 << 20

// Download serves the file at "<lang>/<rest>". A bare trailing slash is
// treated as the listing route.
func (h *Handler) Download(c *gin.Context) {
	rest := c.Param("rest")
	if rest == "" || rest == "/" {
		h.Index(c)
		return
	}
	h.serveFile(c, c.Param("lang")+rest)
}

func (h *Handler) serveFile(c *gin.Context, rel string) {
	file, err := h.resolve(rel, listing.File)
	if err != nil {
		h.fail(c, err)
		return
	}

	f, info, err := h.downloader.Download(file)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer f.Close()

	disposition := "attachment"
	if info.Inline {
		disposition = "inline"
	}
	metrics.RecordDownload(disposition)

	c.Header("Content-Type", info.ContentType)
	c.Header("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": info.Name}))
	c.Header("X-Content-Type-Options", "nosniff")
	http.ServeContent(c.Writer, c.Request, info.Name, info.ModTime, f)
}

// Favicon proxies the configured FAVICON URL.
func (h *Handler) Favicon(c *gin.Context) {
	if h.opts.Favicon == "" {
		h.failStatus(c, http.StatusNotFound, fmt.Errorf("%w: favicon not configured", listing.ErrNotFound))
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, h.opts.Favicon, nil)
	if err != nil {
		h.failStatus(c, http.StatusInternalServerError, fmt.Errorf("failed to build favicon request: %w", err))
		return
	}
	resp, err := h.client.Do(req)
	if err != nil {
		h.failStatus(c, http.StatusBadGateway, fmt.Errorf("failed to fetch favicon: %w", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		h.failStatus(c, http.StatusBadGateway, fmt.Errorf("favicon upstream returned %s", resp.Status))
		return
	}
	if resp.ContentLength > maxFaviconSize {
		h.failStatus(c, http.StatusBadGateway, fmt.Errorf("favicon upstream sent %d bytes", resp.ContentLength))
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Header("Content-Type", "image/x-icon")
	c.Status(http.StatusOK)
	if c.Request.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(c.Writer, io.LimitReader(resp.Body, maxFaviconSize)); err != nil && !errors.Is(err, c.Request.Context().Err()) {
		c.Error(fmt.Errorf("favicon: %w", err))
		h.logger.Warn("favicon stream interrupted", zap.Error(err))
	}
}
