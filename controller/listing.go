package controller

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dirserve/metrics"
	"dirserve/service/i18n"
	"dirserve/service/listing"
)

// RedirectToDefault sends "/" to the default language, keeping the query.
func (h *Handler) RedirectToDefault(c *gin.Context) {
	target := "/" + url.PathEscape(h.opts.DefaultLang)
	if q := c.Request.URL.RawQuery; q != "" {
		target += "?" + q
	}
	c.Redirect(http.StatusFound, target)
}

func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Index lists ?dir= when the first path segment names a translation and
// otherwise serves it as a root-level file.
func (h *Handler) Index(c *gin.Context) {
	lang := c.Param("lang")
	if !h.translations.Has(lang) {
		h.serveFile(c, lang)
		return
	}

	translations, err := h.translations.Load(lang)
	if err != nil {
		h.fail(c, err)
		return
	}

	dir, entries, err := h.list(c.Query("dir"), lang, translations)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"Lang":        lang,
		"Languages":   h.translations.Languages(),
		"T":           translations,
		"Dir":         dir.Rel,
		"Entries":     entries,
		"Empty":       len(entries) == 0 || (len(entries) == 1 && entries[0].Parent),
		"ArchiveLink": archiveLink(dir.Rel),
		"Favicon":     h.opts.Favicon != "",
		"FontFamily":  template.CSS(h.opts.FontFamily),
		"ThemeColor":  h.opts.ThemeColor,
	})
}

type listResponse struct {
	Dir     string          `json:"dir"`
	Lang    string          `json:"lang"`
	Entries []listing.Entry `json:"entries"`
}

// ListJSON serves the same listing as Index for scripts.
func (h *Handler) ListJSON(c *gin.Context) {
	lang := c.DefaultQuery("lang", h.opts.DefaultLang)
	translations, err := h.translations.Load(lang)
	if err != nil {
		h.failJSON(c, err)
		return
	}

	dir, entries, err := h.list(c.Query("dir"), lang, translations)
	if err != nil {
		h.failJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, &listResponse{Dir: dir.Rel, Lang: lang, Entries: entries})
}

func (h *Handler) list(rel, lang string, translations i18n.Translations) (*listing.Resolved, []listing.Entry, error) {
	dir, err := h.resolve(rel, listing.Directory)
	if err != nil {
		return nil, nil, err
	}
	entries, err := h.resolver.Enumerate(dir, listing.View{
		Lang:        lang,
		ParentLabel: translations.Get("Parent_Directory"),
	})
	if err != nil {
		return nil, nil, err
	}
	metrics.RecordListing(lang, len(entries))
	return dir, entries, nil
}

// Archive streams ?dir= as a zip file.
func (h *Handler) Archive(c *gin.Context) {
	dir, err := h.resolve(c.Query("dir"), listing.Directory)
	if err != nil {
		h.fail(c, err)
		return
	}

	reader, info, err := h.downloader.DownloadDir(dir)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer reader.Close()

	metrics.RecordDownload("archive")
	c.Header("Content-Type", info.ContentType)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": info.Name}))
	c.Status(http.StatusOK)

	// Headers are gone by now; a failure can only cut the stream short.
	if _, err := io.Copy(c.Writer, reader); err != nil && !errors.Is(err, c.Request.Context().Err()) {
		c.Error(fmt.Errorf("archive %s: %w", dir.Rel, err))
		h.logger.Warn("archive stream interrupted", zap.String("dir", dir.Rel), zap.Error(err))
	}
}

func archiveLink(rel string) string {
	if rel == "" {
		return "/_archive"
	}
	return "/_archive?dir=" + url.QueryEscape(rel)
}
