// Package controller implements the HTTP surface: listing pages, file
// downloads, archives and the websocket endpoint.
package controller

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"dirserve/metrics"
	"dirserve/service/downloader"
	"dirserve/service/i18n"
	"dirserve/service/listing"
)

// Options carries the presentation settings of the listing page.
type Options struct {
	DefaultLang string
	Favicon     string
	// FontFamily is rendered into the page CSS unescaped and must come
	// from validated configuration.
	FontFamily   string
	ThemeColor   string
	ErrorPageURL string
	IdleTimeout  time.Duration
}

type Handler struct {
	resolver     *listing.Resolver
	translations *i18n.Loader
	downloader   downloader.Downloader
	client       *http.Client
	opts         Options
	logger       *zap.Logger
}

func New(resolver *listing.Resolver, translations *i18n.Loader, dl downloader.Downloader, opts Options, logger *zap.Logger) *Handler {
	if opts.DefaultLang == "" {
		opts.DefaultLang = "en"
	}
	return &Handler{
		resolver:     resolver,
		translations: translations,
		downloader:   dl,
		client:       &http.Client{Timeout: 10 * time.Second},
		opts:         opts,
		logger:       logger.Named("http"),
	}
}

// resolve wraps Resolver.Resolve and counts failures by kind.
func (h *Handler) resolve(rel string, kind listing.EntryKind) (*listing.Resolved, error) {
	resolved, err := h.resolver.Resolve(rel, kind)
	if err != nil {
		metrics.RecordResolveFailure(listing.ErrorKind(err))
	}
	return resolved, err
}
