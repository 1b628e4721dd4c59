package server

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	"dirserve/config"
	"dirserve/controller"
	"dirserve/logging"
	"dirserve/metrics"
	"dirserve/service/downloader"
	"dirserve/service/fs"
	"dirserve/service/i18n"
	"dirserve/service/listing"
	"dirserve/web"
)

const dialTimeout = 10 * time.Second

// New opens the configured backend and builds the HTTP server on top of it.
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	backend, err := fs.New(cfg.Backend, fs.SFTPConfig{
		Host:       cfg.SFTP.Host,
		Port:       cfg.SFTP.Port,
		User:       cfg.SFTP.User,
		Password:   cfg.SFTP.Password,
		KnownHosts: cfg.SFTP.KnownHosts,
		Timeout:    dialTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	resolver, err := listing.NewResolver(backend, listing.Options{
		Root:   cfg.Root,
		Ignore: cfg.IgnoreFiles,
	})
	if err != nil {
		backend.Close()
		return nil, err
	}

	translations := i18n.Default()
	if cfg.LanguagesDir != "" {
		translations = i18n.NewDirLoader(cfg.LanguagesDir)
	}
	if !translations.Has(cfg.DefaultLang) {
		backend.Close()
		return nil, fmt.Errorf("no translation for default language %q", cfg.DefaultLang)
	}

	handler := controller.New(resolver, translations, downloader.New(resolver, logger), controller.Options{
		DefaultLang:  cfg.DefaultLang,
		Favicon:      cfg.Favicon,
		FontFamily:   cfg.FontFamily,
		ThemeColor:   cfg.ThemeColor,
		ErrorPageURL: cfg.ErrorPageURL,
		IdleTimeout:  time.Duration(cfg.IdleTimeout),
	}, logger)

	engine, err := NewEngine(handler, logger)
	if err != nil {
		backend.Close()
		return nil, err
	}

	logger.Info("serving directory",
		zap.String("root", resolver.Root()),
		zap.String("backend", backend.Name()),
		zap.Strings("languages", translations.Languages()),
	)

	return &Server{
		addr:    cfg.Addr(),
		backend: backend,
		engine:  engine,
		logger:  logger,
	}, nil
}

// NewEngine builds the gin engine with middleware, templates and routes.
func NewEngine(handler *controller.Handler, logger *zap.Logger) (*gin.Engine, error) {
	tmpl, err := web.Templates(template.FuncMap{
		"listLink": listing.ListLink,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	engine := gin.New()
	engine.Use(logging.Recovery(logger), logging.Middleware(logger), metrics.Middleware())
	engine.SetHTMLTemplate(tmpl)
	controller.SetupRoutes(engine, handler)
	return engine, nil
}

// compress gzips responses except websocket upgrades and range requests,
// whose byte offsets refer to the uncompressed file.
func compress(next http.Handler) (http.Handler, error) {
	wrapper, err := gzhttp.NewWrapper(gzhttp.MinSize(1024))
	if err != nil {
		return nil, err
	}
	gz := wrapper(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" || r.Header.Get("Range") != "" {
			next.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	}), nil
}
