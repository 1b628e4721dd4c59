package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dirserve/service/fs"
)

type Server struct {
	addr    string
	backend fs.FileSystem
	engine  *gin.Engine
	http    *http.Server
	logger  *zap.Logger
}

// Handler returns the engine behind response compression.
func (s *Server) Handler() (http.Handler, error) {
	return compress(s.engine)
}

// Start listens in the background. The returned channel yields the
// listener's error, or nil after Shutdown.
func (s *Server) Start() (chan error, error) {
	handler, err := s.Handler()
	if err != nil {
		return nil, err
	}
	s.http = &http.Server{
		Addr:              s.addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	finishChan := make(chan error, 1)
	go func() {
		err := s.http.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		finishChan <- err
	}()
	s.logger.Info("started", zap.String("addr", s.addr))
	return finishChan, nil
}

// Shutdown drains in-flight requests and closes the backend.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}
	return errors.Join(err, s.backend.Close())
}
