package websocket

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options configures a websocket session.
type Options struct {
	// IdleTimeout closes the session when no active service received a
	// message for this long. Zero disables the check.
	IdleTimeout time.Duration
	Logger      *zap.Logger
}

func NewServer(w http.ResponseWriter, r *http.Request, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("ws").With(zap.String("session", uuid.NewString()))

	conn, err := NewConn(w, r, logger)
	if err != nil {
		return nil, err
	}

	server := &Server{
		Conn:        conn,
		services:    make(map[string]Service),
		idleTimeout: opts.IdleTimeout,
		done:        make(chan struct{}),
		logger:      logger,
	}
	server.touch()

	return server, nil
}
