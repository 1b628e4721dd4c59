package websocket

import (
	"slices"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"dirserve/metrics"
)

const idleCheckInterval = 10 * time.Second

type Server struct {
	*Conn
	// written only before Start
	services       map[string]Service
	activeServices []string

	idleTimeout time.Duration
	lastActive  atomic.Int64
	done        chan struct{}
	logger      *zap.Logger
}

func (s *Server) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

func (s *Server) idle() time.Duration {
	return time.Since(time.Unix(0, s.lastActive.Load()))
}

func (s *Server) checkTimeout() {
	ticker := time.NewTicker(min(idleCheckInterval, s.idleTimeout))
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if s.idle() > s.idleTimeout {
				s.logger.Info("closing idle session", zap.Duration("idle", s.idle()))
				s.Close()
				return
			}
		}
	}
}

// Register adds a service whose messages keep the session alive.
func (s *Server) Register(service Service) {
	s.RegisterPassive(service)
	s.activeServices = append(s.activeServices, service.Name())
}

// RegisterPassive adds a service whose messages do not count as activity.
func (s *Server) RegisterPassive(service Service) {
	if _, exists := s.services[service.Name()]; exists {
		s.logger.Warn("service already registered", zap.String("service", service.Name()))
		return
	}

	service.Register(s.Conn)
	s.services[service.Name()] = service
}

// Start serves the session until the connection closes.
func (s *Server) Start() {
	metrics.WebsocketOpened()
	defer metrics.WebsocketClosed()

	if s.idleTimeout > 0 {
		go s.checkTimeout()
	}

	handled := make(chan struct{})
	go func() {
		defer close(handled)
		for msg := range s.TextMessage {
			if slices.Contains(s.activeServices, msg.Service) {
				s.touch()
			}
			service, exists := s.services[msg.Service]
			if !exists {
				s.WriteJSON(&ServiceMessage{Service: msg.Service, Id: msg.Id, Action: msg.Action, Error: "unknown service"})
				continue
			}
			service.HandleTextMessage(msg.Id, msg.Action, msg.Data)
		}
	}()

	err := s.StartDispatch()
	<-handled
	close(s.done)
	s.Close()

	s.logger.Debug("session closed", zap.Error(err))
	for _, service := range s.services {
		service.Cleanup(err)
	}
}
