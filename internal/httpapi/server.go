package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shiwa/ntpsync/internal/logger"
)

// Server HTTP сервер API.
type Server struct {
	log      logger.Logger
	srv      *http.Server
	listener net.Listener
}

// NewServer router обычно получен из NewRouter.
func NewServer(router *gin.Engine, log logger.Logger) *Server {
	return &Server{
		log: log,
		srv: &http.Server{Handler: router, ReadHeaderTimeout: 5 * time.Second},
	}
}

// Start слушает addr и обслуживает запросы в фоне.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.log.Writef("HTTP API listening on %s", ln.Addr())
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Writef("HTTP API stopped: %v", err)
		}
	}()
	return nil
}

// Addr адрес, на котором сервер слушает; nil до Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown останавливает сервер, дожидаясь активных запросов до отмены ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
