// Package server arma las dependencias a partir de la configuración y corre el HTTP server.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dropDatabas3/trustcore/internal/observability/logger"
	"golang.org/x/sync/errgroup"
)

// Server envuelve http.Server con apagado ordenado al cancelar el contexto.
type Server struct {
	srv             *http.Server
	shutdownTimeout time.Duration
}

type Options struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration // default 10s
}

func New(addr string, h http.Handler, o Options) *Server {
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = 10 * time.Second
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadTimeout:       o.ReadTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      o.WriteTimeout,
		},
		shutdownTimeout: o.ShutdownTimeout,
	}
}

// Run escucha en Addr hasta que ctx se cancele.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve atiende ln hasta que ctx se cancele o el server falle. Retorna nil en un apagado normal.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log := logger.L().With(logger.Component("http.server"))
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http listening", logger.String("addr", ln.Addr().String()))
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		log.Info("http shutting down")
		return s.srv.Shutdown(sctx)
	})
	return g.Wait()
}
