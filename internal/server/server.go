package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/BioHazard786/screenrelay/internal/config"
	"github.com/BioHazard786/screenrelay/internal/signaling"
	"github.com/BioHazard786/screenrelay/web"
)

// Server is the relay's HTTP surface: signaling websocket, health, page config,
// the optional rooms API and the companion pages.
type Server struct {
	cfg      *config.Config
	log      *slog.Logger
	hub      *signaling.Hub
	upgrader websocket.Upgrader
	http     *http.Server

	hubCancel context.CancelFunc
}

// New wires a Directory, Router and Hub from cfg. Call Serve to start it.
func New(cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	dir := signaling.NewDirectory(signaling.DirectoryOptions{
		NewRoomID:  cfg.RoomIDFormat.Generator(),
		MaxViewers: cfg.MaxViewersPerRoom,
	})
	hub := signaling.NewHub(signaling.NewRouter(dir, logger), logger)

	s := &Server{
		cfg: cfg,
		log: logger,
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 4 * 1024,
			CheckOrigin: func(r *http.Request) bool {
				return cfg.OriginAllowed(r.Header.Get("Origin"))
			},
		},
	}
	s.http = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.routes(web.Static()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Hub returns the hub driving the relay.
func (s *Server) Hub() *signaling.Hub {
	return s.hub
}

// Serve starts the hub and serves HTTP on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.Start()
	s.log.Info("signaling relay listening", "addr", ln.Addr().String())
	err := s.http.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Start runs the hub without serving HTTP. Serve calls it; tests that mount
// Handler on their own server call it directly.
func (s *Server) Start() {
	if s.hubCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.hubCancel = cancel
	go s.hub.Run(ctx)
}

// Shutdown stops accepting requests, closes every signaling connection and
// waits for the hub to stop, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	if s.hubCancel != nil {
		s.hubCancel()
		select {
		case <-s.hub.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
