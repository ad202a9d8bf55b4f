package server

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/BioHazard786/screenrelay/internal/config"
	"github.com/BioHazard786/screenrelay/internal/signaling"
)

// PageConfig is the /config.json response body read by the companion pages.
type PageConfig struct {
	ICEServers []config.ICEServer `json:"iceServers"`
	Audio      bool               `json:"audio"`
}

func (s *Server) routes(static fs.FS) http.Handler {
	mux := http.NewServeMux()
	files := http.FileServerFS(static)

	mux.HandleFunc("/ws", s.ServeWs)
	mux.HandleFunc("GET /health", healthCheckHandler)
	mux.HandleFunc("GET /config.json", s.pageConfigHandler)
	mux.HandleFunc("GET /api/rooms", s.roomsHandler)
	mux.HandleFunc("GET /host", servePage(static, "host.html"))
	mux.HandleFunc("GET /viewer", servePage(static, "viewer.html"))

	// Older pages dial ws://host/ without a path, so an upgrade request
	// on any path is a signaling connection.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			s.ServeWs(w, r)
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		files.ServeHTTP(w, r)
	})

	return mux
}

// ServeWs upgrades the request and hands the connection to the hub.
func (s *Server) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("failed to upgrade connection", "remote", r.RemoteAddr, "err", err)
		return
	}

	client := signaling.NewClient(s.hub, conn, signaling.ClientOptions{
		MaxMessageBytes:   s.cfg.MaxMessageBytes,
		MessagesPerSecond: s.cfg.MessagesPerSecond,
	})
	if !s.hub.Register(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Signaling relay is healthy."))
}

func (s *Server) pageConfigHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	json.NewEncoder(w).Encode(PageConfig{
		ICEServers: s.cfg.ICEServers(),
		Audio:      s.cfg.CaptureAudio,
	})
}

func (s *Server) roomsHandler(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.RoomsAPI {
		http.NotFound(w, r)
		return
	}

	rooms := s.hub.Rooms()
	body := signaling.RoomList{Count: len(rooms), Rooms: rooms}
	w.Header().Set("Cache-Control", "no-store")

	if strings.Contains(r.Header.Get("Accept"), signaling.MsgpackContentType) {
		data, err := msgpack.Marshal(&body)
		if err != nil {
			s.log.Error("encode rooms", "err", err)
			http.Error(w, "encode failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", signaling.MsgpackContentType)
		w.Write(data)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

func servePage(static fs.FS, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, static, name)
	}
}
