package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BioHazard786/screenrelay/internal/signaling"
)

// Default configuration values
const (
	DefaultPort              = 3000
	DefaultRoomIDFormat      = signaling.IDFormatUUID
	DefaultSTUN              = "stun:stun.l.google.com:19302"
	DefaultMaxMessageBytes   = signaling.DefaultMaxMessageBytes
	DefaultMessagesPerSecond = signaling.DefaultMessagesPerSecond
	DefaultShutdownTimeout   = 10 * time.Second
)

// Config holds the relay server configuration
type Config struct {
	// Host is the bind address; empty means all interfaces.
	Host string
	Port int

	RoomIDFormat      signaling.IDFormat
	MaxViewersPerRoom int

	// Per-connection inbound limits. MessagesPerSecond of 0 disables throttling.
	MaxMessageBytes   int64
	MessagesPerSecond int

	// AllowedOrigins lists normalised browser origins (scheme://host[:port]).
	// Empty allows every origin.
	AllowedOrigins []string

	// CaptureAudio is published to the companion pages.
	CaptureAudio bool

	// ICE servers published to the companion pages.
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string

	RoomsAPI        bool
	ShutdownTimeout time.Duration
}

// Options carries CLI flag overrides. Zero values defer to the environment.
type Options struct {
	Host              string
	Port              int
	RoomIDFormat      string
	MaxViewersPerRoom int
	AllowedOrigins    string
	CaptureAudio      bool
	STUNServer        string
	TURNServer        string
	TURNUser          string
	TURNPass          string
	RoomsAPI          bool
}

// ICEServer mirrors the browser RTCIceServer dictionary.
type ICEServer struct {
	URLs       []string `json:"urls"`
	Username   string   `json:"username,omitempty"`
	Credential string   `json:"credential,omitempty"`
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	cfg := &Config{
		Host:            firstNonEmpty(opts.Host, os.Getenv("HOST")),
		STUNServer:      firstNonEmpty(opts.STUNServer, os.Getenv("STUN_SERVER"), DefaultSTUN),
		TURNServer:      firstNonEmpty(opts.TURNServer, os.Getenv("TURN_SERVER")),
		TURNUser:        firstNonEmpty(opts.TURNUser, os.Getenv("TURN_USERNAME")),
		TURNPass:        firstNonEmpty(opts.TURNPass, os.Getenv("TURN_PASSWORD")),
		ShutdownTimeout: DefaultShutdownTimeout,
	}

	var err error

	// Port: CLI flag > env > default
	cfg.Port = opts.Port
	if cfg.Port == 0 {
		if cfg.Port, err = envInt("PORT", DefaultPort); err != nil {
			return nil, err
		}
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port %d out of range", cfg.Port)
	}

	format := firstNonEmpty(opts.RoomIDFormat, os.Getenv("ROOM_ID_FORMAT"), string(DefaultRoomIDFormat))
	if cfg.RoomIDFormat, err = signaling.ParseIDFormat(format); err != nil {
		return nil, err
	}

	cfg.MaxViewersPerRoom = opts.MaxViewersPerRoom
	if cfg.MaxViewersPerRoom == 0 {
		if cfg.MaxViewersPerRoom, err = envInt("MAX_VIEWERS", 0); err != nil {
			return nil, err
		}
	}
	if cfg.MaxViewersPerRoom < 0 {
		return nil, fmt.Errorf("max viewers must not be negative")
	}

	maxBytes, err := envInt("MAX_MESSAGE_BYTES", DefaultMaxMessageBytes)
	if err != nil {
		return nil, err
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("MAX_MESSAGE_BYTES must be positive")
	}
	cfg.MaxMessageBytes = int64(maxBytes)

	if cfg.MessagesPerSecond, err = envInt("MAX_MESSAGES_PER_SECOND", DefaultMessagesPerSecond); err != nil {
		return nil, err
	}
	if cfg.MessagesPerSecond < 0 {
		return nil, fmt.Errorf("MAX_MESSAGES_PER_SECOND must not be negative")
	}

	origins := firstNonEmpty(opts.AllowedOrigins, os.Getenv("ALLOWED_ORIGINS"))
	if cfg.AllowedOrigins, err = ParseOrigins(origins); err != nil {
		return nil, err
	}

	cfg.CaptureAudio = opts.CaptureAudio
	if !cfg.CaptureAudio {
		if cfg.CaptureAudio, err = envBool("CAPTURE_AUDIO"); err != nil {
			return nil, err
		}
	}

	cfg.RoomsAPI = opts.RoomsAPI
	if !cfg.RoomsAPI {
		if cfg.RoomsAPI, err = envBool("ROOMS_API"); err != nil {
			return nil, err
		}
	}

	if raw := os.Getenv("SHUTDOWN_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT %q", raw)
		}
		cfg.ShutdownTimeout = d
	}

	return cfg, nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ICEServers returns the STUN and TURN servers for peers to use.
func (c *Config) ICEServers() []ICEServer {
	var servers []ICEServer
	if c.STUNServer != "" {
		servers = append(servers, ICEServer{URLs: []string{c.STUNServer}})
	}
	if c.TURNServer != "" {
		servers = append(servers, ICEServer{
			URLs: []string{
				fmt.Sprintf("%s:3478?transport=udp", c.TURNServer),
				fmt.Sprintf("%s:3478?transport=tcp", c.TURNServer),
			},
			Username:   c.TURNUser,
			Credential: c.TURNPass,
		})
	}
	return servers
}

// OriginAllowed reports whether a browser Origin header may open a channel.
// Requests without an Origin header come from non-browser clients and pass.
func (c *Config) OriginAllowed(origin string) bool {
	if len(c.AllowedOrigins) == 0 || origin == "" {
		return true
	}
	normalized, ok := NormalizeOrigin(origin)
	if !ok {
		return false
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == normalized {
			return true
		}
	}
	return false
}

// ParseOrigins splits a comma separated origin list and normalises each entry.
func ParseOrigins(raw string) ([]string, error) {
	var origins []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		normalized, ok := NormalizeOrigin(part)
		if !ok {
			return nil, fmt.Errorf("invalid origin %q", part)
		}
		origins = append(origins, normalized)
	}
	return origins, nil
}

// NormalizeOrigin lower-cases scheme and host and strips default ports.
func NormalizeOrigin(origin string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil || u.Host == "" || (u.Path != "" && u.Path != "/") {
		return "", false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", false
	}

	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return scheme + "://" + host, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func envInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

func envBool(key string) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return b, nil
}
