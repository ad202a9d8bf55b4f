package config

import (
	"strings"
	"testing"
	"time"

	"github.com/BioHazard786/screenrelay/internal/signaling"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"HOST", "PORT", "ROOM_ID_FORMAT", "MAX_VIEWERS", "MAX_MESSAGE_BYTES",
		"MAX_MESSAGES_PER_SECOND", "ALLOWED_ORIGINS", "CAPTURE_AUDIO",
		"STUN_SERVER", "TURN_SERVER", "TURN_USERNAME", "TURN_PASSWORD",
		"ROOMS_API", "SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != DefaultPort || cfg.Addr() != ":3000" {
		t.Fatalf("port=%d addr=%q", cfg.Port, cfg.Addr())
	}
	if cfg.RoomIDFormat != signaling.IDFormatUUID {
		t.Fatalf("format=%q", cfg.RoomIDFormat)
	}
	if cfg.MaxViewersPerRoom != 0 || cfg.RoomsAPI || cfg.CaptureAudio {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.MaxMessageBytes != DefaultMaxMessageBytes || cfg.MessagesPerSecond != 0 {
		t.Fatalf("limits: %d bytes, %d/s", cfg.MaxMessageBytes, cfg.MessagesPerSecond)
	}
	if cfg.STUNServer != DefaultSTUN || cfg.ShutdownTimeout != DefaultShutdownTimeout {
		t.Fatalf("stun=%q shutdown=%s", cfg.STUNServer, cfg.ShutdownTimeout)
	}
	if len(cfg.AllowedOrigins) != 0 {
		t.Fatalf("origins=%v", cfg.AllowedOrigins)
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "8080")
	t.Setenv("ROOM_ID_FORMAT", "words")
	t.Setenv("MAX_VIEWERS", "5")
	t.Setenv("MAX_MESSAGE_BYTES", "1024")
	t.Setenv("MAX_MESSAGES_PER_SECOND", "10")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, http://b.example.com:8080")
	t.Setenv("CAPTURE_AUDIO", "true")
	t.Setenv("ROOMS_API", "1")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr() != "127.0.0.1:8080" {
		t.Fatalf("addr=%q", cfg.Addr())
	}
	if cfg.RoomIDFormat != signaling.IDFormatWords || cfg.MaxViewersPerRoom != 5 {
		t.Fatalf("format=%q max=%d", cfg.RoomIDFormat, cfg.MaxViewersPerRoom)
	}
	if cfg.MaxMessageBytes != 1024 || cfg.MessagesPerSecond != 10 {
		t.Fatalf("limits: %d bytes, %d/s", cfg.MaxMessageBytes, cfg.MessagesPerSecond)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.example.com:8080" {
		t.Fatalf("origins=%v", cfg.AllowedOrigins)
	}
	if !cfg.CaptureAudio || !cfg.RoomsAPI || cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("audio=%v rooms=%v shutdown=%s", cfg.CaptureAudio, cfg.RoomsAPI, cfg.ShutdownTimeout)
	}
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("ROOM_ID_FORMAT", "words")
	t.Setenv("STUN_SERVER", "stun:env.example.com")

	cfg, err := Load(Options{Port: 9090, RoomIDFormat: "short", STUNServer: "stun:flag.example.com"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9090 || cfg.RoomIDFormat != signaling.IDFormatShort || cfg.STUNServer != "stun:flag.example.com" {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"bad port":          {"PORT", "http"},
		"port out of range": {"PORT", "70000"},
		"bad format":        {"ROOM_ID_FORMAT", "emoji"},
		"negative viewers":  {"MAX_VIEWERS", "-1"},
		"zero bytes":        {"MAX_MESSAGE_BYTES", "0"},
		"negative rate":     {"MAX_MESSAGES_PER_SECOND", "-5"},
		"bad origin":        {"ALLOWED_ORIGINS", "ftp://example.com"},
		"origin with path":  {"ALLOWED_ORIGINS", "https://example.com/app"},
		"bad bool":          {"CAPTURE_AUDIO", "sometimes"},
		"bad timeout":       {"SHUTDOWN_TIMEOUT", "soon"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			if _, err := Load(Options{}); err == nil {
				t.Fatalf("expected error for %s=%q", kv[0], kv[1])
			}
		})
	}
}

func TestNormalizeOrigin(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"https://Example.COM", "https://example.com", true},
		{"https://example.com:443", "https://example.com", true},
		{"http://example.com:80/", "http://example.com", true},
		{"http://example.com:8080", "http://example.com:8080", true},
		{"http://[::1]:3000", "http://[::1]:3000", true},
		{"http://[::1]", "http://[::1]", true},
		{"ws://example.com", "", false},
		{"example.com", "", false},
		{"https://example.com/path", "", false},
		{"null", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizeOrigin(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("NormalizeOrigin(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestOriginAllowed(t *testing.T) {
	open := &Config{}
	if !open.OriginAllowed("https://anything.example") {
		t.Fatalf("empty allow list must allow every origin")
	}

	cfg := &Config{AllowedOrigins: []string{"https://share.example.com"}}
	for origin, want := range map[string]bool{
		"":                              true,
		"https://share.example.com":     true,
		"https://SHARE.example.com:443": true,
		"http://share.example.com":      false,
		"https://evil.example.com":      false,
		"null":                          false,
	} {
		if got := cfg.OriginAllowed(origin); got != want {
			t.Errorf("OriginAllowed(%q) = %v, want %v", origin, got, want)
		}
	}
}

func TestICEServers(t *testing.T) {
	cfg := &Config{STUNServer: DefaultSTUN}
	if servers := cfg.ICEServers(); len(servers) != 1 || servers[0].URLs[0] != DefaultSTUN {
		t.Fatalf("servers=%+v", servers)
	}

	cfg.TURNServer = "turn:turn.example.com"
	cfg.TURNUser = "user"
	cfg.TURNPass = "pass"
	servers := cfg.ICEServers()
	if len(servers) != 2 {
		t.Fatalf("servers=%+v", servers)
	}
	turn := servers[1]
	if len(turn.URLs) != 2 || !strings.HasSuffix(turn.URLs[0], "?transport=udp") || !strings.HasSuffix(turn.URLs[1], "?transport=tcp") {
		t.Fatalf("turn urls=%v", turn.URLs)
	}
	if turn.Username != "user" || turn.Credential != "pass" {
		t.Fatalf("turn credentials=%+v", turn)
	}
}
