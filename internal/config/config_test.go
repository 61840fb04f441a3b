package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Bus.Servers[0] != "nats://localhost:4222" {
		t.Fatalf("expected default server, got %v", cfg.Bus.Servers)
	}
	if cfg.Session.HealthIntervalMS != 10000 {
		t.Fatalf("expected 10s health interval, got %d", cfg.Session.HealthIntervalMS)
	}
	if cfg.Session.AutoVoiceThreshold != 0.7 {
		t.Fatalf("expected auto voice threshold 0.7, got %v", cfg.Session.AutoVoiceThreshold)
	}
	if cfg.Translation.SequenceWindowMS != 3000 {
		t.Fatalf("expected 3s sequence window, got %d", cfg.Translation.SequenceWindowMS)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signbridge.yaml")
	data := []byte(`runtime_name: edge-1
session:
  health_interval_ms: 2500
  stage_timeout_ms: 4000
gesture:
  mode: exec
  command: "python3 detect.py --json"
tts:
  voices:
    - id: de-DE-anna
      name: Anna
      language: de-DE
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RuntimeName != "edge-1" {
		t.Fatalf("expected runtime name from file, got %q", cfg.RuntimeName)
	}
	if cfg.Session.HealthIntervalMS != 2500 || cfg.Session.StageTimeoutMS != 4000 {
		t.Fatalf("unexpected session config: %+v", cfg.Session)
	}
	if cfg.Gesture.Mode != "exec" || cfg.Gesture.Command == "" {
		t.Fatalf("unexpected gesture config: %+v", cfg.Gesture)
	}
	if len(cfg.TTS.Voices) != 1 || cfg.TTS.Voices[0].ID != "de-DE-anna" {
		t.Fatalf("expected voices replaced from file, got %+v", cfg.TTS.Voices)
	}
	if cfg.STT.SampleRate != 16000 {
		t.Fatalf("expected untouched defaults to survive, got %d", cfg.STT.SampleRate)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SIGNBRIDGE_BUS_SERVERS", "nats://one:4222, nats://two:4222")
	t.Setenv("SIGNBRIDGE_BUS_USERNAME", "alice")
	t.Setenv("SIGNBRIDGE_BUS_PASSWORD", "secret")
	t.Setenv("SIGNBRIDGE_BUS_TLS_INSECURE", "true")
	t.Setenv("SIGNBRIDGE_BUS_CONNECT_TIMEOUT_MS", "5000")
	t.Setenv("SIGNBRIDGE_EVENT_STORE_PATH", "./tmp.db")
	t.Setenv("SIGNBRIDGE_EVENT_STORE_RETENTION_MODE", "persistent")
	t.Setenv("SIGNBRIDGE_EVENT_STORE_RETENTION_DAYS", "7")
	t.Setenv("SIGNBRIDGE_SESSION_HEALTH_INTERVAL_MS", "1500")
	t.Setenv("SIGNBRIDGE_SESSION_AUTO_VOICE_THRESHOLD", "0.8")
	t.Setenv("SIGNBRIDGE_SESSION_STAGE_TIMEOUT_MS", "9000")
	t.Setenv("SIGNBRIDGE_GESTURE_DETECTION_RATE", "0.5")
	t.Setenv("SIGNBRIDGE_AVATAR_KEYFRAME_MS", "0")
	t.Setenv("SIGNBRIDGE_TELEMETRY_TRACE_SAMPLE_RATIO", "0.25")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Bus.Servers) != 2 {
		t.Fatalf("expected 2 servers, got %v", cfg.Bus.Servers)
	}
	if cfg.Bus.Username != "alice" || cfg.Bus.Password != "secret" {
		t.Fatalf("expected credentials override")
	}
	if !cfg.Bus.TLSInsecure {
		t.Fatal("expected tls insecure override true")
	}
	if cfg.Bus.ConnectTimeout != 5000 {
		t.Fatalf("expected timeout 5000, got %d", cfg.Bus.ConnectTimeout)
	}
	if cfg.EventStore.Path != "./tmp.db" || cfg.EventStore.RetentionMode != "persistent" || cfg.EventStore.RetentionDays != 7 {
		t.Fatalf("expected event store overrides, got %+v", cfg.EventStore)
	}
	if cfg.Session.HealthIntervalMS != 1500 {
		t.Fatalf("expected health interval override")
	}
	if cfg.Session.AutoVoiceThreshold != 0.8 {
		t.Fatalf("expected threshold override")
	}
	if cfg.Session.StageTimeoutMS != 9000 {
		t.Fatalf("expected stage timeout override")
	}
	if cfg.Gesture.DetectionRate != 0.5 {
		t.Fatalf("expected detection rate override")
	}
	if cfg.Avatar.KeyframeMS != 0 {
		t.Fatalf("expected keyframe override")
	}
	if cfg.Telemetry.TraceSampleRatio != 0.25 {
		t.Fatalf("expected sample ratio override, got %v", cfg.Telemetry.TraceSampleRatio)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"retention mode":   func(c *Config) { c.EventStore.RetentionMode = "forever" },
		"health interval":  func(c *Config) { c.Session.HealthIntervalMS = 0 },
		"threshold":        func(c *Config) { c.Session.AutoVoiceThreshold = 1.5 },
		"gesture exec":     func(c *Config) { c.Gesture.Mode = "exec" },
		"gesture mode":     func(c *Config) { c.Gesture.Mode = "onnx" },
		"stt exec":         func(c *Config) { c.STT.Mode = "exec" },
		"tts voices":       func(c *Config) { c.TTS.Voices = nil },
		"transport path":   func(c *Config) { c.Transport.Path = "ws" },
		"pong wait":        func(c *Config) { c.Transport.PongWaitMS = c.Transport.PingIntervalMS },
		"bus servers":      func(c *Config) { c.Bus.Embedded = false; c.Bus.Servers = nil },
		"sequence window":  func(c *Config) { c.Translation.SequenceWindowMS = 0 },
		"rate limit burst": func(c *Config) { c.HTTP.RateLimitBurst = 0 },
		"sample ratio":     func(c *Config) { c.Telemetry.TraceSampleRatio = 1.5 },
		"idle after":       func(c *Config) { c.Session.IdleAfterMS = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			if err := validate(cfg); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
