package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel     string `yaml:"log_level"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`

	// TraceSampleRatio is the share of root dispatch spans kept, 0 to 1.
	TraceSampleRatio float64 `yaml:"trace_sample_ratio"`
}

type HTTPConfig struct {
	Bind           string  `yaml:"bind"`
	Port           int     `yaml:"port"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
	MaxUploadBytes int64   `yaml:"max_upload_bytes"`
}

type Config struct {
	RuntimeName string            `yaml:"runtime_name"`
	Environment string            `yaml:"environment"`
	HTTP        HTTPConfig        `yaml:"http"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Bus         BusConfig         `yaml:"bus"`
	EventStore  EventStoreConfig  `yaml:"event_store"`
	Session     SessionConfig     `yaml:"session"`
	Transport   TransportConfig   `yaml:"transport"`
	Vocabulary  VocabularyConfig  `yaml:"vocabulary"`
	Translation TranslationConfig `yaml:"translation"`
	Gesture     GestureConfig     `yaml:"gesture"`
	STT         STTConfig         `yaml:"stt"`
	TTS         TTSConfig         `yaml:"tts"`
	Avatar      AvatarConfig      `yaml:"avatar"`
}

type BusConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	StoreDir       string   `yaml:"store_dir"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type EventStoreConfig struct {
	Path          string `yaml:"path"`
	RetentionMode string `yaml:"retention_mode"`
	RetentionDays int    `yaml:"retention_days"`
	MaxSessions   int    `yaml:"max_sessions"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

// SessionConfig tunes the coordinator.
type SessionConfig struct {
	HealthIntervalMS   int     `yaml:"health_interval_ms"`
	AutoVoiceThreshold float64 `yaml:"auto_voice_threshold"`
	StageTimeoutMS     int     `yaml:"stage_timeout_ms"`
	DefaultVoice       string  `yaml:"default_voice"`
	IdleAfterMS        int     `yaml:"idle_after_ms"`
}

type TransportConfig struct {
	Path            string `yaml:"path"`
	PingIntervalMS  int    `yaml:"ping_interval_ms"`
	PongWaitMS      int    `yaml:"pong_wait_ms"`
	WriteWaitMS     int    `yaml:"write_wait_ms"`
	MaxMessageBytes int64  `yaml:"max_message_bytes"`
}

type VocabularyConfig struct {
	Path string `yaml:"path"`
}

type TranslationConfig struct {
	SequenceWindowMS int `yaml:"sequence_window_ms"`
}

type GestureConfig struct {
	Mode          string  `yaml:"mode"` // mock, exec
	Command       string  `yaml:"command"`
	DetectionRate float64 `yaml:"detection_rate"`
	LandmarksOnly bool    `yaml:"landmarks_only"`
	Seed          int64   `yaml:"seed"`
}

type STTConfig struct {
	Mode       string `yaml:"mode"` // mock, exec
	Command    string `yaml:"command"`
	ModelPath  string `yaml:"model_path"`
	Language   string `yaml:"language"`
	SampleRate int    `yaml:"sample_rate"`
	Channels   int    `yaml:"channels"`
}

type TTSConfig struct {
	Mode       string        `yaml:"mode"` // mock, exec
	Command    string        `yaml:"command"`
	SampleRate int           `yaml:"sample_rate"`
	Channels   int           `yaml:"channels"`
	Voices     []VoiceConfig `yaml:"voices"`
}

type VoiceConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Language string `yaml:"language"`
	Gender   string `yaml:"gender"`
}

type AvatarConfig struct {
	KeyframeMS int `yaml:"keyframe_ms"`
}

func Default() Config {
	return Config{
		RuntimeName: "signbridge",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind:           "0.0.0.0",
			Port:           8080,
			RateLimitRPS:   10,
			RateLimitBurst: 20,
			MaxUploadBytes: 8 << 20,
		},
		Telemetry: TelemetryConfig{
			LogLevel:         "info",
			OTLPEndpoint:     "",
			OTLPInsecure:     true,
			TraceSampleRatio: 1,
		},
		Bus: BusConfig{
			Enabled:        true,
			Embedded:       true,
			Port:           4222,
			StoreDir:       "./data/nats",
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		EventStore: EventStoreConfig{
			Path:          "./data/signbridge-events.db",
			RetentionMode: "session",
			RetentionDays: 30,
			MaxSessions:   10000,
		},
		Session: SessionConfig{
			HealthIntervalMS:   10000,
			AutoVoiceThreshold: 0.7,
			StageTimeoutMS:     0,
			DefaultVoice:       "en-US-neutral",
			IdleAfterMS:        60000,
		},
		Transport: TransportConfig{
			Path:            "/ws",
			PingIntervalMS:  25000,
			PongWaitMS:      70000,
			WriteWaitMS:     10000,
			MaxMessageBytes: 4 << 20,
		},
		Translation: TranslationConfig{
			SequenceWindowMS: 3000,
		},
		Gesture: GestureConfig{
			Mode:          "mock",
			DetectionRate: 0.3,
		},
		STT: STTConfig{
			Mode:       "mock",
			SampleRate: 16000,
			Channels:   1,
		},
		TTS: TTSConfig{
			Mode:       "mock",
			SampleRate: 22050,
			Channels:   1,
			Voices: []VoiceConfig{
				{ID: "en-US-neutral", Name: "Neutral", Language: "en-US", Gender: "neutral"},
				{ID: "en-US-female", Name: "Female", Language: "en-US", Gender: "female"},
				{ID: "en-US-male", Name: "Male", Language: "en-US", Gender: "male"},
			},
		},
		Avatar: AvatarConfig{
			KeyframeMS: 500,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "SIGNBRIDGE_RUNTIME_NAME")
	overrideString(&cfg.Environment, "SIGNBRIDGE_RUNTIME_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "SIGNBRIDGE_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "SIGNBRIDGE_HTTP_PORT")
	overrideFloat(&cfg.HTTP.RateLimitRPS, "SIGNBRIDGE_HTTP_RATE_LIMIT_RPS")
	overrideInt(&cfg.HTTP.RateLimitBurst, "SIGNBRIDGE_HTTP_RATE_LIMIT_BURST")
	overrideString(&cfg.Telemetry.LogLevel, "SIGNBRIDGE_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "SIGNBRIDGE_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "SIGNBRIDGE_TELEMETRY_OTLP_INSECURE")
	overrideFloat(&cfg.Telemetry.TraceSampleRatio, "SIGNBRIDGE_TELEMETRY_TRACE_SAMPLE_RATIO")
	overrideBool(&cfg.Bus.Enabled, "SIGNBRIDGE_BUS_ENABLED")
	overrideBool(&cfg.Bus.Embedded, "SIGNBRIDGE_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "SIGNBRIDGE_BUS_PORT")
	overrideString(&cfg.Bus.StoreDir, "SIGNBRIDGE_BUS_STORE_DIR")
	overrideStringSlice(&cfg.Bus.Servers, "SIGNBRIDGE_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "SIGNBRIDGE_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "SIGNBRIDGE_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "SIGNBRIDGE_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "SIGNBRIDGE_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "SIGNBRIDGE_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.EventStore.Path, "SIGNBRIDGE_EVENT_STORE_PATH")
	overrideString(&cfg.EventStore.RetentionMode, "SIGNBRIDGE_EVENT_STORE_RETENTION_MODE")
	overrideInt(&cfg.EventStore.RetentionDays, "SIGNBRIDGE_EVENT_STORE_RETENTION_DAYS")
	overrideInt(&cfg.EventStore.MaxSessions, "SIGNBRIDGE_EVENT_STORE_MAX_SESSIONS")
	overrideBool(&cfg.EventStore.VacuumOnStart, "SIGNBRIDGE_EVENT_STORE_VACUUM_ON_START")
	overrideInt(&cfg.Session.HealthIntervalMS, "SIGNBRIDGE_SESSION_HEALTH_INTERVAL_MS")
	overrideFloat(&cfg.Session.AutoVoiceThreshold, "SIGNBRIDGE_SESSION_AUTO_VOICE_THRESHOLD")
	overrideInt(&cfg.Session.StageTimeoutMS, "SIGNBRIDGE_SESSION_STAGE_TIMEOUT_MS")
	overrideString(&cfg.Session.DefaultVoice, "SIGNBRIDGE_SESSION_DEFAULT_VOICE")
	overrideInt(&cfg.Session.IdleAfterMS, "SIGNBRIDGE_SESSION_IDLE_AFTER_MS")
	overrideString(&cfg.Transport.Path, "SIGNBRIDGE_TRANSPORT_PATH")
	overrideInt(&cfg.Transport.PingIntervalMS, "SIGNBRIDGE_TRANSPORT_PING_INTERVAL_MS")
	overrideInt(&cfg.Transport.PongWaitMS, "SIGNBRIDGE_TRANSPORT_PONG_WAIT_MS")
	overrideString(&cfg.Vocabulary.Path, "SIGNBRIDGE_VOCABULARY_PATH")
	overrideInt(&cfg.Translation.SequenceWindowMS, "SIGNBRIDGE_TRANSLATION_SEQUENCE_WINDOW_MS")
	overrideString(&cfg.Gesture.Mode, "SIGNBRIDGE_GESTURE_MODE")
	overrideString(&cfg.Gesture.Command, "SIGNBRIDGE_GESTURE_COMMAND")
	overrideFloat(&cfg.Gesture.DetectionRate, "SIGNBRIDGE_GESTURE_DETECTION_RATE")
	overrideBool(&cfg.Gesture.LandmarksOnly, "SIGNBRIDGE_GESTURE_LANDMARKS_ONLY")
	overrideString(&cfg.STT.Mode, "SIGNBRIDGE_STT_MODE")
	overrideString(&cfg.STT.Command, "SIGNBRIDGE_STT_COMMAND")
	overrideString(&cfg.STT.ModelPath, "SIGNBRIDGE_STT_MODEL_PATH")
	overrideString(&cfg.STT.Language, "SIGNBRIDGE_STT_LANGUAGE")
	overrideInt(&cfg.STT.SampleRate, "SIGNBRIDGE_STT_SAMPLE_RATE")
	overrideInt(&cfg.STT.Channels, "SIGNBRIDGE_STT_CHANNELS")
	overrideString(&cfg.TTS.Mode, "SIGNBRIDGE_TTS_MODE")
	overrideString(&cfg.TTS.Command, "SIGNBRIDGE_TTS_COMMAND")
	overrideInt(&cfg.TTS.SampleRate, "SIGNBRIDGE_TTS_SAMPLE_RATE")
	overrideInt(&cfg.TTS.Channels, "SIGNBRIDGE_TTS_CHANNELS")
	overrideInt(&cfg.Avatar.KeyframeMS, "SIGNBRIDGE_AVATAR_KEYFRAME_MS")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if r := cfg.Telemetry.TraceSampleRatio; r < 0 || r > 1 {
		return errors.New("telemetry.trace_sample_ratio must be between 0 and 1")
	}
	if cfg.HTTP.RateLimitRPS < 0 {
		return errors.New("http.rate_limit_rps must be >= 0")
	}
	if cfg.HTTP.RateLimitRPS > 0 && cfg.HTTP.RateLimitBurst <= 0 {
		return errors.New("http.rate_limit_burst must be positive when rate limiting is enabled")
	}
	if cfg.Bus.Enabled {
		if cfg.Bus.Embedded {
			if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
				return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
			}
		} else if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.EventStore.Path == "" {
		return errors.New("event_store.path must not be empty")
	}
	switch cfg.EventStore.RetentionMode {
	case "ephemeral", "session", "persistent":
	default:
		return errors.New("event_store.retention_mode must be one of ephemeral|session|persistent")
	}
	if cfg.EventStore.RetentionDays < 0 {
		return errors.New("event_store.retention_days must be >= 0")
	}
	if cfg.Session.HealthIntervalMS <= 0 {
		return errors.New("session.health_interval_ms must be positive")
	}
	if cfg.Session.AutoVoiceThreshold < 0 || cfg.Session.AutoVoiceThreshold > 1 {
		return errors.New("session.auto_voice_threshold must be within [0,1]")
	}
	if cfg.Session.StageTimeoutMS < 0 {
		return errors.New("session.stage_timeout_ms must be >= 0")
	}
	if cfg.Session.IdleAfterMS <= 0 {
		return errors.New("session.idle_after_ms must be positive")
	}
	if cfg.Transport.Path == "" || !strings.HasPrefix(cfg.Transport.Path, "/") {
		return errors.New("transport.path must start with /")
	}
	if cfg.Transport.PingIntervalMS <= 0 || cfg.Transport.PongWaitMS <= cfg.Transport.PingIntervalMS {
		return errors.New("transport.pong_wait_ms must be greater than a positive ping interval")
	}
	if cfg.Translation.SequenceWindowMS <= 0 {
		return errors.New("translation.sequence_window_ms must be positive")
	}
	switch cfg.Gesture.Mode {
	case "mock":
		if cfg.Gesture.DetectionRate < 0 || cfg.Gesture.DetectionRate > 1 {
			return errors.New("gesture.detection_rate must be within [0,1]")
		}
	case "exec":
		if cfg.Gesture.Command == "" {
			return errors.New("gesture.command must be set when mode=exec")
		}
	default:
		return errors.New("gesture.mode must be one of mock|exec")
	}
	switch cfg.STT.Mode {
	case "mock", "exec":
	default:
		return errors.New("stt.mode must be one of mock|exec")
	}
	if cfg.STT.Mode == "exec" && cfg.STT.Command == "" {
		return errors.New("stt.command must be set when mode=exec")
	}
	if cfg.STT.SampleRate <= 0 {
		return errors.New("stt.sample_rate must be positive")
	}
	if cfg.STT.Channels <= 0 {
		return errors.New("stt.channels must be positive")
	}
	switch cfg.TTS.Mode {
	case "mock", "exec":
	default:
		return errors.New("tts.mode must be one of mock|exec")
	}
	if cfg.TTS.Mode == "exec" && cfg.TTS.Command == "" {
		return errors.New("tts.command must be set when mode=exec")
	}
	if cfg.TTS.SampleRate <= 0 {
		return errors.New("tts.sample_rate must be positive")
	}
	if cfg.TTS.Channels <= 0 {
		return errors.New("tts.channels must be positive")
	}
	if len(cfg.TTS.Voices) == 0 {
		return errors.New("tts.voices must not be empty")
	}
	for _, v := range cfg.TTS.Voices {
		if v.ID == "" {
			return errors.New("tts.voices entries must have an id")
		}
	}
	if cfg.Avatar.KeyframeMS < 0 {
		return errors.New("avatar.keyframe_ms must be >= 0")
	}
	return nil
}
