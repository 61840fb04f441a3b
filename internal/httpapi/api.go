package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/signbridge/signbridge-core/internal/config"
	"github.com/signbridge/signbridge-core/internal/gesture"
	"github.com/signbridge/signbridge-core/internal/protocol"
	"github.com/signbridge/signbridge-core/internal/translation"
	"github.com/signbridge/signbridge-core/internal/tts"
	"github.com/signbridge/signbridge-core/internal/vocabulary"
)

const requestTimeout = 30 * time.Second

// Sessions reports live session state for /api/health.
type Sessions interface {
	ActiveSessions() int
	IdleSessions() int
	Healthy() bool
}

// Deps are the stages the stateless endpoints call into.
type Deps struct {
	Vocabulary *vocabulary.Vocabulary
	Gestures   gesture.Recognizer
	Synth      tts.Synthesizer
	Sessions   Sessions
}

// API serves the request/response endpoints that sit beside the event connection.
type API struct {
	cfg    config.Config
	deps   Deps
	engine *translation.Engine
	logger *slog.Logger
}

func New(cfg config.Config, deps Deps, logger *slog.Logger) *API {
	return &API{
		cfg:    cfg,
		deps:   deps,
		engine: translation.NewEngine(deps.Vocabulary),
		logger: logger.With(slog.String("component", "httpapi")),
	}
}

// Handler returns the rate limited /api mux.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", a.handleHealth)
	mux.HandleFunc("GET /api/gestures", a.handleGestures)
	mux.HandleFunc("POST /api/detect-gesture", a.handleDetectGesture)
	mux.HandleFunc("POST /api/text-to-speech", a.handleTextToSpeech)
	mux.HandleFunc("POST /api/text-to-sign", a.handleTextToSign)
	if a.cfg.HTTP.RateLimitRPS <= 0 {
		return mux
	}
	return newRateLimiter(a.cfg.HTTP.RateLimitRPS, a.cfg.HTTP.RateLimitBurst).wrap(mux)
}

type healthResponse struct {
	Status         string    `json:"status"`
	ActiveSessions int       `json:"activeSessions"`
	IdleSessions   int       `json:"idleSessions"`
	Gestures       int       `json:"gestures"`
	Timestamp      time.Time `json:"timestamp"`
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok", Gestures: a.deps.Vocabulary.Len(), Timestamp: time.Now().UTC()}
	status := http.StatusOK
	if a.deps.Sessions != nil {
		resp.ActiveSessions = a.deps.Sessions.ActiveSessions()
		resp.IdleSessions = a.deps.Sessions.IdleSessions()
		if !a.deps.Sessions.Healthy() {
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, resp)
}

type gesturesResponse struct {
	Gestures []protocol.GestureInfo `json:"gestures"`
	Voices   []protocol.Voice       `json:"voices"`
}

func (a *API) handleGestures(w http.ResponseWriter, _ *http.Request) {
	gestures := a.deps.Vocabulary.Gestures()
	resp := gesturesResponse{
		Gestures: make([]protocol.GestureInfo, 0, len(gestures)),
		Voices:   tts.Voices(a.cfg.TTS),
	}
	for _, g := range gestures {
		resp.Gestures = append(resp.Gestures, protocol.GestureInfo{Name: g.Name, Description: g.Description})
	}
	writeJSON(w, http.StatusOK, resp)
}

type detectResponse struct {
	Detected    bool                `json:"detected"`
	Gesture     string              `json:"gesture,omitempty"`
	Description string              `json:"description,omitempty"`
	Confidence  float64             `json:"confidence"`
	Landmarks   []protocol.Landmark `json:"landmarks,omitempty"`
}

func (a *API) handleDetectGesture(w http.ResponseWriter, r *http.Request) {
	image, mime, err := a.readImage(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	res, err := a.deps.Gestures.Recognize(ctx, gesture.Frame{Image: image, MimeType: mime})
	if err != nil {
		a.logger.Warn("gesture detection failed", slogError(err))
		writeError(w, http.StatusInternalServerError, "gesture detection failed")
		return
	}

	resp := detectResponse{Detected: res.Detected, Confidence: res.Confidence, Landmarks: res.Landmarks}
	if res.Detected {
		resp.Gesture = res.Gesture
		if resp.Gesture == "" {
			if name, conf, ok := a.engine.Classify(res.Landmarks); ok {
				resp.Gesture, resp.Confidence = name, conf
			} else {
				resp.Gesture = protocol.UnknownGesture
			}
		}
		resp.Description = a.deps.Vocabulary.Description(resp.Gesture)
	}
	writeJSON(w, http.StatusOK, resp)
}

// readImage accepts a multipart "image" field or the raw request body.
func (a *API) readImage(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	limit := a.cfg.HTTP.MaxUploadBytes
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(limit); err != nil {
			return nil, "", err
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			return nil, "", errors.New("missing image field")
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, "", err
		}
		if len(data) == 0 {
			return nil, "", errors.New("empty image")
		}
		mime := header.Header.Get("Content-Type")
		if mime == "" {
			mime = "image/jpeg"
		}
		return data, mime, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", errors.New("empty image")
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = "image/jpeg"
	}
	return data, contentType, nil
}

type speechRequest struct {
	Text  string  `json:"text"`
	Voice string  `json:"voice"`
	Speed float64 `json:"speed"`
}

func (a *API) handleTextToSpeech(w http.ResponseWriter, r *http.Request) {
	var req speechRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.Speed < 0 || req.Speed > 4 {
		writeError(w, http.StatusBadRequest, "speed out of range")
		return
	}
	if req.Speed == 0 {
		req.Speed = 1
	}
	voice, _ := tts.LookupVoice(a.cfg.TTS, req.Voice, a.cfg.Session.DefaultVoice)

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	audio, err := tts.Render(ctx, a.deps.Synth, tts.SynthRequest{
		Text:     text,
		Voice:    voice.ID,
		Speed:    req.Speed,
		Language: voice.Language,
	})
	if err != nil {
		a.logger.Warn("speech synthesis failed", slogError(err))
		writeError(w, http.StatusInternalServerError, "speech synthesis failed")
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio.WAV)))
	w.Header().Set("X-Voice", voice.ID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio.WAV)
}

type signRequest struct {
	Text string `json:"text"`
}

func (a *API) handleTextToSign(w http.ResponseWriter, r *http.Request) {
	var req signRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	seq, ok := a.engine.TextToSign(req.Text)
	if !ok {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	writeJSON(w, http.StatusOK, seq)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid json body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
