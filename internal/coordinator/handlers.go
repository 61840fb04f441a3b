package coordinator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/signbridge/signbridge-core/internal/avatar"
	"github.com/signbridge/signbridge-core/internal/gesture"
	"github.com/signbridge/signbridge-core/internal/protocol"
	"github.com/signbridge/signbridge-core/internal/session"
	"github.com/signbridge/signbridge-core/internal/stt"
	"github.com/signbridge/signbridge-core/internal/translation"
	"github.com/signbridge/signbridge-core/internal/tts"
)

const maxSpeed = 4

func (c *Coordinator) handleVideoFrame(ctx context.Context, s *session.Session, data json.RawMessage) *dispatchError {
	var payload protocol.VideoFrame
	if err := json.Unmarshal(data, &payload); err != nil {
		return invalid(CodeFrameInvalid, "invalid video frame payload", err)
	}
	frame, err := gesture.DecodeFrame(s.ID, payload.Frame)
	if err != nil {
		return invalid(CodeFrameInvalid, "invalid video frame", err)
	}

	res, err := perceive(ctx, c.stageTimeout(), func(ctx context.Context) (gesture.Result, error) {
		return c.stages.Gestures.Recognize(ctx, frame)
	})
	if errors.Is(err, errStageTimeout) {
		return failed(CodeGestureTimeout, "gesture recognition timed out", err)
	}
	if err != nil {
		return failed(CodeGestureRecognitionFailed, "gesture recognition failed", err)
	}
	if !res.Detected {
		return nil
	}

	obs := protocol.GestureObservation{
		Landmarks:  res.Landmarks,
		Gesture:    res.Gesture,
		Confidence: res.Confidence,
		Timestamp:  time.Now().UTC(),
		SessionID:  s.ID,
	}
	if obs.Gesture == "" {
		obs.Gesture = protocol.UnknownGesture
		if label, conf, ok := s.Engine.Recognize(obs); ok {
			obs.Gesture, obs.Confidence = label, conf
		}
	}
	return c.chainGesture(ctx, s, obs)
}

// chainGesture fans a gesture observation out to the avatar and, when confident,
// to voice.
func (c *Coordinator) chainGesture(ctx context.Context, s *session.Session, obs protocol.GestureObservation) *dispatchError {
	confident := obs.Gesture != protocol.UnknownGesture && obs.Confidence > c.cfg.AutoVoiceThreshold
	c.emit(s, protocol.EventSignDetected, obs)
	c.emit(s, protocol.EventAvatarPoseUpdate, AvatarPoseUpdate{
		SessionID: s.ID,
		Pose:      c.stages.Avatar.GeneratePose(obs, confident),
		Timestamp: time.Now().UTC(),
	})

	if !confident {
		return nil
	}
	result, ok := s.Engine.GestureToText(obs.Gesture, obs.Confidence, s.ID)
	if !ok {
		return nil
	}
	c.emit(s, protocol.EventTranslationResult, result)
	c.record(result)

	voice, _ := tts.LookupVoice(c.ttsCfg, "", c.cfg.DefaultVoice)
	audio, err := tts.Render(ctx, c.stages.Synth, tts.SynthRequest{
		SessionID: s.ID,
		Text:      result.TranslatedText,
		Voice:     voice.ID,
		Speed:     1,
		Language:  voice.Language,
	})
	if err != nil {
		return failed(CodeGestureVoiceFailed, "voice synthesis for gesture failed", err)
	}
	c.emit(s, protocol.EventAutoVoicePlayed, speechAudio(s.ID, result.TranslatedText, voice.ID, 1, audio))
	return nil
}

func (c *Coordinator) handleAudioData(ctx context.Context, s *session.Session, data json.RawMessage) *dispatchError {
	var payload protocol.AudioData
	if err := json.Unmarshal(data, &payload); err != nil {
		return invalid(CodeAudioInvalid, "invalid audio payload", err)
	}
	clip, err := stt.DecodeClip(s.ID, payload.Audio, payload.SampleRate)
	if err != nil {
		return invalid(CodeAudioInvalid, "invalid audio data", err)
	}

	res, err := perceive(ctx, c.stageTimeout(), func(ctx context.Context) (stt.TranscriptResult, error) {
		return c.stages.Speech.Recognize(ctx, clip)
	})
	switch {
	case errors.Is(err, stt.ErrInvalidFormat):
		return invalid(CodeAudioInvalidFormat, "audio must be a wav container", err)
	case errors.Is(err, errStageTimeout):
		return failed(CodeSpeechTimeout, "speech recognition timed out", err)
	case err != nil:
		return failed(CodeSpeechRecognitionFailed, "speech recognition failed", err)
	}
	text := strings.TrimSpace(res.Text)
	if text == "" {
		return nil
	}

	obs := protocol.SpeechObservation{
		Text:       text,
		Confidence: res.Confidence,
		Timestamp:  time.Now().UTC(),
		SessionID:  s.ID,
	}
	c.emit(s, protocol.EventTextRecognized, obs)
	return c.chainSpeech(ctx, s, obs)
}

// chainSpeech plays the gesture named in the text, or describes a fingerspelling
// when none is found.
func (c *Coordinator) chainSpeech(ctx context.Context, s *session.Session, obs protocol.SpeechObservation) *dispatchError {
	name, found := c.vocab.ExtractGesture(obs.Text)
	if !found {
		seq, ok := c.text.TextToSign(obs.Text)
		if !ok {
			return nil
		}
		confidence := min(seq.Confidence, obs.Confidence)
		c.emit(s, protocol.EventSignDescription, signDescription(s.ID, obs.Text, confidence, seq))
		c.publishTranslation(s, protocol.ModalityVoice, seq.Description, confidence)
		return nil
	}

	g, _ := c.vocab.Lookup(name)
	c.emit(s, protocol.EventAvatarGesture, AvatarGesture{
		SessionID:   s.ID,
		Gesture:     name,
		Description: g.Description,
		Keyframes:   g.Animation,
		Timestamp:   time.Now().UTC(),
	})
	if _, ok := c.stages.Avatar.PlaySequence(ctx, name, s.Appearance().AnimationSpeed); !ok {
		return failed(CodeSpeechGestureFailed, "gesture "+name+" has no animation", nil)
	}
	confidence := obs.Confidence
	if g.Confidence > 0 {
		confidence = min(confidence, g.Confidence)
	}
	c.publishTranslation(s, protocol.ModalityVoice, c.vocab.Description(name), confidence)
	return nil
}

func (c *Coordinator) handlePlayGesture(ctx context.Context, s *session.Session, data json.RawMessage) *dispatchError {
	var payload protocol.PlayGesture
	if err := json.Unmarshal(data, &payload); err != nil {
		return invalid(CodePlayGestureInvalid, "invalid play-gesture payload", err)
	}
	name := strings.TrimSpace(payload.Gesture)
	if name == "" {
		return invalid(CodePlayGestureInvalid, "gesture is required", nil)
	}
	g, ok := c.vocab.Lookup(name)
	if !ok {
		return invalid(CodePlayGestureInvalid, "unknown gesture "+name, nil)
	}

	c.emit(s, protocol.EventAvatarGesture, AvatarGesture{
		SessionID:   s.ID,
		Gesture:     name,
		Description: g.Description,
		Keyframes:   g.Animation,
		Timestamp:   time.Now().UTC(),
	})
	seq, ok := c.stages.Avatar.PlaySequence(ctx, name, s.Appearance().AnimationSpeed)
	if !ok {
		return failed(CodePlayGestureFailed, "gesture "+name+" has no animation", nil)
	}
	c.emit(s, protocol.EventGesturePlayed, GesturePlayed{
		SessionID:  s.ID,
		Gesture:    name,
		DurationMS: seq.Duration.Milliseconds(),
		Timestamp:  time.Now().UTC(),
	})
	return nil
}

func (c *Coordinator) handleSpeakText(ctx context.Context, s *session.Session, data json.RawMessage) *dispatchError {
	var payload protocol.SpeakText
	if err := json.Unmarshal(data, &payload); err != nil {
		return invalid(CodeSpeakTextInvalid, "invalid speak-text payload", err)
	}
	text := strings.TrimSpace(payload.Text)
	if text == "" {
		return invalid(CodeSpeakTextInvalid, "text is required", nil)
	}
	if payload.Speed < 0 || payload.Speed > maxSpeed {
		return invalid(CodeSpeakTextInvalid, "speed out of range", nil)
	}
	speed := payload.Speed
	if speed == 0 {
		speed = 1
	}
	audio, voice, err := c.synthesize(ctx, s, text, payload.Voice, speed)
	if err != nil {
		return failed(CodeSpeakTextFailed, "speech synthesis failed", err)
	}
	c.emit(s, protocol.EventSpeechGenerated, speechAudio(s.ID, text, voice, speed, audio))
	return nil
}

func (c *Coordinator) handleRequestTranslation(ctx context.Context, s *session.Session, data json.RawMessage) *dispatchError {
	var payload protocol.RequestTranslation
	if err := json.Unmarshal(data, &payload); err != nil {
		return invalid(CodeTranslationInvalid, "invalid request-translation payload", err)
	}
	text := strings.TrimSpace(payload.Text)
	if text == "" {
		return invalid(CodeTranslationInvalid, "text is required", nil)
	}

	switch payload.TargetType {
	case protocol.ModalitySign:
		seq, ok := c.text.TextToSign(text)
		if !ok {
			return failed(CodeTranslationFailed, "no translation produced", nil)
		}
		c.emit(s, protocol.EventSignDescription, signDescription(s.ID, text, seq.Confidence, seq))
		c.publishTranslation(s, protocol.ModalityVoice, seq.Description, seq.Confidence)
	case protocol.ModalityVoice:
		audio, voice, err := c.synthesize(ctx, s, text, "", 1)
		if err != nil {
			return failed(CodeTranslationFailed, "speech synthesis failed", err)
		}
		c.emit(s, protocol.EventSpeechGenerated, speechAudio(s.ID, text, voice, 1, audio))
		c.publishTranslation(s, protocol.ModalitySign, text, 1)
	default:
		return invalid(CodeTranslationInvalid, "targetType must be sign or voice", nil)
	}
	return nil
}

func (c *Coordinator) handleCustomizeAvatar(_ context.Context, s *session.Session, data json.RawMessage) *dispatchError {
	var payload protocol.CustomizeAvatar
	if err := json.Unmarshal(data, &payload); err != nil {
		return invalid(CodeAvatarCustomizeInvalid, "invalid customize-avatar payload", err)
	}
	appearance, err := avatar.Customize(s.Appearance(), payload.Settings)
	if err != nil {
		return invalid(CodeAvatarCustomizeInvalid, err.Error(), err)
	}
	s.SetAppearance(appearance)
	c.emit(s, protocol.EventAvatarCustomized, AvatarCustomized{
		SessionID:  s.ID,
		Appearance: appearance,
		Timestamp:  time.Now().UTC(),
	})
	c.logger.Debug("avatar customized", slog.String("session_id", s.ID))
	return nil
}

func (c *Coordinator) synthesize(ctx context.Context, s *session.Session, text, voiceID string, speed float64) (tts.Audio, string, error) {
	voice, _ := tts.LookupVoice(c.ttsCfg, voiceID, c.cfg.DefaultVoice)
	audio, err := tts.Render(ctx, c.stages.Synth, tts.SynthRequest{
		SessionID: s.ID,
		Text:      text,
		Voice:     voice.ID,
		Speed:     speed,
		Language:  voice.Language,
	})
	return audio, voice.ID, err
}

func (c *Coordinator) publishTranslation(s *session.Session, from protocol.Modality, text string, confidence float64) {
	result := protocol.TranslationResult{
		OriginalType:   from,
		TranslatedText: text,
		Confidence:     max(0, min(confidence, 1)),
		Timestamp:      time.Now().UTC(),
		SessionID:      s.ID,
	}
	c.emit(s, protocol.EventTranslationResult, result)
	c.record(result)
}

func speechAudio(sessionID, text, voice string, speed float64, audio tts.Audio) SpeechAudio {
	return SpeechAudio{
		SessionID:  sessionID,
		Text:       text,
		Voice:      voice,
		Speed:      speed,
		Audio:      base64.StdEncoding.EncodeToString(audio.WAV),
		MimeType:   "audio/wav",
		SampleRate: audio.SampleRate,
		Timestamp:  time.Now().UTC(),
	}
}

func signDescription(sessionID, text string, confidence float64, seq translation.SignSequence) SignDescription {
	var gestures []string
	for _, f := range seq.Fragments {
		gestures = append(gestures, f.Gestures...)
	}
	return SignDescription{
		SessionID:   sessionID,
		Text:        text,
		Description: seq.Description,
		Gestures:    gestures,
		Fragments:   seq.Fragments,
		Confidence:  confidence,
		Timestamp:   time.Now().UTC(),
	}
}
