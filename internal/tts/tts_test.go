package tts

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/signbridge/signbridge-core/internal/config"
	"github.com/signbridge/signbridge-core/internal/stt"
)

func TestMockSynthStreamsChunks(t *testing.T) {
	synth := NewMockSynth(16000, 1)
	chunks, errs := synth.Synthesize(context.Background(), SynthRequest{SessionID: "s1", Text: "hello there, how are you"})

	var total, count int
	var sawFinal bool
	for chunk := range chunks {
		if chunk.Sequence != count {
			t.Fatalf("expected sequence %d, got %d", count, chunk.Sequence)
		}
		if chunk.SessionID != "s1" {
			t.Fatalf("unexpected session %q", chunk.SessionID)
		}
		total += len(chunk.PCM)
		sawFinal = chunk.Final
		count++
	}
	if err := <-errs; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count < 2 || !sawFinal || total == 0 {
		t.Fatalf("expected multiple chunks ending in final, got count=%d final=%v bytes=%d", count, sawFinal, total)
	}
}

func TestMockSynthSpeedShortensAudio(t *testing.T) {
	synth := NewMockSynth(16000, 1)
	slow, err := Render(context.Background(), synth, SynthRequest{Text: "thank you", Speed: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	fast, err := Render(context.Background(), synth, SynthRequest{Text: "thank you", Speed: 2})
	if err != nil {
		t.Fatal(err)
	}
	if fast.Samples >= slow.Samples {
		t.Fatalf("expected faster speech to be shorter: fast=%d slow=%d", fast.Samples, slow.Samples)
	}
}

func TestRenderProducesValidWAV(t *testing.T) {
	out, err := Render(context.Background(), NewMockSynth(22050, 1), SynthRequest{Text: "hello"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	info, err := stt.Inspect(out.WAV)
	if err != nil {
		t.Fatalf("rendered audio is not a wav: %v", err)
	}
	if info.SampleRate != 22050 || info.Channels != 1 {
		t.Fatalf("unexpected header %+v", info)
	}
}

func TestRenderEmptyText(t *testing.T) {
	if _, err := Render(context.Background(), NewMockSynth(0, 0), SynthRequest{Text: "  "}); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
}

func TestRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Render(ctx, NewMockSynth(0, 0), SynthRequest{Text: "hello"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestVoices(t *testing.T) {
	cfg := config.Default().TTS
	voices := Voices(cfg)
	if len(voices) != len(cfg.Voices) || voices[0].ID != cfg.Voices[0].ID {
		t.Fatalf("unexpected voices %+v", voices)
	}

	v, ok := LookupVoice(cfg, cfg.Voices[1].ID, "")
	if !ok || v.ID != cfg.Voices[1].ID {
		t.Fatalf("expected exact voice, got %+v %v", v, ok)
	}
	v, ok = LookupVoice(cfg, "missing", cfg.Voices[2].ID)
	if !ok || v.ID != cfg.Voices[2].ID {
		t.Fatalf("expected fallback voice, got %+v %v", v, ok)
	}
	v, ok = LookupVoice(cfg, "missing", "also-missing")
	if ok || v.ID != cfg.Voices[0].ID {
		t.Fatalf("expected first voice without match, got %+v %v", v, ok)
	}
}

func TestNewModes(t *testing.T) {
	if _, err := New(config.TTSConfig{Mode: "cloud"}); err == nil {
		t.Fatal("expected error")
	}
	if _, err := New(config.TTSConfig{Mode: "exec"}); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func execSynthOrSkip(t *testing.T, script string) Synthesizer {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	synth, err := NewExecSynth("sh -c '"+script+"'", 16000, 1)
	if err != nil {
		t.Fatal(err)
	}
	return synth
}

func TestExecSynthStreamsHelperOutput(t *testing.T) {
	synth := execSynthOrSkip(t, `cat >/dev/null; echo "{\"pcm_base64\":\"AAAA\",\"final\":true}"`)
	chunks, errs := synth.Synthesize(context.Background(), SynthRequest{SessionID: "s1", Text: "hello"})
	var got []SynthChunk
	for chunk := range chunks {
		got = append(got, chunk)
	}
	if err := <-errs; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || !got[0].Final || len(got[0].PCM) != 3 || got[0].SessionID != "s1" {
		t.Fatalf("unexpected chunks %+v", got)
	}
}

func TestExecSynthStopsChattyHelperOnBadOutput(t *testing.T) {
	synth := execSynthOrSkip(t, `cat >/dev/null; echo notjson; exec yes padding`)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		chunks, errs := synth.Synthesize(ctx, SynthRequest{Text: "hello"})
		for range chunks {
		}
		done <- <-errs
	}()
	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), "decode tts output") {
			t.Fatalf("expected decode error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("synthesize did not return after bad helper output")
	}
}
