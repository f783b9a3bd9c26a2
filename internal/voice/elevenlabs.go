// Package voice synthesizes voice signatures with ElevenLabs.
package voice

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Lllllllleong/mediabatchflow/internal/models"
	"github.com/haguro/elevenlabs-go"
)

const cleanupTimeout = 30 * time.Second

// api is the subset of *elevenlabs.Client used here.
type api interface {
	AddVoice(voiceReq elevenlabs.AddEditVoiceRequest) (string, error)
	TextToSpeech(voiceID string, ttsReq elevenlabs.TextToSpeechRequest, queries ...elevenlabs.QueryFunc) ([]byte, error)
	DeleteVoice(voiceID string) error
}

// Options configures an ElevenLabsClient.
type Options struct {
	APIKey  string
	Text    string
	ModelID string
	// VoiceID selects a stock voice. When empty, every sample is cloned into a
	// temporary voice that is deleted after synthesis.
	VoiceID string
	Timeout time.Duration
}

// ElevenLabsClient implements services.VoiceGenerator.
type ElevenLabsClient struct {
	opts   Options
	newAPI func(ctx context.Context) api
}

// NewElevenLabsClient creates an ElevenLabsClient.
func NewElevenLabsClient(opts Options) (*ElevenLabsClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("NewElevenLabsClient: API key cannot be empty")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Minute
	}
	c := &ElevenLabsClient{opts: opts}
	// The SDK binds a context per client, so one is built per call.
	c.newAPI = func(ctx context.Context) api {
		return elevenlabs.NewClient(ctx, opts.APIKey, opts.Timeout)
	}
	return c, nil
}

// GenerateSignature speaks the configured text in the voice of item.
func (c *ElevenLabsClient) GenerateSignature(ctx context.Context, item *models.MediaItemResult) (*models.VoiceSignature, error) {
	if len(item.Data) == 0 {
		return nil, fmt.Errorf("voice %s has no audio", item.ID)
	}
	client := c.newAPI(ctx)

	voiceID := c.opts.VoiceID
	if voiceID == "" {
		cloned, cleanup, err := c.cloneVoice(ctx, client, item)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		voiceID = cloned
	}

	audio, err := client.TextToSpeech(voiceID, elevenlabs.TextToSpeechRequest{
		Text:    c.opts.Text,
		ModelID: c.opts.ModelID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize voice signature for %s: %w", item.ID, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty voice signature for %s", item.ID)
	}
	return &models.VoiceSignature{MimeType: "audio/mpeg", Data: audio}, nil
}

// cloneVoice uploads the sample as a new voice. The returned cleanup deletes
// it, even after ctx is cancelled.
func (c *ElevenLabsClient) cloneVoice(ctx context.Context, client api, item *models.MediaItemResult) (string, func(), error) {
	samplePath, err := writeSample(item)
	if err != nil {
		return "", nil, err
	}
	defer os.Remove(samplePath)

	voiceID, err := client.AddVoice(elevenlabs.AddEditVoiceRequest{
		Name:        cloneName(item.ID),
		FilePaths:   []string{samplePath},
		Description: "Temporary clone for a voice signature",
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to clone voice %s: %w", item.ID, err)
	}

	cleanup := func() {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()
		if err := c.newAPI(cctx).DeleteVoice(voiceID); err != nil {
			slog.Warn("Failed to delete cloned voice.", "voiceId", voiceID, "itemId", item.ID, "error", err)
		}
	}
	return voiceID, cleanup, nil
}

// writeSample stores the downloaded audio in a temp file for upload.
func writeSample(item *models.MediaItemResult) (string, error) {
	ext := filepath.Ext(item.Metadata.OriginalName)
	if ext == "" {
		ext = filepath.Ext(item.Metadata.FileName)
	}
	if ext == "" {
		ext = ".mp3"
	}
	f, err := os.CreateTemp("", "voice-sample-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create sample file: %w", err)
	}
	if _, err := f.Write(item.Data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write sample file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to close sample file: %w", err)
	}
	return f.Name(), nil
}

func cloneName(itemID string) string {
	name := "mediabatch-" + itemID
	if len(name) > 100 {
		name = name[:100]
	}
	return name
}
