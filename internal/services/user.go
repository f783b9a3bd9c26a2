package services

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/Lllllllleong/mediabatchflow/internal/models"
)

// UserProcessor downloads every media item declared on a user record.
type UserProcessor struct {
	items         *ItemProcessor
	sink          Sink
	variations    VariationGenerator
	variationsMax int
	signatures    VoiceGenerator
}

// UserProcessorOption configures optional side channels of a UserProcessor.
type UserProcessorOption func(*UserProcessor)

// WithSink persists each downloaded item.
func WithSink(s Sink) UserProcessorOption {
	return func(p *UserProcessor) { p.sink = s }
}

// WithVariations requests up to count angle variations for each downloaded image.
func WithVariations(g VariationGenerator, count int) UserProcessorOption {
	return func(p *UserProcessor) {
		p.variations = g
		p.variationsMax = min(max(count, 1), len(models.VariationAngles))
	}
}

// WithVoiceSignatures requests a voice signature for each downloaded voice.
func WithVoiceSignatures(g VoiceGenerator) UserProcessorOption {
	return func(p *UserProcessor) { p.signatures = g }
}

// NewUserProcessor creates a UserProcessor.
func NewUserProcessor(items *ItemProcessor, opts ...UserProcessorOption) *UserProcessor {
	p := &UserProcessor{items: items}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process walks imageIds then voiceIds in record order. Item failures are
// recorded on the result and never stop the loop. The returned error is
// reserved for failures that prevent the user from being processed at all.
func (p *UserProcessor) Process(ctx context.Context, user models.UserRecord) (models.UserResult, error) {
	result := models.UserResult{UserEmail: user.Email, Errors: []string{}}
	if user.DecodeErr != nil {
		return result, fmt.Errorf("%w: %w", ErrUserProcessing, user.DecodeErr)
	}
	if strings.TrimSpace(user.Email) == "" {
		return result, fmt.Errorf("%w: user %q has no email", ErrUserProcessing, user.ID)
	}

	logCtx := slog.With("userEmail", user.Email)
	key := UserKey(user.Email)

	for _, id := range user.ImageIDs {
		if p.processItem(ctx, logCtx, key, id, models.KindImage, &result) {
			result.ImagesCount++
		}
	}
	for _, id := range user.VoiceIDs {
		if p.processItem(ctx, logCtx, key, id, models.KindVoice, &result) {
			result.VoicesCount++
		}
	}
	result.TotalFilesDownloaded = result.ImagesCount + result.VoicesCount

	logCtx.Info("User processed.",
		"images", result.ImagesCount,
		"voices", result.VoicesCount,
		"bytes", result.TotalSizeBytes,
		"errorCount", len(result.Errors),
	)
	return result, nil
}

func (p *UserProcessor) processItem(ctx context.Context, logCtx *slog.Logger, key, id string, kind models.MediaKind, result *models.UserResult) bool {
	item, err := p.items.Fetch(ctx, id, kind)
	if err != nil {
		logCtx.Warn("Item failed.", "itemId", id, "kind", kind, "error", err)
		result.Errors = append(result.Errors, err.Error())
		return false
	}
	result.TotalSizeBytes += item.ByteCount

	p.persist(ctx, logCtx, path.Join(key, string(kind)+"s"), itemFileName(item), item.Data)
	if kind == models.KindImage && p.variations != nil {
		result.VariationsGenerated += p.generateVariations(ctx, logCtx, key, item)
	}
	if kind == models.KindVoice && p.signatures != nil && p.generateSignature(ctx, logCtx, key, item) {
		result.SignaturesGenerated++
	}
	return true
}

// persist is best-effort: failures are logged and never reach the UserResult.
func (p *UserProcessor) persist(ctx context.Context, logCtx *slog.Logger, key, name string, data []byte) {
	if p.sink == nil {
		return
	}
	location, err := p.sink.Save(ctx, key, name, data)
	if err != nil {
		logCtx.Warn("Failed to persist item.", "key", key, "name", name, "error", fmt.Errorf("%w: %w", ErrPersistenceFailed, err))
		return
	}
	logCtx.Debug("Item persisted.", "location", location, "bytes", len(data))
}

func (p *UserProcessor) generateVariations(ctx context.Context, logCtx *slog.Logger, key string, item *models.MediaItemResult) int {
	variations, err := p.variations.GenerateVariations(ctx, item, p.variationsMax)
	if err != nil {
		logCtx.Warn("Variation generation failed.", "itemId", item.ID, "error", err)
		return 0
	}
	for i, v := range variations {
		angle := v.Angle
		if angle == "" {
			angle = fmt.Sprintf("variation%d", i+1)
		}
		name := fmt.Sprintf("%s_%s%s", sanitizeName(item.ID), angle, extensionFor(v.MimeType, ".png"))
		p.persist(ctx, logCtx, path.Join(key, "variations"), name, v.Data)
	}
	logCtx.Info("Variations generated.", "itemId", item.ID, "count", len(variations))
	return len(variations)
}

func (p *UserProcessor) generateSignature(ctx context.Context, logCtx *slog.Logger, key string, item *models.MediaItemResult) bool {
	sig, err := p.signatures.GenerateSignature(ctx, item)
	if err != nil {
		logCtx.Warn("Voice signature generation failed.", "itemId", item.ID, "error", err)
		return false
	}
	name := fmt.Sprintf("voice_signature_%s%s", sanitizeName(item.ID), extensionFor(sig.MimeType, ".mp3"))
	p.persist(ctx, logCtx, path.Join(key, "signatures"), name, sig.Data)
	logCtx.Info("Voice signature generated.", "itemId", item.ID, "bytes", len(sig.Data))
	return true
}

// UserKey derives the per-user directory key from an email address.
func UserKey(email string) string {
	return strings.NewReplacer("@", "_", ".", "_").Replace(email)
}

func itemFileName(item *models.MediaItemResult) string {
	ext := filepath.Ext(item.Metadata.OriginalName)
	if ext == "" {
		ext = filepath.Ext(item.Metadata.FileName)
	}
	if ext == "" {
		ext = path.Ext(strings.SplitN(item.Metadata.StoragePath, "?", 2)[0])
	}
	if ext == "" {
		ext = extensionFor(item.Metadata.MimeType, "")
	}
	return sanitizeName(item.ID) + ext
}

var preferredExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"audio/mpeg": ".mp3",
	"audio/wav":  ".wav",
	"audio/mp4":  ".m4a",
}

func extensionFor(mimeType, fallback string) string {
	if mimeType == "" {
		return fallback
	}
	if ext, ok := preferredExtensions[mimeType]; ok {
		return ext
	}
	exts, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(exts) == 0 {
		return fallback
	}
	return exts[0]
}

// sanitizeName keeps an id usable as a single path element.
func sanitizeName(id string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(id)
	if name == "" {
		return "unnamed"
	}
	return name
}
