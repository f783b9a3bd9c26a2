package services

import (
	"context"

	"github.com/Lllllllleong/mediabatchflow/internal/models"
)

// RecordStore is the read-only source of users and media metadata.
type RecordStore interface {
	ListUsers(ctx context.Context) ([]models.UserRecord, error)
	// GetMetadata returns nil, nil when the document does not exist.
	GetMetadata(ctx context.Context, kind models.MediaKind, id string) (*models.MediaMetadata, error)
}

// ObjectFetcher downloads the raw bytes behind a storage reference.
type ObjectFetcher interface {
	Download(ctx context.Context, ref string) ([]byte, error)
}

// Sink persists bytes under a directory-like key and returns where they landed.
type Sink interface {
	Save(ctx context.Context, key, name string, data []byte) (string, error)
}

// VariationGenerator produces angle variations of a downloaded image.
type VariationGenerator interface {
	GenerateVariations(ctx context.Context, item *models.MediaItemResult, count int) ([]models.Variation, error)
}

// VoiceGenerator synthesizes a voice signature from a downloaded voice sample.
type VoiceGenerator interface {
	GenerateSignature(ctx context.Context, item *models.MediaItemResult) (*models.VoiceSignature, error)
}

// RunArchive records run lifecycle events outside the process.
type RunArchive interface {
	RecordStart(ctx context.Context, status models.JobStatus) error
	RecordCompletion(ctx context.Context, result *models.BatchResult) error
	RecordFailure(ctx context.Context, status models.JobStatus) error
}

// CompletionNotifier hands a completed run off to downstream processing.
type CompletionNotifier interface {
	NotifyCompleted(ctx context.Context, result *models.BatchResult) error
}
