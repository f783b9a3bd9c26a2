package services

import (
	"context"
	"fmt"

	"github.com/Lllllllleong/mediabatchflow/internal/models"
)

// ItemProcessor resolves and downloads a single media item.
type ItemProcessor struct {
	records RecordStore
	fetcher ObjectFetcher
}

// NewItemProcessor creates an ItemProcessor.
func NewItemProcessor(records RecordStore, fetcher ObjectFetcher) *ItemProcessor {
	return &ItemProcessor{records: records, fetcher: fetcher}
}

// Fetch looks up the item's metadata and downloads its bytes. Every failure is
// returned as an *ItemError; nothing is retried here.
func (p *ItemProcessor) Fetch(ctx context.Context, id string, kind models.MediaKind) (*models.MediaItemResult, error) {
	meta, err := p.records.GetMetadata(ctx, kind, id)
	if err != nil {
		return nil, &ItemError{Kind: kind, ItemID: id, Err: fmt.Errorf("%w: %w", ErrMetadataLookup, err)}
	}
	if meta == nil {
		return nil, &ItemError{Kind: kind, ItemID: id, Err: ErrMetadataNotFound}
	}

	ref := meta.StorageRef()
	if ref == "" {
		return nil, &ItemError{Kind: kind, ItemID: id, Err: ErrMissingStorageReference}
	}

	data, err := p.fetcher.Download(ctx, ref)
	if err != nil {
		return nil, &ItemError{Kind: kind, ItemID: id, Err: fmt.Errorf("%w: %w", ErrDownloadFailed, err)}
	}

	if meta.ID == "" {
		meta.ID = id
	}
	return &models.MediaItemResult{
		ID:        id,
		Kind:      kind,
		Metadata:  *meta,
		Data:      data,
		ByteCount: int64(len(data)),
	}, nil
}
