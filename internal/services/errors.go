package services

import (
	"errors"
	"fmt"

	"github.com/Lllllllleong/mediabatchflow/internal/models"
)

var (
	ErrMetadataNotFound        = errors.New("metadata not found")
	ErrMetadataLookup          = errors.New("metadata lookup failed")
	ErrMissingStorageReference = errors.New("missing storage reference")
	ErrDownloadFailed          = errors.New("download failed")
	ErrPersistenceFailed       = errors.New("persistence failed")
	ErrUserProcessing          = errors.New("user processing failed")
	ErrBatchListing            = errors.New("failed to list users")
	ErrBatchInProgress         = errors.New("batch processing already in progress")
	ErrBatchCancelled          = errors.New("batch run cancelled")
)

// ItemError is the failure of a single image or voice item. Its message is the
// entry recorded on the owning UserResult.
type ItemError struct {
	Kind   models.MediaKind
	ItemID string
	Err    error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s processing error for %s: %v", e.Kind, e.ItemID, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }
