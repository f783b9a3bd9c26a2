package gcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/mediabatchflow/internal/models"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
// When credentialsFile is set the service account key is used instead of
// application default credentials.
func NewFirestoreClient(ctx context.Context, projectID, credentialsFile string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID, ClientOptions(credentialsFile)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// ClientOptions returns the shared client options for every GCP client.
func ClientOptions(credentialsFile string) []option.ClientOption {
	if credentialsFile == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(credentialsFile)}
}

// Collections names the Firestore collections read by the record store.
type Collections struct {
	Users  string
	Images string
	Voices string
}

// FirestoreRecordStore reads users and media metadata from Firestore.
type FirestoreRecordStore struct {
	client      *firestore.Client
	collections Collections
}

// NewFirestoreRecordStore creates a FirestoreRecordStore.
func NewFirestoreRecordStore(client *firestore.Client, collections Collections) *FirestoreRecordStore {
	return &FirestoreRecordStore{client: client, collections: collections}
}

// ListUsers streams the whole users collection in the order Firestore yields it.
func (s *FirestoreRecordStore) ListUsers(ctx context.Context) ([]models.UserRecord, error) {
	it := s.client.Collection(s.collections.Users).Documents(ctx)
	defer it.Stop()

	var users []models.UserRecord
	for {
		doc, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", s.collections.Users, err)
		}
		var user models.UserRecord
		if err := doc.DataTo(&user); err != nil {
			slog.Warn("Failed to decode user document.", "userId", doc.Ref.ID, "error", err)
			user = undecodableUser(doc.Ref.ID, doc.Data(), err)
		}
		user.ID = doc.Ref.ID
		if user.Email == "" {
			// Email-keyed collections use the address as the document ID.
			user.Email = emailFromDocID(doc.Ref.ID)
		}
		users = append(users, user)
	}
	return users, nil
}

// GetMetadata returns nil, nil when the metadata document does not exist.
func (s *FirestoreRecordStore) GetMetadata(ctx context.Context, kind models.MediaKind, id string) (*models.MediaMetadata, error) {
	collection, err := s.collectionFor(kind)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, nil
	}

	doc, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	if !doc.Exists() {
		return nil, nil
	}

	var meta models.MediaMetadata
	if err := doc.DataTo(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode %s/%s: %w", collection, id, err)
	}
	meta.ID = doc.Ref.ID
	return &meta, nil
}

func (s *FirestoreRecordStore) collectionFor(kind models.MediaKind) (string, error) {
	switch kind {
	case models.KindImage:
		return s.collections.Images, nil
	case models.KindVoice:
		return s.collections.Voices, nil
	default:
		return "", fmt.Errorf("unknown media kind %q", kind)
	}
}

// undecodableUser keeps whatever identifies a malformed user document and
// records why it could not be decoded.
func undecodableUser(id string, data map[string]any, err error) models.UserRecord {
	user := models.UserRecord{
		ID:        id,
		DecodeErr: fmt.Errorf("failed to decode user %s: %w", id, err),
	}
	if email, ok := data["email"].(string); ok {
		user.Email = email
	}
	return user
}

// emailFromDocID returns id when it looks like an email address.
func emailFromDocID(id string) string {
	if strings.Contains(id, "@") {
		return id
	}
	return ""
}
