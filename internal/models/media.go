package models

// MediaKind distinguishes the two media collections a user can reference.
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVoice MediaKind = "voice"
)

// UserRecord is a document in the email_users collection.
type UserRecord struct {
	ID          string   `firestore:"-"`
	Email       string   `firestore:"email"`
	DisplayName string   `firestore:"displayName,omitempty"`
	ImageIDs    []string `firestore:"imageIds"`
	VoiceIDs    []string `firestore:"voiceIds"`
	// DecodeErr is set when the document could not be decoded. Such a user is
	// still listed so that it fails on its own.
	DecodeErr error `firestore:"-"`
}

// MediaMetadata is a document in the images or voices collection.
type MediaMetadata struct {
	ID           string `firestore:"-" json:"id"`
	StoragePath  string `firestore:"storagePath" json:"storage_path,omitempty"`
	DownloadURL  string `firestore:"downloadUrl" json:"download_url,omitempty"`
	FileName     string `firestore:"fileName" json:"file_name,omitempty"`
	OriginalName string `firestore:"originalName" json:"original_name,omitempty"`
	MimeType     string `firestore:"mimeType" json:"mime_type,omitempty"`
	FileSize     int64  `firestore:"fileSize" json:"file_size,omitempty"`
}

// StorageRef is the locator used to download the item: the bucket path when set,
// otherwise the public download URL.
func (m *MediaMetadata) StorageRef() string {
	if m.StoragePath != "" {
		return m.StoragePath
	}
	return m.DownloadURL
}

// MediaItemResult holds the downloaded bytes of one item.
type MediaItemResult struct {
	ID        string
	Kind      MediaKind
	Metadata  MediaMetadata
	Data      []byte
	ByteCount int64
}

// Variation is one generated derivative of an image.
type Variation struct {
	Angle    string
	MimeType string
	Data     []byte
}

// VariationAngles are the viewpoints requested for image variations, in order.
var VariationAngles = []string{"front", "left", "right", "back", "top"}

// VoiceSignature is audio synthesized in the voice of a user's sample.
type VoiceSignature struct {
	MimeType string
	Data     []byte
}
