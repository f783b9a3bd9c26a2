package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Lllllllleong/mediabatchflow/internal/models"
)

type metaKey struct {
	kind models.MediaKind
	id   string
}

// fakeStore is an in-memory RecordStore.
type fakeStore struct {
	users     []models.UserRecord
	listErr   error
	meta      map[metaKey]*models.MediaMetadata
	lookupErr map[metaKey]error
}

func newFakeStore(users ...models.UserRecord) *fakeStore {
	return &fakeStore{
		users:     users,
		meta:      map[metaKey]*models.MediaMetadata{},
		lookupErr: map[metaKey]error{},
	}
}

func (s *fakeStore) addImage(id, ref string) *fakeStore {
	s.meta[metaKey{models.KindImage, id}] = &models.MediaMetadata{StoragePath: ref, MimeType: "image/jpeg"}
	return s
}

func (s *fakeStore) addVoice(id, ref string) *fakeStore {
	s.meta[metaKey{models.KindVoice, id}] = &models.MediaMetadata{StoragePath: ref, MimeType: "audio/mpeg"}
	return s
}

func (s *fakeStore) ListUsers(ctx context.Context) ([]models.UserRecord, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.users, ctx.Err()
}

func (s *fakeStore) GetMetadata(_ context.Context, kind models.MediaKind, id string) (*models.MediaMetadata, error) {
	k := metaKey{kind, id}
	if err := s.lookupErr[k]; err != nil {
		return nil, err
	}
	m, ok := s.meta[k]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

// fakeFetcher serves fixed bytes per reference and records the call order.
type fakeFetcher struct {
	mu      sync.Mutex
	objects map[string][]byte
	calls   []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{objects: map[string][]byte{}}
}

func (f *fakeFetcher) put(ref string, size int) *fakeFetcher {
	f.objects[ref] = make([]byte, size)
	return f
}

func (f *fakeFetcher) Download(ctx context.Context, ref string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, ref)
	data, ok := f.objects[ref]
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("GET %s: 404 Not Found", ref)
	}
	return data, nil
}

func (f *fakeFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type savedObject struct {
	key, name string
	size      int
}

// fakeSink records saves; it fails every save when err is set.
type fakeSink struct {
	mu    sync.Mutex
	saved []savedObject
	err   error
}

func (s *fakeSink) Save(_ context.Context, key, name string, data []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, savedObject{key: key, name: name, size: len(data)})
	return key + "/" + name, nil
}

type fakeVariations struct {
	err error
}

func (g fakeVariations) GenerateVariations(_ context.Context, _ *models.MediaItemResult, count int) ([]models.Variation, error) {
	if g.err != nil {
		return nil, g.err
	}
	out := make([]models.Variation, count)
	for i := range out {
		out[i] = models.Variation{Angle: models.VariationAngles[i], MimeType: "image/png", Data: []byte{byte(i)}}
	}
	return out, nil
}

// fakeArchive records which lifecycle hooks ran.
type fakeArchive struct {
	mu        sync.Mutex
	started   []string
	completed []*models.BatchResult
	failed    []models.JobStatus
}

func (a *fakeArchive) RecordStart(_ context.Context, status models.JobStatus) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.started = append(a.started, status.RunID)
	return nil
}

func (a *fakeArchive) RecordCompletion(_ context.Context, result *models.BatchResult) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.completed = append(a.completed, result)
	return nil
}

func (a *fakeArchive) RecordFailure(_ context.Context, status models.JobStatus) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failed = append(a.failed, status)
	return nil
}

type fakeNotifier struct {
	results []*models.BatchResult
	err     error
}

func (n *fakeNotifier) NotifyCompleted(_ context.Context, result *models.BatchResult) error {
	n.results = append(n.results, result)
	return n.err
}

var errBoom = errors.New("boom")

// fakeVoices returns a fixed signature per item, or err for every item.
type fakeVoices struct {
	mu    sync.Mutex
	items []string
	err   error
}

func (g *fakeVoices) GenerateSignature(_ context.Context, item *models.MediaItemResult) (*models.VoiceSignature, error) {
	g.mu.Lock()
	g.items = append(g.items, item.ID)
	g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	return &models.VoiceSignature{MimeType: "audio/mpeg", Data: []byte("sig-" + item.ID)}, nil
}
