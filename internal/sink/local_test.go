package sink

import (
	"context"
	"crypto/rand"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSink_RoundTrip(t *testing.T) {
	s := NewLocalSink(t.TempDir())
	data := make([]byte, 4096)
	_, err := rand.Read(data)
	require.NoError(t, err)

	loc, err := s.Save(context.Background(), "user_example_com/images", "img_1.jpg", data)
	require.NoError(t, err)

	onDisk, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)

	back, err := s.Read("user_example_com/images", "img_1.jpg")
	require.NoError(t, err)
	assert.Equal(t, data, back)
}

func TestLocalSink_Overwrite(t *testing.T) {
	s := NewLocalSink(t.TempDir())
	_, err := s.Save(context.Background(), "k", "a.bin", []byte("first"))
	require.NoError(t, err)
	_, err = s.Save(context.Background(), "k", "a.bin", []byte("second"))
	require.NoError(t, err)

	got, err := s.Read("k", "a.bin")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	entries, err := os.ReadDir(filepath.Join(s.root, "k"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestLocalSink_RejectsEscapes(t *testing.T) {
	s := NewLocalSink(t.TempDir())

	_, err := s.Save(context.Background(), "../outside", "a.bin", []byte("x"))
	assert.Error(t, err)

	_, err = s.Save(context.Background(), "k", "../a.bin", []byte("x"))
	assert.Error(t, err)

	_, err = s.Save(context.Background(), "k", "", []byte("x"))
	assert.Error(t, err)
}

type failingSaver struct{ err error }

func (f failingSaver) Save(context.Context, string, string, []byte) (string, error) {
	return "", f.err
}

func TestMulti_ReportsPartialFailure(t *testing.T) {
	local := NewLocalSink(t.TempDir())
	boom := errors.New("mirror unavailable")
	m := Multi{local, failingSaver{err: boom}}

	loc, err := m.Save(context.Background(), "k", "a.bin", []byte("payload"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, filepath.Join(local.root, "k", "a.bin"), loc)

	got, err := local.Read("k", "a.bin")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))
}

func TestMulti_AllSucceed(t *testing.T) {
	a := NewLocalSink(t.TempDir())
	b := NewLocalSink(t.TempDir())

	_, err := Multi{a, b}.Save(context.Background(), "k", "a.bin", []byte("payload"))
	require.NoError(t, err)

	for _, s := range []*LocalSink{a, b} {
		got, err := s.Read("k", "a.bin")
		require.NoError(t, err)
		assert.Equal(t, "payload", string(got))
	}
}
