package upload

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = append([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, make([]byte, 64)...)

func TestSaveDataURI(t *testing.T) {
	store := NewImageStore(t.TempDir())

	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
	path, err := store.SaveDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "treatments", filepath.Dir(path))
	assert.Equal(t, ".png", filepath.Ext(path))
}

func TestSaveDataURIBarePayload(t *testing.T) {
	store := NewImageStore(t.TempDir())

	path, err := store.SaveDataURI(base64.StdEncoding.EncodeToString(pngBytes))
	require.NoError(t, err)
	assert.Equal(t, ".png", filepath.Ext(path))
}

func TestSaveDataURIWritesFile(t *testing.T) {
	dir := t.TempDir()
	store := NewImageStore(dir)

	path, err := store.SaveDataURI(base64.StdEncoding.EncodeToString(pngBytes))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, path))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
}

func TestSaveDataURIRejectsBadBase64(t *testing.T) {
	store := NewImageStore(t.TempDir())

	_, err := store.SaveDataURI("data:image/png;base64,not-base64!!!")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = store.SaveDataURI("data:image/png;base64")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestSaveDataURIRejectsNonImage(t *testing.T) {
	store := NewImageStore(t.TempDir())

	payload := base64.StdEncoding.EncodeToString([]byte("just some text, definitely not an image"))
	_, err := store.SaveDataURI(payload)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestSaveRejectsOversizedImage(t *testing.T) {
	store := NewImageStore(t.TempDir())

	big := append([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, make([]byte, MaxImageSize)...)
	_, err := store.SaveDataURI(base64.StdEncoding.EncodeToString(big))
	assert.ErrorIs(t, err, ErrTooLarge)
}
