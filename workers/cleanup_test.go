package workers

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pixelfall/gallerybackend/media"
	"github.com/pixelfall/gallerybackend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listOnlyRepo serves a fixed photo list; the sweeper only reads
type listOnlyRepo struct {
	photos []models.Photo
}

func (r *listOnlyRepo) Create(*models.Photo) error                      { return nil }
func (r *listOnlyRepo) GetByID(uint) (*models.Photo, error)             { return nil, nil }
func (r *listOnlyRepo) GetByIDWithComments(uint) (*models.Photo, error) { return nil, nil }
func (r *listOnlyRepo) ListAll(*models.Visibility) ([]models.Photo, error) {
	return r.photos, nil
}
func (r *listOnlyRepo) Update(uint, *models.Photo, []string) error { return nil }
func (r *listOnlyRepo) UpdateMetadata(uint, media.ExifData, *string, *string, *string) error {
	return nil
}
func (r *listOnlyRepo) Delete(uint) error { return nil }

func writeVariants(t *testing.T, store media.Store, name string) {
	t.Helper()
	for _, assetType := range []media.AssetType{media.AssetTypeOriginal, media.AssetTypeCompressed, media.AssetTypeThumbnail} {
		_, err := store.Save(assetType, name, bytes.NewReader([]byte("img")))
		require.NoError(t, err)
	}
}

func ageFile(t *testing.T, path string, age time.Duration) {
	t.Helper()
	old := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, old, old))
}

func TestSweepRemovesOrphans(t *testing.T) {
	uploadsDir := t.TempDir()
	store, err := media.NewLocalStorage(uploadsDir, "/uploads", media.DefaultSubDirs("compressed", "thumbs"))
	require.NoError(t, err)

	// one live photo, one orphan past the grace window
	writeVariants(t, store, "live.jpg")
	writeVariants(t, store, "orphan.jpg")
	ageFile(t, filepath.Join(uploadsDir, "live.jpg"), 2*time.Hour)
	ageFile(t, filepath.Join(uploadsDir, "orphan.jpg"), 2*time.Hour)

	repo := &listOnlyRepo{photos: []models.Photo{
		{ID: 1, URL: "/uploads/compressed/live.jpg"},
	}}
	sweeper := NewOrphanSweeper(repo, store, uploadsDir, time.Hour, time.Hour)

	removed, err := sweeper.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(filepath.Join(uploadsDir, "live.jpg"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(uploadsDir, "orphan.jpg"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(uploadsDir, "compressed", "orphan.jpg"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(uploadsDir, "thumbs", "orphan.jpg"))
	assert.True(t, os.IsNotExist(err))
}

func TestSweepHonorsGraceWindow(t *testing.T) {
	uploadsDir := t.TempDir()
	store, err := media.NewLocalStorage(uploadsDir, "/uploads", media.DefaultSubDirs("compressed", "thumbs"))
	require.NoError(t, err)

	// a fresh orphan could still be an ingestion in flight
	writeVariants(t, store, "fresh.jpg")

	sweeper := NewOrphanSweeper(&listOnlyRepo{}, store, uploadsDir, time.Hour, time.Hour)

	removed, err := sweeper.Sweep()
	require.NoError(t, err)
	assert.Zero(t, removed)

	_, err = os.Stat(filepath.Join(uploadsDir, "fresh.jpg"))
	assert.NoError(t, err)
}
