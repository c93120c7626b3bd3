package services

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"path"
	"strings"
	"testing"

	"github.com/pixelfall/gallerybackend/media"
	"github.com/pixelfall/gallerybackend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakePhotoRepo is an in-memory PhotoRepositoryInterface
type fakePhotoRepo struct {
	photos map[uint]*models.Photo
	nextID uint
}

func newFakePhotoRepo() *fakePhotoRepo {
	return &fakePhotoRepo{photos: make(map[uint]*models.Photo), nextID: 1}
}

func (f *fakePhotoRepo) Create(photo *models.Photo) error {
	photo.ID = f.nextID
	f.nextID++
	stored := *photo
	f.photos[photo.ID] = &stored
	return nil
}

func (f *fakePhotoRepo) GetByID(id uint) (*models.Photo, error) {
	photo, ok := f.photos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *photo
	return &cp, nil
}

func (f *fakePhotoRepo) GetByIDWithComments(id uint) (*models.Photo, error) {
	return f.GetByID(id)
}

func (f *fakePhotoRepo) ListAll(visibility *models.Visibility) ([]models.Photo, error) {
	out := make([]models.Photo, 0, len(f.photos))
	for id := uint(1); id < f.nextID; id++ {
		photo, ok := f.photos[id]
		if !ok {
			continue
		}
		if visibility != nil && photo.Visibility != *visibility {
			continue
		}
		out = append(out, *photo)
	}
	return out, nil
}

func (f *fakePhotoRepo) Update(id uint, photo *models.Photo, columns []string) error {
	stored, ok := f.photos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for _, col := range columns {
		switch col {
		case "exif":
			stored.Exif = photo.Exif
		case "title":
			stored.Title = photo.Title
		case "description":
			stored.Description = photo.Description
		case "story":
			stored.Story = photo.Story
		case "visibility":
			stored.Visibility = photo.Visibility
		case "camera":
			stored.Camera = photo.Camera
		case "lens":
			stored.Lens = photo.Lens
		case "location":
			stored.Location = photo.Location
		}
	}
	return nil
}

func (f *fakePhotoRepo) UpdateMetadata(id uint, exifData media.ExifData, camera, lens, location *string) error {
	stored, ok := f.photos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Exif = exifData
	stored.Camera = camera
	stored.Lens = lens
	stored.Location = location
	return nil
}

func (f *fakePhotoRepo) Delete(id uint) error {
	if _, ok := f.photos[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.photos, id)
	return nil
}

func newTestStore(t *testing.T) media.Store {
	t.Helper()
	store, err := media.NewLocalStorage(t.TempDir(), "/uploads",
		media.DefaultSubDirs("compressed", "thumbs"))
	require.NoError(t, err)
	return store
}

func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestCreatePhoto(t *testing.T) {
	repo := newFakePhotoRepo()
	svc := NewPhotoService(repo, newTestStore(t))

	photo, err := svc.CreatePhoto(testJPEG(t, 800, 600), "sunset.jpg", "image/jpeg", media.Overrides{
		Title:    "Sunset",
		Camera:   "Canon EOS R5",
		Aperture: "f/1.8",
		Shutter:  "1/100",
	}, 7)
	require.NoError(t, err)

	assert.NotZero(t, photo.ID)
	assert.Equal(t, uint(7), photo.UserID)
	assert.Equal(t, models.VisibilityPublic, photo.Visibility)
	require.NotNil(t, photo.Title)
	assert.Equal(t, "Sunset", *photo.Title)
	require.NotNil(t, photo.Camera)
	assert.Equal(t, "Canon EOS R5", *photo.Camera)

	// override fields landed in the attribute set
	require.NotNil(t, photo.Exif.FNumber)
	assert.InDelta(t, 1.8, *photo.Exif.FNumber, 1e-9)
	require.NotNil(t, photo.Exif.ExposureTime)
	assert.InDelta(t, 0.01, *photo.Exif.ExposureTime, 1e-9)

	// variants share the timestamped basename across the layout
	filename := path.Base(photo.URL)
	assert.True(t, strings.HasSuffix(filename, "-sunset.jpg"))
	assert.Equal(t, "/uploads/compressed/"+filename, photo.URL)
	assert.Equal(t, "/uploads/thumbs/"+filename, photo.ThumbURL)

	// all three variants exist on disk
	store := svc.Store
	for _, assetType := range []media.AssetType{media.AssetTypeOriginal, media.AssetTypeCompressed, media.AssetTypeThumbnail} {
		data, err := store.Read(assetType, filename)
		require.NoError(t, err, "variant %s", assetType)
		assert.NotEmpty(t, data)
	}
}

func TestCreatePhotoRejectsBadInput(t *testing.T) {
	repo := newFakePhotoRepo()
	svc := NewPhotoService(repo, newTestStore(t))

	_, err := svc.CreatePhoto(nil, "x.jpg", "image/jpeg", media.Overrides{}, 1)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreatePhoto(testJPEG(t, 10, 10), "x.jpg", "image/jpeg", media.Overrides{Visibility: "FRIENDS"}, 1)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreatePhoto(testJPEG(t, 10, 10), "notes.txt", "text/plain", media.Overrides{}, 1)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreatePhoto([]byte("not an image"), "x.jpg", "image/jpeg", media.Overrides{}, 1)
	require.Error(t, err)
	assert.Empty(t, repo.photos)
}

func TestUpdatePhoto(t *testing.T) {
	repo := newFakePhotoRepo()
	svc := NewPhotoService(repo, newTestStore(t))

	created, err := svc.CreatePhoto(testJPEG(t, 100, 100), "a.jpg", "image/jpeg", media.Overrides{}, 1)
	require.NoError(t, err)

	title := "Renamed"
	iso := "800"
	visibility := "private"
	updated, err := svc.UpdatePhoto(created.ID, PhotoUpdate{
		Title:      &title,
		ISO:        &iso,
		Visibility: &visibility,
	})
	require.NoError(t, err)

	require.NotNil(t, updated.Title)
	assert.Equal(t, "Renamed", *updated.Title)
	assert.Equal(t, models.VisibilityPrivate, updated.Visibility)
	require.NotNil(t, updated.Exif.ISO)
	assert.Equal(t, 800, *updated.Exif.ISO)

	stored, err := repo.GetByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityPrivate, stored.Visibility)
	require.NotNil(t, stored.Exif.ISO)
	assert.Equal(t, 800, *stored.Exif.ISO)
}

func TestUpdatePhotoNotFound(t *testing.T) {
	svc := NewPhotoService(newFakePhotoRepo(), newTestStore(t))
	_, err := svc.UpdatePhoto(42, PhotoUpdate{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePhotoRejectsInvalidVisibility(t *testing.T) {
	repo := newFakePhotoRepo()
	svc := NewPhotoService(repo, newTestStore(t))
	created, err := svc.CreatePhoto(testJPEG(t, 50, 50), "a.jpg", "image/jpeg", media.Overrides{}, 1)
	require.NoError(t, err)

	bad := "EVERYONE"
	_, err = svc.UpdatePhoto(created.ID, PhotoUpdate{Visibility: &bad})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeletePhoto(t *testing.T) {
	repo := newFakePhotoRepo()
	svc := NewPhotoService(repo, newTestStore(t))

	created, err := svc.CreatePhoto(testJPEG(t, 60, 60), "gone.jpg", "image/jpeg", media.Overrides{}, 1)
	require.NoError(t, err)
	filename := path.Base(created.URL)

	require.NoError(t, svc.DeletePhoto(created.ID))

	_, err = repo.GetByID(created.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	for _, assetType := range []media.AssetType{media.AssetTypeOriginal, media.AssetTypeCompressed, media.AssetTypeThumbnail} {
		_, err := svc.Store.Read(assetType, filename)
		assert.Error(t, err, "variant %s should be gone", assetType)
	}

	assert.ErrorIs(t, svc.DeletePhoto(created.ID), ErrNotFound)
}

func TestRegenerateAllThumbnails(t *testing.T) {
	repo := newFakePhotoRepo()
	svc := NewPhotoService(repo, newTestStore(t))

	var ids []uint
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		photo, err := svc.CreatePhoto(testJPEG(t, 200, 150), name, "image/jpeg", media.Overrides{}, 1)
		require.NoError(t, err)
		ids = append(ids, photo.ID)
	}

	// lose one original so the batch has to skip it
	victim, err := repo.GetByID(ids[1])
	require.NoError(t, err)
	require.NoError(t, svc.Store.Delete(media.AssetTypeOriginal, path.Base(victim.URL)))

	summary, err := svc.RegenerateAllThumbnails()
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Count)
	assert.Equal(t, "Successfully regenerated 2 thumbnails", summary.Message)
	require.Len(t, summary.Results, 3)

	byID := make(map[uint]BatchOutcome)
	for _, r := range summary.Results {
		byID[r.PhotoID] = r
	}
	assert.Equal(t, BatchStatusRegenerated, byID[ids[0]].Status)
	assert.Equal(t, BatchStatusSkipped, byID[ids[1]].Status)
	assert.Equal(t, BatchStatusRegenerated, byID[ids[2]].Status)
}

func TestRegenerateAllThumbnailsConvertsHeicOriginals(t *testing.T) {
	repo := newFakePhotoRepo()
	svc := NewPhotoService(repo, newTestStore(t))

	// a stored .heic original must go through HEIC conversion, not the
	// plain image decoder
	photo := &models.Photo{
		URL:      "/uploads/compressed/1700000000000-alpine.heic",
		ThumbURL: "/uploads/thumbs/1700000000000-alpine.heic",
	}
	require.NoError(t, repo.Create(photo))
	_, err := svc.Store.Save(media.AssetTypeOriginal, "1700000000000-alpine.heic",
		bytes.NewReader(testJPEG(t, 40, 40)))
	require.NoError(t, err)

	summary, err := svc.RegenerateAllThumbnails()
	require.NoError(t, err)
	require.Len(t, summary.Results, 1)

	// the bytes are not a real HEIC container, so conversion fails; the
	// detail proves the HEIC path was taken instead of image.Decode
	assert.Equal(t, BatchStatusFailed, summary.Results[0].Status)
	assert.Contains(t, summary.Results[0].Detail, "HEIC")
}

func TestFixMetadataSkipsPhotosWithoutExif(t *testing.T) {
	repo := newFakePhotoRepo()
	svc := NewPhotoService(repo, newTestStore(t))

	// plain encoded JPEGs carry no EXIF block, so extraction recovers
	// nothing and the batch skips every photo
	_, err := svc.CreatePhoto(testJPEG(t, 80, 80), "bare.jpg", "image/jpeg", media.Overrides{}, 1)
	require.NoError(t, err)

	summary, err := svc.FixMetadata()
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Count)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, BatchStatusSkipped, summary.Results[0].Status)
}
