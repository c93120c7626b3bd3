package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pixelfall/gallerybackend/media"
	"github.com/pixelfall/gallerybackend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fixedPhotoRepo answers GetByID for a single known photo
type fixedPhotoRepo struct {
	photo models.Photo
}

func (r *fixedPhotoRepo) Create(*models.Photo) error { return nil }
func (r *fixedPhotoRepo) GetByID(id uint) (*models.Photo, error) {
	if id != r.photo.ID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := r.photo
	return &cp, nil
}
func (r *fixedPhotoRepo) GetByIDWithComments(id uint) (*models.Photo, error) {
	return r.GetByID(id)
}
func (r *fixedPhotoRepo) ListAll(*models.Visibility) ([]models.Photo, error) {
	return []models.Photo{r.photo}, nil
}
func (r *fixedPhotoRepo) Update(uint, *models.Photo, []string) error { return nil }
func (r *fixedPhotoRepo) UpdateMetadata(uint, media.ExifData, *string, *string, *string) error {
	return nil
}
func (r *fixedPhotoRepo) Delete(uint) error { return nil }

// fakeLikeRepo stores likes in memory
type fakeLikeRepo struct {
	likes []models.Like
}

func (f *fakeLikeRepo) Create(like *models.Like) error {
	like.CreatedAt = time.Now().Unix()
	f.likes = append(f.likes, *like)
	return nil
}

func (f *fakeLikeRepo) CountByPhoto(photoID uint) (int64, error) {
	var count int64
	for _, like := range f.likes {
		if like.PhotoID == photoID {
			count++
		}
	}
	return count, nil
}

func (f *fakeLikeRepo) ExistsForIPSince(photoID uint, ip string, since time.Time) (bool, error) {
	for _, like := range f.likes {
		if like.PhotoID == photoID && like.IP == ip && like.CreatedAt >= since.Unix() {
			return true, nil
		}
	}
	return false, nil
}

func likeRequest(method, photoID, ip string) *http.Request {
	req := httptest.NewRequest(method, "/api/likes/"+photoID, nil)
	req.RemoteAddr = ip + ":4321"
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("photoId", photoID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestLikeOncePerIPPerDay(t *testing.T) {
	photos := &fixedPhotoRepo{photo: models.Photo{ID: 1, URL: "/uploads/compressed/a.jpg"}}
	likes := &fakeLikeRepo{}
	h := NewLikeHandler(likes, photos)

	rec := httptest.NewRecorder()
	h.Create(rec, likeRequest(http.MethodPost, "1", "10.0.0.9"))
	assert.Equal(t, http.StatusCreated, rec.Code)

	// same IP, same day: rejected
	rec = httptest.NewRecorder()
	h.Create(rec, likeRequest(http.MethodPost, "1", "10.0.0.9"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// a different IP still goes through
	rec = httptest.NewRecorder()
	h.Create(rec, likeRequest(http.MethodPost, "1", "10.0.0.10"))
	assert.Equal(t, http.StatusCreated, rec.Code)

	count, err := likes.CountByPhoto(1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestLikeUnknownPhoto(t *testing.T) {
	photos := &fixedPhotoRepo{photo: models.Photo{ID: 1}}
	h := NewLikeHandler(&fakeLikeRepo{}, photos)

	rec := httptest.NewRecorder()
	h.Create(rec, likeRequest(http.MethodPost, "99", "10.0.0.9"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLikeCount(t *testing.T) {
	photos := &fixedPhotoRepo{photo: models.Photo{ID: 1}}
	likes := &fakeLikeRepo{likes: []models.Like{{PhotoID: 1, IP: "a"}, {PhotoID: 1, IP: "b"}, {PhotoID: 2, IP: "a"}}}
	h := NewLikeHandler(likes, photos)

	rec := httptest.NewRecorder()
	h.Count(rec, likeRequest(http.MethodGet, "1", "10.0.0.9"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count": 2}`, rec.Body.String())
}
