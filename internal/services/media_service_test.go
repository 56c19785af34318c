// internal/services/media_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Reflectix/CounselLab/internal/capture"
	apperrors "github.com/Reflectix/CounselLab/internal/errors"
	"github.com/Reflectix/CounselLab/internal/storage"
)

func newTestMediaService(t *testing.T) *MediaService {
	t.Helper()
	blobs, err := storage.NewBlobStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)
	require.NoError(t, blobs.EnsureRequiredBuckets())
	return NewMediaService(blobs)
}

func TestResponseKey(t *testing.T) {
	ts := time.UnixMilli(1700000000000)
	key := ResponseKey("alice", "scen1", "seg2", ts)
	assert.Equal(t, "alice/scen1/seg2_1700000000000.webm", key)
}

func TestUploadResponseClip(t *testing.T) {
	svc := newTestMediaService(t)

	clip := &capture.Clip{
		Data:     []byte("webm bytes"),
		MIMEType: "audio/webm",
		Kind:     "audio",
		Size:     10,
	}
	locator, err := svc.UploadResponseClip("alice", "scen1", "seg2", clip)
	require.NoError(t, err)
	assert.Contains(t, locator, "/storage/user-responses/alice/scen1/seg2_")

	t.Run("nil clip", func(t *testing.T) {
		_, err := svc.UploadResponseClip("alice", "scen1", "seg2", nil)
		assert.True(t, apperrors.IsValidationError(err))
	})

	t.Run("empty clips upload fine", func(t *testing.T) {
		empty := &capture.Clip{MIMEType: "audio/webm", Kind: "audio"}
		_, err := svc.UploadResponseClip("alice", "scen1", "seg3", empty)
		require.NoError(t, err)
	})

	t.Run("invalid key surfaces as storage failure", func(t *testing.T) {
		_, err := svc.UploadResponseClip("../alice", "scen1", "seg2", clip)
		assert.True(t, apperrors.IsStorageError(err))
	})
}

func TestUploadNamedObjects(t *testing.T) {
	svc := newTestMediaService(t)

	locator, err := svc.UploadScenarioVideo("intro session.mp4", []byte("mp4"))
	require.NoError(t, err)
	assert.Contains(t, locator, "/storage/scenario-videos/")
	assert.Contains(t, locator, "intro_session.mp4")

	locator, err = svc.UploadThumbnail("thumb.png", []byte("png"))
	require.NoError(t, err)
	assert.Contains(t, locator, "/storage/scenario-thumbnails/")

	locator, err = svc.UploadExpertResponse("seg2", "model answer.webm", []byte("webm"))
	require.NoError(t, err)
	assert.Contains(t, locator, "/storage/expert-responses/")
	assert.Contains(t, locator, "seg2_")

	t.Run("empty uploads rejected", func(t *testing.T) {
		_, err := svc.UploadScenarioVideo("x.mp4", nil)
		assert.True(t, apperrors.IsValidationError(err))
	})

	t.Run("path components stripped from filenames", func(t *testing.T) {
		locator, err := svc.UploadThumbnail("../../etc/passwd", []byte("x"))
		require.NoError(t, err)
		assert.Contains(t, locator, "passwd")
		assert.NotContains(t, locator, "..")
	})
}

func TestGetObject(t *testing.T) {
	svc := newTestMediaService(t)

	locator, err := svc.UploadThumbnail("thumb.png", []byte("png bytes"))
	require.NoError(t, err)
	assert.Contains(t, locator, "thumb.png")

	t.Run("missing object", func(t *testing.T) {
		_, err := svc.GetObject(storage.BucketScenarioThumbnails, "nope.png")
		assert.True(t, apperrors.IsNotFoundError(err))
	})
}
