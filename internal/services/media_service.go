// internal/services/media_service.go
package services

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/Reflectix/CounselLab/internal/capture"
	apperrors "github.com/Reflectix/CounselLab/internal/errors"
	"github.com/Reflectix/CounselLab/internal/storage"
	"github.com/Reflectix/CounselLab/internal/utils"
)

// MediaService handles blob uploads: user response clips, scenario
// videos, thumbnails and expert reference responses. Each upload
// returns the object's public locator.
type MediaService struct {
	blobs   *storage.BlobStore
	metrics *utils.APIMetrics
}

// NewMediaService creates a media service over a blob store.
func NewMediaService(blobs *storage.BlobStore) *MediaService {
	return &MediaService{
		blobs:   blobs,
		metrics: utils.NewAPIMetrics(),
	}
}

// ResponseKey builds the upload key for a response clip, namespaced
// by user, scenario and segment plus a timestamp.
func ResponseKey(userID, scenarioID, segmentID string, ts time.Time) string {
	return fmt.Sprintf("%s/%s/%s_%d.webm", userID, scenarioID, segmentID, ts.UnixMilli())
}

// UploadResponseClip uploads a recorded clip to the user-responses
// bucket and returns its public locator. Failures surface as storage
// errors; the caller keeps the clip for a retry.
func (s *MediaService) UploadResponseClip(userID, scenarioID, segmentID string, clip *capture.Clip) (string, error) {
	if clip == nil {
		return "", apperrors.NewValidationError("no clip to upload", nil)
	}

	key := ResponseKey(userID, scenarioID, segmentID, time.Now())
	start := time.Now()
	locator, err := s.blobs.Put(storage.BucketUserResponses, key, clip.Data)
	if err != nil {
		return "", apperrors.NewStorageError("failed to upload response clip", err)
	}
	s.metrics.RecordUpload(storage.BucketUserResponses, clip.Size, time.Since(start))
	return locator, nil
}

// UploadScenarioVideo uploads a scenario's source video.
func (s *MediaService) UploadScenarioVideo(filename string, data []byte) (string, error) {
	return s.uploadNamed(storage.BucketScenarioVideos, filename, data)
}

// UploadThumbnail uploads a scenario thumbnail image.
func (s *MediaService) UploadThumbnail(filename string, data []byte) (string, error) {
	return s.uploadNamed(storage.BucketScenarioThumbnails, filename, data)
}

// UploadExpertResponse uploads an expert reference clip for a segment.
func (s *MediaService) UploadExpertResponse(segmentID, filename string, data []byte) (string, error) {
	return s.uploadNamed(storage.BucketExpertResponses, segmentID+"_"+filename, data)
}

// GetObject reads a stored object back for serving.
func (s *MediaService) GetObject(bucket, key string) ([]byte, error) {
	data, err := s.blobs.Get(bucket, key)
	if err != nil {
		return nil, apperrors.NewNotFoundError("object not found: "+bucket+"/"+key, err)
	}
	return data, nil
}

func (s *MediaService) uploadNamed(bucket, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", apperrors.NewValidationError("empty upload", nil)
	}

	key := fmt.Sprintf("%d_%s", time.Now().UnixMilli(), sanitizeFilename(filename))
	start := time.Now()
	locator, err := s.blobs.Put(bucket, key, data)
	if err != nil {
		return "", apperrors.NewStorageError("failed to upload to "+bucket, err)
	}
	s.metrics.RecordUpload(bucket, len(data), time.Since(start))
	return locator, nil
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return "upload"
	}
	return strings.ReplaceAll(name, " ", "_")
}
