package media

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/lumenwell/lumen-backend/pkg/config"
	pkgerrors "github.com/lumenwell/lumen-backend/pkg/errors"
)

type gcsSigner interface {
	SignedURL(bucket, object, contentType string, expires time.Duration) (string, error)
}

var allowedPhotoMimeTypes = []string{
	"image/png",
	"image/jpeg",
	"image/webp",
	"image/heic",
}

// PresignInput is the payload for requesting a photo upload URL.
type PresignInput struct {
	FileName  string `json:"file_name" validate:"required"`
	MimeType  string `json:"mime_type" validate:"required"`
	SizeBytes int64  `json:"size_bytes" validate:"required,gt=0"`
}

// PresignOutput is returned to the client. PhotoPath is the object key the
// client stores on the journal entry after a successful upload.
type PresignOutput struct {
	PhotoPath    string    `json:"photo_path"`
	SignedPUTURL string    `json:"signed_put_url"`
	ContentType  string    `json:"content_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Service issues signed upload URLs for journal entry photos.
type Service interface {
	PresignPhotoUpload(ctx context.Context, userID uuid.UUID, input PresignInput) (*PresignOutput, error)
}

type service struct {
	gcs       gcsSigner
	bucket    string
	uploadTTL time.Duration
	maxBytes  int64
	now       func() time.Time
}

// ServiceParams groups the media service dependencies.
type ServiceParams struct {
	GCS    gcsSigner
	Config config.GCSConfig
	Now    func() time.Time
}

// NewService builds the photo presign service.
func NewService(params ServiceParams) (Service, error) {
	if params.GCS == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "gcs client required")
	}
	if params.Config.BucketName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "gcs bucket required")
	}
	uploadTTL := params.Config.UploadURLExpiry
	if uploadTTL <= 0 {
		uploadTTL = 15 * time.Minute
	}
	maxMB := params.Config.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 20
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		gcs:       params.GCS,
		bucket:    params.Config.BucketName,
		uploadTTL: uploadTTL,
		maxBytes:  int64(maxMB) * 1024 * 1024,
		now:       now,
	}, nil
}

func (s *service) PresignPhotoUpload(ctx context.Context, userID uuid.UUID, input PresignInput) (*PresignOutput, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}

	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file_name is required")
	}
	if input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size_bytes must be positive")
	}
	if input.SizeBytes > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("photo exceeds the %d MB limit", s.maxBytes/(1024*1024)))
	}

	mimeType := strings.TrimSpace(input.MimeType)
	if mimeType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mime_type is required")
	}
	if !isAllowedPhotoMime(mimeType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mime_type must be an image type").
			WithDetails(map[string]any{"allowed": allowedPhotoMimeTypes})
	}

	photoPath := buildPhotoPath(userID, fileName)
	signedURL, err := s.gcs.SignedURL(s.bucket, photoPath, mimeType, s.uploadTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url")
	}

	return &PresignOutput{
		PhotoPath:    photoPath,
		SignedPUTURL: signedURL,
		ContentType:  mimeType,
		ExpiresAt:    s.now().Add(s.uploadTTL),
	}, nil
}

func isAllowedPhotoMime(mimeType string) bool {
	for _, candidate := range allowedPhotoMimeTypes {
		if strings.EqualFold(candidate, mimeType) {
			return true
		}
	}
	return false
}

func buildPhotoPath(userID uuid.UUID, fileName string) string {
	cleanName := sanitizeFileName(fileName)
	objectID := uuid.New()
	if cleanName == "" {
		cleanName = objectID.String()
	}
	return fmt.Sprintf("photos/%s/%s-%s", userID, objectID, cleanName)
}

func sanitizeFileName(name string) string {
	if name == "" {
		return ""
	}
	clean := path.Base(strings.TrimSpace(name))
	if clean == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}
