package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/rs/zerolog"

	"creatorstribe/internal/config"
	"creatorstribe/internal/ids"
	"creatorstribe/internal/media/sniffer"
	"creatorstribe/internal/media/svg"
	"creatorstribe/internal/models"
	"creatorstribe/internal/security"
)

var (
	ErrEmptyFile       = errors.New("empty file")
	ErrFileTooLarge    = errors.New("file too large")
	ErrTypeMismatch    = errors.New("content type mismatch")
	ErrUnsupportedType = errors.New("unsupported image type")
)

type ObjectStore interface {
	Bucket() string
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (int64, error)
	Remove(ctx context.Context, key string) error
	PublicURL(key string) string
}

type MediaStore interface {
	Create(ctx context.Context, media models.Media) error
}

type UploadInput struct {
	AdminID      string
	File         io.Reader
	DeclaredType string
}

type UploadResult struct {
	Media models.Media
	URL   string
}

type UploadService struct {
	media MediaStore
	store ObjectStore
	cfg   *config.AppConfig
	log   zerolog.Logger
	now   func() time.Time
}

func NewUploadService(media MediaStore, store ObjectStore, cfg *config.AppConfig, log zerolog.Logger) *UploadService {
	return &UploadService{
		media: media,
		store: store,
		cfg:   cfg,
		log:   log.With().Str("component", "upload").Logger(),
		now:   time.Now,
	}
}

// Upload stores a creator image and records its metadata. The returned URL is
// what callers put into a creator's image_url.
func (s *UploadService) Upload(ctx context.Context, input UploadInput) (UploadResult, error) {
	if input.File == nil {
		return UploadResult{}, ErrEmptyFile
	}

	limit := s.cfg.Storage.MaxUpload
	data, err := io.ReadAll(io.LimitReader(input.File, limit+1))
	if err != nil {
		return UploadResult{}, fmt.Errorf("read file: %w", err)
	}
	if len(data) == 0 {
		return UploadResult{}, ErrEmptyFile
	}
	if int64(len(data)) > limit {
		return UploadResult{}, ErrFileTooLarge
	}

	head := data
	if len(head) > sniffer.HeadSize {
		head = head[:sniffer.HeadSize]
	}
	result, err := sniffer.DetectHead(head)
	if err != nil {
		return UploadResult{}, ErrUnsupportedType
	}

	if input.DeclaredType != "" && input.DeclaredType != "application/octet-stream" && input.DeclaredType != result.MIME {
		return UploadResult{}, fmt.Errorf("%w: declared %s, actual %s", ErrTypeMismatch, input.DeclaredType, result.MIME)
	}

	if result.Type == sniffer.TypeSVG {
		clean, err := svg.Sanitize(data)
		if err != nil {
			return UploadResult{}, fmt.Errorf("sanitize svg: %w", err)
		}
		data = clean
	}

	mediaID := ids.New()
	objectKey := s.buildObjectKey(mediaID, result.Extension())

	size, err := s.store.Put(ctx, objectKey, bytes.NewReader(data), int64(len(data)), result.MIME)
	if err != nil {
		return UploadResult{}, err
	}

	sum := sha256.Sum256(data)
	bucket := s.store.Bucket()
	item := models.Media{
		ID:          mediaID,
		UploadedBy:  input.AdminID,
		Bucket:      bucket,
		ObjectKey:   objectKey,
		Format:      string(result.Type),
		ContentType: result.MIME,
		SizeBytes:   size,
		Checksum:    sum[:],
		Signature:   security.SignResource(s.cfg.Security.SignatureSecret, mediaID, bucket, objectKey),
		CreatedAt:   s.now().UTC(),
	}

	if err := s.media.Create(ctx, item); err != nil {
		if rmErr := s.store.Remove(ctx, objectKey); rmErr != nil {
			s.log.Warn().Err(rmErr).Str("object_key", objectKey).Msg("remove orphaned object failed")
		}
		return UploadResult{}, fmt.Errorf("save metadata: %w", err)
	}

	s.log.Info().Str("media_id", mediaID).Str("object_key", objectKey).Int64("size", size).Msg("media uploaded")

	return UploadResult{
		Media: item,
		URL:   s.store.PublicURL(objectKey),
	}, nil
}

func (s *UploadService) buildObjectKey(mediaID string, ext string) string {
	datePrefix := s.now().UTC().Format("2006/01/02")
	return path.Join("creators", datePrefix, fmt.Sprintf("%s.%s", mediaID, ext))
}
