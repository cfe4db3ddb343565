package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"creatorstribe/internal/models"
)

var ErrMediaNotFound = errors.New("media not found")

type MediaRepository struct {
	pool *pgxpool.Pool
}

func NewMediaRepository(pool *pgxpool.Pool) *MediaRepository {
	return &MediaRepository{pool: pool}
}

const mediaColumns = `id, uploaded_by, bucket, object_key, format, content_type, size_bytes, checksum, signature, created_at`

func (r *MediaRepository) Create(ctx context.Context, media models.Media) error {
	const query = `
		INSERT INTO media (
			id, uploaded_by, bucket, object_key, format, content_type, size_bytes, checksum, signature, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		media.ID,
		media.UploadedBy,
		media.Bucket,
		media.ObjectKey,
		media.Format,
		media.ContentType,
		media.SizeBytes,
		media.Checksum,
		media.Signature,
	)
	return err
}

func (r *MediaRepository) GetByID(ctx context.Context, id string) (models.Media, error) {
	query := `SELECT ` + mediaColumns + ` FROM media WHERE id = $1`
	media, err := scanMedia(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Media{}, ErrMediaNotFound
	}
	return media, err
}

func (r *MediaRepository) List(ctx context.Context, limit, offset int) ([]models.Media, error) {
	query := `SELECT ` + mediaColumns + ` FROM media ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.Media
	for rows.Next() {
		media, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, media)
	}
	return items, rows.Err()
}

func scanMedia(row pgx.Row) (models.Media, error) {
	var media models.Media
	err := row.Scan(
		&media.ID,
		&media.UploadedBy,
		&media.Bucket,
		&media.ObjectKey,
		&media.Format,
		&media.ContentType,
		&media.SizeBytes,
		&media.Checksum,
		&media.Signature,
		&media.CreatedAt,
	)
	return media, err
}
