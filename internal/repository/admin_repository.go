package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"creatorstribe/internal/models"
)

var (
	ErrAdminNotFound = errors.New("admin not found")
	ErrAdminExists   = errors.New("admin already exists")
)

type AdminRepository struct {
	pool *pgxpool.Pool
}

func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

const uniqueViolation = "23505"

const adminColumns = `id, email, display_name, password_hash, role, status, created_at, updated_at, last_login_at`

func scanAdmin(row pgx.Row) (models.Admin, error) {
	var admin models.Admin
	if err := row.Scan(
		&admin.ID,
		&admin.Email,
		&admin.DisplayName,
		&admin.PasswordHash,
		&admin.Role,
		&admin.Status,
		&admin.CreatedAt,
		&admin.UpdatedAt,
		&admin.LastLoginAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Admin{}, ErrAdminNotFound
		}
		return models.Admin{}, err
	}
	return admin, nil
}

// UpsertLogin records a successful login, creating the admin on first sight.
// An existing admin keeps its role, status and display name.
func (r *AdminRepository) UpsertLogin(ctx context.Context, admin models.Admin) (models.Admin, error) {
	const query = `
		INSERT INTO admins (
			id, email, display_name, role, status, created_at, updated_at, last_login_at
		) VALUES (
			$1, $2, $3, $4, $5, NOW(), NOW(), NOW()
		)
		ON CONFLICT (email)
		DO UPDATE SET
			last_login_at = NOW(),
			updated_at = NOW()
		RETURNING ` + adminColumns

	return scanAdmin(r.pool.QueryRow(ctx, query,
		admin.ID,
		admin.Email,
		admin.DisplayName,
		admin.Role,
		admin.Status,
	))
}

// Create inserts a password-backed admin. A taken email yields ErrAdminExists.
func (r *AdminRepository) Create(ctx context.Context, admin models.Admin) (models.Admin, error) {
	const query = `
		INSERT INTO admins (
			id, email, display_name, password_hash, role, status, created_at, updated_at, last_login_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, NOW(), NOW(), NOW()
		)
		RETURNING ` + adminColumns

	created, err := scanAdmin(r.pool.QueryRow(ctx, query,
		admin.ID,
		admin.Email,
		admin.DisplayName,
		admin.PasswordHash,
		admin.Role,
		admin.Status,
	))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return models.Admin{}, ErrAdminExists
	}
	return created, err
}

func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (models.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE email = $1`
	return scanAdmin(r.pool.QueryRow(ctx, query, email))
}

func (r *AdminRepository) GetByID(ctx context.Context, id string) (models.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE id = $1`
	return scanAdmin(r.pool.QueryRow(ctx, query, id))
}
