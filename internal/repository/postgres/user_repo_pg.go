package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/neuroguard/neuroguard-api/internal/domain"
)

const userColumns = `id, first_name, last_name, email, phone, password_hash, date_of_birth, gender, country, address, role, reset_code_hash, reset_expires_at, reset_verified, created_at, updated_at`

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	const query = `
        INSERT INTO user_account (first_name, last_name, email, phone, password_hash, date_of_birth, gender, country, address, role)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING ` + userColumns
	row := r.db.QueryRowxContext(ctx, query,
		user.FirstName, user.LastName, user.Email, user.Phone, user.PasswordHash,
		user.DateOfBirth, user.Gender, user.Country, user.Address, user.Role)
	var created domain.User
	if err := row.StructScan(&created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *UserRepository) FindByIdentifier(ctx context.Context, emailOrPhone string) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM user_account
        WHERE email = $1 OR phone = $1
    `
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, emailOrPhone); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM user_account
        WHERE id = $1
    `
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) SetResetState(ctx context.Context, id uuid.UUID, codeHash []byte, expiresAt time.Time) error {
	const query = `
        UPDATE user_account
        SET reset_code_hash = $2,
            reset_expires_at = $3,
            reset_verified = FALSE,
            updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.db.ExecContext(ctx, query, id, codeHash, expiresAt)
	return err
}

func (r *UserRepository) ClearResetState(ctx context.Context, id uuid.UUID) error {
	const query = `
        UPDATE user_account
        SET reset_code_hash = NULL,
            reset_expires_at = NULL,
            reset_verified = FALSE,
            updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *UserRepository) MarkResetVerified(ctx context.Context, id uuid.UUID) error {
	const query = `
        UPDATE user_account
        SET reset_verified = TRUE,
            updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// FindWithActiveReset returns the record holding an unexpired reset code.
// When several are pending simultaneously the newest expiry wins.
func (r *UserRepository) FindWithActiveReset(ctx context.Context, now time.Time) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM user_account
        WHERE reset_code_hash IS NOT NULL AND reset_expires_at > $1
        ORDER BY reset_expires_at DESC
        LIMIT 1
    `
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, now); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindWithVerifiedReset(ctx context.Context, now time.Time) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM user_account
        WHERE reset_code_hash IS NOT NULL AND reset_expires_at > $1 AND reset_verified = TRUE
        ORDER BY reset_expires_at DESC
        LIMIT 1
    `
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, now); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePasswordClearReset swaps the credential and wipes the reset state
// in one statement so the two can never diverge.
func (r *UserRepository) UpdatePasswordClearReset(ctx context.Context, id uuid.UUID, passwordHash []byte) error {
	const query = `
        UPDATE user_account
        SET password_hash = $2,
            reset_code_hash = NULL,
            reset_expires_at = NULL,
            reset_verified = FALSE,
            updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.db.ExecContext(ctx, query, id, passwordHash)
	return err
}
