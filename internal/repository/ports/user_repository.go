package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/neuroguard/neuroguard-api/internal/domain"
)

// UserRepository is the credential store contract. Uniqueness of email and
// phone is enforced by the store itself; Create surfaces the store's
// constraint violation rather than relying on a prior existence check.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByIdentifier(ctx context.Context, emailOrPhone string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	SetResetState(ctx context.Context, id uuid.UUID, codeHash []byte, expiresAt time.Time) error
	ClearResetState(ctx context.Context, id uuid.UUID) error
	MarkResetVerified(ctx context.Context, id uuid.UUID) error
	FindWithActiveReset(ctx context.Context, now time.Time) (*domain.User, error)
	FindWithVerifiedReset(ctx context.Context, now time.Time) (*domain.User, error)
	UpdatePasswordClearReset(ctx context.Context, id uuid.UUID, passwordHash []byte) error
}
