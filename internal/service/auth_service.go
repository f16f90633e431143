package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/neuroguard/neuroguard-api/internal/domain"
	"github.com/neuroguard/neuroguard-api/internal/repository/ports"
	"github.com/neuroguard/neuroguard-api/internal/util"
)

const pgUniqueViolation = "23505"

// ResetCodeSender delivers the plaintext reset code to the account's
// registered contact channel.
type ResetCodeSender interface {
	SendResetCode(ctx context.Context, user *domain.User, code string) error
}

// AuthService orchestrates registration, credential login and the
// three-step password-reset flow against the credential store.
type AuthService struct {
	users    ports.UserRepository
	mailer   ResetCodeSender
	jwt      *util.JWTManager
	resetTTL time.Duration

	now func() time.Time
}

func NewAuthService(users ports.UserRepository, mailer ResetCodeSender, jwtManager *util.JWTManager, resetTTL time.Duration) *AuthService {
	return &AuthService{
		users:    users,
		mailer:   mailer,
		jwt:      jwtManager,
		resetTTL: resetTTL,
		now:      time.Now,
	}
}

// RegisterInput carries the registration fields as submitted.
type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	DateOfBirth time.Time
	Gender      string
	Phone       string
	Country     *string
	Address     *string
	Role        string
}

// Session is a freshly issued client-held credential.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Register creates the account and issues a session immediately, so a new
// user is logged in without a second round trip.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, *Session, error) {
	if strings.TrimSpace(in.FirstName) == "" ||
		strings.TrimSpace(in.LastName) == "" ||
		strings.TrimSpace(in.Email) == "" ||
		in.Password == "" ||
		in.DateOfBirth.IsZero() ||
		strings.TrimSpace(in.Gender) == "" ||
		strings.TrimSpace(in.Phone) == "" {
		return nil, nil, domain.NewValidation("Please provide all required fields")
	}

	role := domain.DefaultRole
	if strings.TrimSpace(in.Role) != "" {
		role = domain.Role(in.Role)
		if !role.Valid() {
			return nil, nil, domain.NewValidation("Invalid role. Allowed roles are: Doctor, Patient, Amenities, Admin")
		}
	}

	gender := domain.Gender(in.Gender)
	if !gender.Valid() {
		return nil, nil, domain.NewValidation("Gender must be Male or Female")
	}

	passwordHash, err := util.HashSecret(in.Password, util.PasswordCost)
	if err != nil {
		return nil, nil, domain.NewInternal(err)
	}

	user := &domain.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: passwordHash,
		DateOfBirth:  in.DateOfBirth,
		Gender:       gender,
		Country:      in.Country,
		Address:      in.Address,
		Role:         role,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, nil, domain.NewConflict("User already exists with this email or phone number")
		}
		return nil, nil, domain.NewInternal(err)
	}

	session, err := s.issueSession(created)
	if err != nil {
		return nil, nil, domain.NewInternal(err)
	}
	return created, session, nil
}

// Login verifies a credential pair. The identifier matches either email or
// phone. A wrong password yields the same message whichever part was
// wrong, so the response never reveals which field failed.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*Session, error) {
	if strings.TrimSpace(identifier) == "" || password == "" {
		return nil, domain.NewValidation("Please provide email/phone and password")
	}

	user, err := s.users.FindByIdentifier(ctx, normalizeIdentifier(identifier))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFound("User not found")
		}
		return nil, domain.NewInternal(err)
	}

	if !util.VerifySecret(password, user.PasswordHash) {
		return nil, domain.NewInvalidCredentials("Email/Phone or password is incorrect")
	}

	session, err := s.issueSession(user)
	if err != nil {
		return nil, domain.NewInternal(err)
	}
	return session, nil
}

// ForgotPassword issues a reset code valid for the configured window and
// hands it to the notification sink. If delivery fails the reset state is
// rolled back so no code is left pending that the user never received.
func (s *AuthService) ForgotPassword(ctx context.Context, identifier string) error {
	if strings.TrimSpace(identifier) == "" {
		return domain.NewValidation("Please provide email or phone")
	}

	user, err := s.users.FindByIdentifier(ctx, normalizeIdentifier(identifier))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewNotFound("User not found")
		}
		return domain.NewInternal(err)
	}

	code, err := util.GenerateResetCode()
	if err != nil {
		return domain.NewInternal(err)
	}
	codeHash, err := util.HashSecret(code, util.ResetCodeCost)
	if err != nil {
		return domain.NewInternal(err)
	}

	expiresAt := s.now().Add(s.resetTTL)
	if err := s.users.SetResetState(ctx, user.ID, codeHash, expiresAt); err != nil {
		return domain.NewInternal(err)
	}

	if err := s.mailer.SendResetCode(ctx, user, code); err != nil {
		if clearErr := s.users.ClearResetState(ctx, user.ID); clearErr != nil {
			return domain.NewInternal(clearErr)
		}
		return domain.NewDelivery("Failed to send password reset code", err)
	}
	return nil
}

// VerifyResetCode checks a submitted code against the pending reset. A
// wrong code and an expired one are indistinguishable to the caller.
func (s *AuthService) VerifyResetCode(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return domain.NewValidation("Please provide reset code")
	}

	user, err := s.users.FindWithActiveReset(ctx, s.now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewInvalidOrExpired("Invalid or expired reset code")
		}
		return domain.NewInternal(err)
	}

	if !util.VerifySecret(strings.TrimSpace(code), user.ResetCodeHash) {
		return domain.NewInvalidOrExpired("Invalid or expired reset code")
	}

	if err := s.users.MarkResetVerified(ctx, user.ID); err != nil {
		return domain.NewInternal(err)
	}
	return nil
}

// ResetPassword consumes a verified reset: it trusts the flag set by
// VerifyResetCode, stores the new credential and clears the reset state in
// the same store operation.
func (s *AuthService) ResetPassword(ctx context.Context, newPassword string) error {
	if newPassword == "" {
		return domain.NewValidation("Please provide new password")
	}

	user, err := s.users.FindWithVerifiedReset(ctx, s.now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewInvalidOrExpired("Invalid or expired reset code")
		}
		return domain.NewInternal(err)
	}

	passwordHash, err := util.HashSecret(newPassword, util.PasswordCost)
	if err != nil {
		return domain.NewInternal(err)
	}

	if err := s.users.UpdatePasswordClearReset(ctx, user.ID, passwordHash); err != nil {
		return domain.NewInternal(err)
	}
	return nil
}

// Authenticate validates a session token and returns its claims.
func (s *AuthService) Authenticate(token string) (*util.Claims, error) {
	claims, err := s.jwt.Validate(token)
	if err != nil {
		return nil, domain.NewInvalidToken("Invalid or expired token")
	}
	return claims, nil
}

func (s *AuthService) issueSession(user *domain.User) (*Session, error) {
	token, expiresAt, err := s.jwt.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expiresAt}, nil
}

// normalizeIdentifier matches the registration-time normalization: emails
// are stored lowercased, and lowercasing a phone number is a no-op, so the
// same transform serves both lookup paths.
func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
