package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aijournal/journal-api/internal/core/domain"
	"github.com/aijournal/journal-api/internal/core/ports"
	"github.com/aijournal/journal-api/pkg/hash"
	"github.com/aijournal/journal-api/pkg/metrics"
)

// AuthOptions tunes AuthService policy.
type AuthOptions struct {
	TokenTTL          time.Duration
	PasswordMinLength int
}

// AuthService implements registration, login and token authentication.
type AuthService struct {
	users      ports.Collection[domain.User]
	serializer ports.WriteSerializer
	hasher     ports.PasswordHasher
	signer     ports.TokenSigner
	validate   *validator.Validate
	opts       AuthOptions
	logger     zerolog.Logger
	now        func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	users ports.Collection[domain.User],
	serializer ports.WriteSerializer,
	hasher ports.PasswordHasher,
	signer ports.TokenSigner,
	opts AuthOptions,
	logger zerolog.Logger,
) *AuthService {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 2 * time.Hour
	}
	if opts.PasswordMinLength <= 0 {
		opts.PasswordMinLength = 6
	}
	return &AuthService{
		users:      users,
		serializer: serializer,
		hasher:     hasher,
		signer:     signer,
		validate:   validator.New(),
		opts:       opts,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

func (s *AuthService) validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrValidation)
	}
	if err := s.validate.Var(email, "email"); err != nil {
		return fmt.Errorf("%w: email must be a valid email", domain.ErrValidation)
	}
	return nil
}

// Register creates a principal. The email is trimmed and must not already be
// registered; the uniqueness check and the insert share one critical section
// on the users collection.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if err := s.validateEmail(email); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(password) < s.opts.PasswordMinLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, s.opts.PasswordMinLength)
	}

	// Hashing is slow; keep it out of the critical section.
	hashed, err := s.hasher.Hash(password)
	if errors.Is(err, hash.ErrPasswordTooLong) {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", domain.ErrValidation, hash.MaxPasswordBytes)
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var created domain.User
	err = s.serializer.WithExclusiveAccess(ctx, domain.CollectionUsers, func(ctx context.Context) error {
		snap, err := s.users.Load(ctx)
		if err != nil {
			return err
		}
		if domain.FindUserByEmail(snap.Records, email) != nil {
			return domain.ErrEmailTaken
		}

		created = domain.User{
			ID:           snap.NextID(),
			Email:        email,
			PasswordHash: hashed,
			CreatedAt:    s.now().UTC(),
		}
		snap.Records = append(snap.Records, created)
		return s.users.Save(ctx, snap)
	})
	if err != nil {
		return nil, err
	}

	metrics.RegistrationsTotal.Inc()
	s.logger.Info().Int64("user_id", created.ID).Msg("user registered")
	return &created, nil
}

// Login verifies credentials and issues a bearer token. Unknown emails and
// wrong passwords fail with the same error after comparable work.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, domain.AuthContext, error) {
	email = strings.TrimSpace(email)
	if err := s.validateEmail(email); err != nil {
		return "", domain.AuthContext{}, err
	}
	if password == "" {
		return "", domain.AuthContext{}, fmt.Errorf("%w: password is required", domain.ErrValidation)
	}

	snap, err := s.users.Load(ctx)
	if err != nil {
		return "", domain.AuthContext{}, err
	}

	user := domain.FindUserByEmail(snap.Records, email)
	if user == nil {
		s.burnCompare(password)
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return "", domain.AuthContext{}, domain.ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return "", domain.AuthContext{}, domain.ErrInvalidCredentials
	}

	issued := s.now().UTC().Truncate(time.Second)
	auth := domain.AuthContext{
		PrincipalID: user.ID,
		Email:       user.Email,
		IssuedAt:    issued,
		ExpiresAt:   issued.Add(s.opts.TokenTTL),
		TokenID:     uuid.NewString(),
	}
	token, err := s.signer.Sign(auth)
	if err != nil {
		return "", domain.AuthContext{}, fmt.Errorf("sign token: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.logger.Info().Int64("user_id", user.ID).Str("jti", auth.TokenID).Msg("token issued")
	return token, auth, nil
}

// burnCompare runs a hash comparison that always fails, so an unknown email
// costs as much as a wrong password.
func (s *AuthService) burnCompare(password string) {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("not-a-real-password")
		if err != nil {
			s.logger.Warn().Err(err).Msg("dummy hash unavailable")
			return
		}
		s.dummyHash = h
	})
	if s.dummyHash != "" {
		_ = s.hasher.Compare(s.dummyHash, password)
	}
}

// Authenticate resolves a bearer token. Every verification failure,
// including expiry, is reported as domain.ErrTokenInvalid.
func (s *AuthService) Authenticate(_ context.Context, token string) (domain.AuthContext, error) {
	if token == "" {
		return domain.AuthContext{}, domain.ErrTokenMissing
	}
	auth, err := s.signer.Verify(token)
	if err != nil {
		s.logger.Debug().Err(err).Msg("token rejected")
		return domain.AuthContext{}, domain.ErrTokenInvalid
	}
	if auth.IsZero() {
		return domain.AuthContext{}, domain.ErrTokenInvalid
	}
	return auth, nil
}

// Me returns the caller's public identity.
func (s *AuthService) Me(ctx context.Context, auth domain.AuthContext) (*domain.User, error) {
	if auth.IsZero() {
		return nil, domain.ErrTokenMissing
	}
	snap, err := s.users.Load(ctx)
	if err != nil {
		return nil, err
	}
	user := domain.FindUserByID(snap.Records, auth.PrincipalID)
	if user == nil {
		// The token outlived its principal, e.g. after the data was reset.
		return nil, domain.ErrTokenInvalid
	}
	out := *user
	return &out, nil
}

var _ ports.AuthService = (*AuthService)(nil)

