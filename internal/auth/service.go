// Package auth issues sessions through password sign-in and emailed one-time codes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/suteetoe/rfitrack/internal/model"
	"github.com/suteetoe/rfitrack/internal/store"
	"github.com/suteetoe/rfitrack/pkg/config"
	"github.com/suteetoe/rfitrack/pkg/jwtutil"
	"github.com/suteetoe/rfitrack/pkg/logger"
	"github.com/suteetoe/rfitrack/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

var (
	// ErrInvalidCredentials covers every password sign-in failure
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidCode indicates a wrong code; the same code may be retried
	ErrInvalidCode = errors.New("invalid code")
	// ErrCodeExpired indicates there is no usable code; a new one must be requested
	ErrCodeExpired = errors.New("code expired or already used")
	// ErrInvalidInput indicates a malformed request
	ErrInvalidInput = errors.New("invalid auth input")
)

// Store is the persistence auth needs
type Store interface {
	CreateProfile(ctx context.Context, p *model.Profile) error
	GetProfileByEmail(ctx context.Context, email string) (*model.Profile, error)
	SetPasswordHash(ctx context.Context, userID, hash string) error
	ReplaceOTP(ctx context.Context, code *model.OTPCode, now time.Time) error
	LatestOTP(ctx context.Context, email string, purpose model.OTPPurpose) (*model.OTPCode, error)
	IncrementOTPAttempts(ctx context.Context, id string) error
	ConsumeOTP(ctx context.Context, id string, at time.Time) error
}

// Session is a signed-in user
type Session struct {
	Token   string         `json:"token"`
	Profile *model.Profile `json:"profile"`
	Next    Flow           `json:"next"`
}

// Service handles sign-in
type Service struct {
	store  Store
	tokens *jwtutil.JWTUtil
	mailer Mailer
	cfg    config.AuthConfig
	now    func() time.Time
}

// NewService creates an auth service
func NewService(st Store, tokens *jwtutil.JWTUtil, mailer Mailer, cfg config.AuthConfig) *Service {
	return &Service{
		store:  st,
		tokens: tokens,
		mailer: mailer,
		cfg:    cfg,
		now:    time.Now,
	}
}

func purposeFor(mode Mode) model.OTPPurpose {
	if mode == ModeSignup {
		return model.OTPSignup
	}
	return model.OTPLogin
}

// Login signs in with email and password
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = NormalizeEmail(email)
	log := logger.FromContext(ctx).With(zap.String("email", email))

	profile, err := s.store.GetProfileByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		metrics.RecordAuthAttempt("password", "failure")
		log.Info("Login for unknown email")
		return nil, ErrInvalidCredentials
	}

	if profile.PasswordHash == nil ||
		bcrypt.CompareHashAndPassword([]byte(*profile.PasswordHash), []byte(password)) != nil {
		metrics.RecordAuthAttempt("password", "failure")
		log.Info("Password mismatch")
		return nil, ErrInvalidCredentials
	}

	metrics.RecordAuthAttempt("password", "success")
	return s.session(profile, Flow{Mode: ModeLogin, Step: StepDone})
}

// RequestCode emails a one-time code. In login mode an unknown email gets the
// same response but no code, so the endpoint can't be used to probe accounts.
func (s *Service) RequestCode(ctx context.Context, email string, shouldCreateUser bool) (Flow, error) {
	flow := Flow{Mode: ModeFor(shouldCreateUser), Step: StepEmail}
	email = NormalizeEmail(email)
	if !strings.Contains(email, "@") {
		return flow, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	log := logger.FromContext(ctx).With(zap.String("email", email), zap.String("mode", string(flow.Mode)))

	if flow.Mode == ModeLogin {
		_, err := s.store.GetProfileByEmail(ctx, email)
		if errors.Is(err, store.ErrNotFound) {
			log.Info("Code requested for unknown email, not sending")
			return flow.CodeSent(), nil
		}
		if err != nil {
			return flow, err
		}
	}

	code, err := generateCode(s.cfg.OTPLength)
	if err != nil {
		return flow, fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cfg.BcryptCost)
	if err != nil {
		return flow, fmt.Errorf("hash code: %w", err)
	}

	now := s.now()
	otp := &model.OTPCode{
		Email:     email,
		Purpose:   purposeFor(flow.Mode),
		CodeHash:  string(hash),
		ExpiresAt: now.Add(s.cfg.OTPTTL),
		CreatedAt: now,
	}
	if err := s.store.ReplaceOTP(ctx, otp, now); err != nil {
		return flow, err
	}
	if err := s.mailer.SendCode(ctx, email, code, otp.Purpose); err != nil {
		return flow, fmt.Errorf("send code: %w", err)
	}

	log.Info("One-time code sent")
	return flow.CodeSent(), nil
}

// VerifyCode checks a one-time code and signs the user in. Signup creates the
// profile on first verification. The returned Flow is meaningful on error too.
func (s *Service) VerifyCode(ctx context.Context, email, code string, shouldCreateUser bool) (*Session, Flow, error) {
	flow := Flow{Mode: ModeFor(shouldCreateUser), Step: StepCode}
	email = NormalizeEmail(email)
	log := logger.FromContext(ctx).With(zap.String("email", email), zap.String("mode", string(flow.Mode)))

	otp, err := s.store.LatestOTP(ctx, email, purposeFor(flow.Mode))
	if errors.Is(err, store.ErrNotFound) {
		metrics.RecordAuthAttempt("otp", "expired")
		return nil, flow.Back(), ErrCodeExpired
	}
	if err != nil {
		return nil, flow, err
	}

	now := s.now()
	if now.After(otp.ExpiresAt) || otp.Attempts >= s.cfg.OTPMaxAttempts {
		metrics.RecordAuthAttempt("otp", "expired")
		return nil, flow.Back(), ErrCodeExpired
	}

	if !validCodeFormat(code, s.cfg.OTPLength) ||
		bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(code)) != nil {
		if err := s.store.IncrementOTPAttempts(ctx, otp.ID); err != nil {
			return nil, flow, err
		}
		metrics.RecordAuthAttempt("otp", "failure")
		log.Info("Wrong one-time code", zap.Int("attempts", otp.Attempts+1))
		if otp.Attempts+1 >= s.cfg.OTPMaxAttempts {
			return nil, flow.Back(), ErrCodeExpired
		}
		return nil, flow, ErrInvalidCode
	}

	if err := s.store.ConsumeOTP(ctx, otp.ID, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, flow.Back(), ErrCodeExpired
		}
		return nil, flow, err
	}

	profile, err := s.store.GetProfileByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound) && flow.Mode == ModeSignup:
		profile = &model.Profile{Email: email}
		if err := s.store.CreateProfile(ctx, profile); err != nil {
			return nil, flow, err
		}
		log.Info("Profile created", zap.String("user_id", profile.ID))
	case errors.Is(err, store.ErrNotFound):
		return nil, flow.Back(), ErrCodeExpired
	case err != nil:
		return nil, flow, err
	}

	metrics.RecordAuthAttempt("otp", "success")
	session, err := s.session(profile, flow.Verified(profile.FullName != nil && *profile.FullName != ""))
	if err != nil {
		return nil, flow, err
	}
	return session, session.Next, nil
}

// SetPassword sets or replaces the signed-in user's password
func (s *Service) SetPassword(ctx context.Context, userID, password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.store.SetPasswordHash(ctx, userID, string(hash))
}

func (s *Service) session(profile *model.Profile, next Flow) (*Session, error) {
	token, err := s.tokens.GenerateToken(profile.Email, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{Token: token, Profile: profile, Next: next}, nil
}
