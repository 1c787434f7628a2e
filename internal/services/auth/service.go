package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/net/publicsuffix"

	"labelcheck/internal/domain"
	"labelcheck/internal/ports"
)

const (
	// MinPasswordLen counts characters, not bytes.
	MinPasswordLen = 6
	// bcrypt ignores input past 72 bytes.
	maxPasswordBytes = 72
)

type Service struct {
	users    ports.UserRepository
	sessions ports.SessionRepository
	ttl      time.Duration
	cost     int
	log      *zap.Logger
	now      func() time.Time

	// compared against when the email is unknown so both paths cost a bcrypt round
	dummyHash []byte
}

var _ ports.Auth = (*Service)(nil)

func New(users ports.UserRepository, sessions ports.SessionRepository, ttl time.Duration, log *zap.Logger) *Service {
	return newService(users, sessions, ttl, bcrypt.DefaultCost, log)
}

func newService(users ports.UserRepository, sessions ports.SessionRepository, ttl time.Duration, cost int, log *zap.Logger) *Service {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("labelcheck-dummy-password"), cost)
	return &Service{users: users, sessions: sessions, ttl: ttl, cost: cost, log: log, now: time.Now, dummyHash: dummy}
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: email address is not valid", domain.ErrInvalidInput)
	}
	at := strings.LastIndexByte(email, '@')
	if _, err := publicsuffix.EffectiveTLDPlusOne(email[at+1:]); err != nil {
		return fmt.Errorf("%w: email domain is not valid", domain.ErrInvalidInput)
	}
	return nil
}

func (s *Service) Register(ctx context.Context, in domain.Registration) (domain.User, domain.Session, error) {
	email := NormalizeEmail(in.Email)
	if err := validateEmail(email); err != nil {
		return domain.User{}, domain.Session{}, err
	}
	if utf8.RuneCountInString(in.Password) < MinPasswordLen {
		return domain.User{}, domain.Session{}, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, MinPasswordLen)
	}
	if len(in.Password) > maxPasswordBytes {
		return domain.User{}, domain.Session{}, fmt.Errorf("%w: password must be at most %d bytes", domain.ErrInvalidInput, maxPasswordBytes)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = email[:strings.LastIndexByte(email, '@')]
	}
	var company *string
	if c := strings.TrimSpace(in.Company); c != "" {
		company = &c
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return domain.User{}, domain.Session{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.users.CreateUser(ctx, domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Company:      company,
		CreatedAt:    s.now().UTC(),
	})
	if errors.Is(err, domain.ErrEmailAlreadyRegistered) {
		return domain.User{}, domain.Session{}, err
	}
	if err != nil {
		return domain.User{}, domain.Session{}, s.storeErr("create user", err)
	}
	sess, err := s.startSession(ctx, u.ID)
	if err != nil {
		return domain.User{}, domain.Session{}, err
	}
	s.log.Info("user registered", zap.Int64("user", u.ID))
	return u, sess, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (domain.User, domain.Session, error) {
	u, err := s.users.GetUserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return domain.User{}, domain.Session{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, domain.Session{}, s.storeErr("lookup user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, domain.Session{}, domain.ErrInvalidCredentials
	}
	sess, err := s.startSession(ctx, u.ID)
	if err != nil {
		return domain.User{}, domain.Session{}, err
	}
	return u, sess, nil
}

func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return domain.ErrAuthRequired
	}
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return s.storeErr("delete session", err)
	}
	return nil
}

// Current resolves a session id to its user. Unknown or expired sessions yield nil, nil.
func (s *Service) Current(ctx context.Context, sessionID string) (*domain.User, error) {
	if sessionID == "" {
		return nil, nil
	}
	sess, err := s.sessions.GetSession(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.storeErr("get session", err)
	}
	if !s.now().Before(sess.ExpiresAt) {
		if err := s.sessions.DeleteSession(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			s.log.Warn("expired session cleanup failed", zap.Error(err))
		}
		return nil, nil
	}
	u, err := s.users.GetUserByID(ctx, sess.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.storeErr("get user", err)
	}
	return &u, nil
}

func (s *Service) startSession(ctx context.Context, userID int64) (domain.Session, error) {
	id, err := newSessionID()
	if err != nil {
		return domain.Session{}, fmt.Errorf("session id: %w", err)
	}
	now := s.now().UTC()
	sess := domain.Session{ID: id, UserID: userID, CreatedAt: now, ExpiresAt: now.Add(s.ttl)}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		return domain.Session{}, s.storeErr("create session", err)
	}
	return sess, nil
}

func newSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (s *Service) storeErr(op string, err error) error {
	s.log.Error(op, zap.Error(err))
	return fmt.Errorf("%s: %w", op, domain.ErrStoreUnavailable)
}
