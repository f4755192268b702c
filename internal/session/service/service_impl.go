package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/smallbiznis/nel3/internal/clock"
	"github.com/smallbiznis/nel3/internal/config"
	"github.com/smallbiznis/nel3/internal/observability/logger"
	"github.com/smallbiznis/nel3/internal/session/domain"
	"github.com/smallbiznis/nel3/internal/storage"
	"github.com/smallbiznis/nel3/internal/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const issuer = "nel3"

type Params struct {
	fx.In

	Config config.Config
	KV     storage.KV
	Clock  clock.Clock
	Log    *zap.Logger
}

type account struct {
	user domain.User
	hash []byte
}

type Service struct {
	kv       storage.KV
	clock    clock.Clock
	log      *zap.Logger
	secret   []byte
	ttl      time.Duration
	prefix   string
	accounts map[string]account
}

type claims struct {
	Role      domain.Role `json:"role"`
	PartnerID string      `json:"partnerId,omitempty"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	jwt.RegisteredClaims
}

// record is the persisted current-user entry, one per user.
type record struct {
	User      domain.User `json:"user"`
	TokenID   string      `json:"tokenId"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// mockUsers are the two fixed sign-in identities.
var mockUsers = []struct {
	user     domain.User
	password string
}{
	{domain.User{ID: "u1", Name: "Operador NEL3", Email: "operador@nel3.com.br", Role: domain.RoleOperator}, "nel3@2024"},
	{domain.User{ID: "u2", Name: "Hospital São Lucas", Email: "contato@saolucas.com.br", Role: domain.RoleHospital, PartnerID: "p1"}, "hospital@2024"},
}

func New(p Params) (domain.Service, error) {
	secret := strings.TrimSpace(p.Config.AuthJWTSecret)
	if secret == "" {
		return nil, errors.New("session: AUTH_JWT_SECRET is required")
	}
	ttl := time.Duration(p.Config.AuthTokenTTLMin) * time.Minute
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	accounts := make(map[string]account, len(mockUsers))
	for _, m := range mockUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(m.password), bcrypt.MinCost)
		if err != nil {
			return nil, fmt.Errorf("session: hash password: %w", err)
		}
		accounts[strings.ToLower(m.user.Email)] = account{user: m.user, hash: hash}
	}

	return &Service{
		kv:       p.KV,
		clock:    p.Clock,
		log:      p.Log.Named("session.service"),
		secret:   []byte(secret),
		ttl:      ttl,
		prefix:   p.Config.AppName + ".session.",
		accounts: accounts,
	}, nil
}

func (s *Service) Users() []domain.User {
	out := make([]domain.User, 0, len(mockUsers))
	for _, m := range mockUsers {
		out = append(out, m.user)
	}
	return out
}

func (s *Service) SignIn(ctx context.Context, req domain.SignInRequest) (domain.Session, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validation.Struct("session", req); err != nil {
		return domain.Session{}, err
	}
	acc, ok := s.accounts[req.Email]
	if !ok || bcrypt.CompareHashAndPassword(acc.hash, []byte(req.Password)) != nil {
		logger.WithContext(ctx, s.log).Warn("sign in refused", zap.String("email", req.Email))
		return domain.Session{}, domain.ErrInvalidCredentials
	}

	now := s.clock.Now()
	expires := now.Add(s.ttl)
	tokenID := uuid.NewString()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role:      acc.user.Role,
		PartnerID: acc.user.PartnerID,
		Name:      acc.user.Name,
		Email:     acc.user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Issuer:    issuer,
			Subject:   acc.user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return domain.Session{}, err
	}

	raw, err := storage.Encode(record{User: acc.user, TokenID: tokenID, ExpiresAt: expires})
	if err != nil {
		return domain.Session{}, err
	}
	if err := s.kv.Put(ctx, s.prefix+acc.user.ID, raw); err != nil {
		return domain.Session{}, err
	}

	logger.WithContext(ctx, s.log).Info("signed in", zap.String("user_id", acc.user.ID), zap.String("role", string(acc.user.Role)))
	return domain.Session{Token: signed, ExpiresAt: expires, User: acc.user}, nil
}

func (s *Service) parse(token string) (*claims, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil || !parsed.Valid {
		return nil, domain.ErrUnauthenticated
	}
	return &c, nil
}

func (s *Service) load(ctx context.Context, userID string) (record, bool, error) {
	raw, ok, err := s.kv.Get(ctx, s.prefix+userID)
	if err != nil || !ok {
		return record{}, false, err
	}
	var rec record
	if err := storage.Decode(raw, &rec); err != nil {
		return record{}, false, err
	}
	return rec, true, nil
}

func (s *Service) Verify(ctx context.Context, token string) (domain.User, error) {
	c, err := s.parse(strings.TrimSpace(token))
	if err != nil {
		return domain.User{}, err
	}
	rec, ok, err := s.load(ctx, c.Subject)
	if err != nil {
		return domain.User{}, err
	}
	if !ok || rec.TokenID != c.ID {
		return domain.User{}, domain.ErrUnauthenticated
	}
	return rec.User, nil
}

func (s *Service) SignOut(ctx context.Context, token string) error {
	c, err := s.parse(strings.TrimSpace(token))
	if err != nil {
		return err
	}
	rec, ok, err := s.load(ctx, c.Subject)
	if err != nil {
		return err
	}
	if !ok || rec.TokenID != c.ID {
		return nil
	}
	if err := s.kv.Delete(ctx, s.prefix+c.Subject); err != nil {
		return err
	}
	logger.WithContext(ctx, s.log).Info("signed out", zap.String("user_id", c.Subject))
	return nil
}
