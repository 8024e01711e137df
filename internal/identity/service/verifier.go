package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/opsdesk/internal/identity/domain"
	"gorm.io/gorm"
)

type tokenVerifier struct {
	db   *gorm.DB
	repo domain.Repository
}

// NewVerifier resolves bearer tokens against the api_tokens table.
func NewVerifier(db *gorm.DB, repo domain.Repository) domain.Verifier {
	return &tokenVerifier{db: db, repo: repo}
}

func (v *tokenVerifier) Verify(ctx context.Context, token string) (*domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrInvalidToken
	}

	user, err := v.repo.FindByToken(ctx, v.db, token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrInvalidToken
	}
	return user, nil
}
