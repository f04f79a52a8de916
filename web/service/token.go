package service

import (
	"time"

	"gorm.io/gorm"

	"github.com/argo-inference/model-dashboard/database"
	"github.com/argo-inference/model-dashboard/database/model"
	"github.com/argo-inference/model-dashboard/logger"
	"github.com/argo-inference/model-dashboard/util/crypto"
	"github.com/argo-inference/model-dashboard/util/random"
)

const tokenBytes = 32

// TokenService issues, validates and revokes API bearer tokens. Only the
// SHA-256 digest of a token is ever stored; the raw value is returned exactly
// once at issuance.
type TokenService struct {
	userService UserService
}

// Issue creates a token for an existing active account and returns the raw
// value. Expiry is fixed at issuance and never extended; a zero or negative
// TTL produces a token that is already expired.
func (s *TokenService) Issue(owner, description string, ttlDays int) (string, *model.ApiToken, error) {
	user, err := s.userService.GetUser(owner)
	if err != nil {
		return "", nil, err
	}
	if !user.IsActive {
		return "", nil, ErrInactiveAccount
	}

	raw := random.Token(tokenBytes)
	now := time.Now()
	token := &model.ApiToken{
		OwnerUsername: owner,
		TokenHash:     crypto.HashToken(raw),
		Description:   description,
		CreatedAt:     now,
		ExpiresAt:     now.Add(time.Duration(ttlDays) * 24 * time.Hour),
	}

	db := database.GetDB()
	if err := db.Create(token).Error; err != nil {
		return "", nil, err
	}
	logger.Infof("issued API token for user: %s", owner)
	return raw, token, nil
}

// Validate checks a presented bearer token and returns the owner's identity.
// Revoked, expired and unknown tokens all collapse to ErrInvalidToken. The
// revocation check and the last-used update run in one transaction so a
// validate racing a committed revoke can never succeed.
func (s *TokenService) Validate(raw string) (*Identity, error) {
	hash := crypto.HashToken(raw)
	now := time.Now()

	var identity *Identity
	db := database.GetDB()
	err := db.Transaction(func(tx *gorm.DB) error {
		token := &model.ApiToken{}
		err := tx.Model(model.ApiToken{}).
			Where("token_hash = ?", hash).
			First(token).
			Error
		if database.IsNotFound(err) {
			return ErrInvalidToken
		} else if err != nil {
			return err
		}

		if token.Revoked || !now.Before(token.ExpiresAt) {
			return ErrInvalidToken
		}

		user, err := s.userService.GetUser(token.OwnerUsername)
		if err != nil || !user.IsActive {
			return ErrInvalidToken
		}

		// The guard on revoked = false makes a racing revoke win: if it
		// committed first this update matches no row.
		res := tx.Model(model.ApiToken{}).
			Where("token_hash = ? AND revoked = ?", hash, false).
			Update("last_used_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidToken
		}

		identity = &Identity{
			Username:    user.Username,
			DisplayName: user.DisplayName,
			Email:       user.Email,
			AuthMethod:  AuthMethodToken,
			Authorized:  true,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return identity, nil
}

// Revoke marks the token matching the raw value revoked. Revoking an unknown
// or already-revoked token is not an error.
func (s *TokenService) Revoke(raw string) error {
	db := database.GetDB()
	return db.Model(model.ApiToken{}).
		Where("token_hash = ?", crypto.HashToken(raw)).
		Update("revoked", true).
		Error
}

// RevokeByID revokes one of the owner's tokens from its listing id.
func (s *TokenService) RevokeByID(owner string, id int) error {
	db := database.GetDB()
	return db.Model(model.ApiToken{}).
		Where("id = ? AND owner_username = ?", id, owner).
		Update("revoked", true).
		Error
}

// DeleteByID removes one of the owner's token records entirely.
func (s *TokenService) DeleteByID(owner string, id int) error {
	db := database.GetDB()
	return db.Where("id = ? AND owner_username = ?", id, owner).
		Delete(&model.ApiToken{}).
		Error
}

// ListTokens returns the owner's tokens, newest first. Raw values are not
// recoverable; only metadata is listed.
func (s *TokenService) ListTokens(owner string) ([]*model.ApiToken, error) {
	db := database.GetDB()
	var tokens []*model.ApiToken
	err := db.Model(model.ApiToken{}).
		Where("owner_username = ?", owner).
		Order("created_at DESC").
		Find(&tokens).
		Error
	return tokens, err
}

// Sweep marks expired tokens revoked and returns how many rows changed.
// Validation already rejects expired tokens on its own; the sweep keeps the
// listing honest between requests.
func (s *TokenService) Sweep() (int64, error) {
	db := database.GetDB()
	res := db.Model(model.ApiToken{}).
		Where("revoked = ? AND expires_at <= ?", false, time.Now()).
		Update("revoked", true)
	return res.RowsAffected, res.Error
}
