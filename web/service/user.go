package service

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/argo-inference/model-dashboard/database"
	"github.com/argo-inference/model-dashboard/database/model"
	"github.com/argo-inference/model-dashboard/logger"
	"github.com/argo-inference/model-dashboard/util/crypto"
)

// UserService is the local credential store. All methods are safe for
// concurrent use; the underlying gorm handle serializes row access.
type UserService struct{}

// GetUser returns the local account with the given username.
func (s *UserService) GetUser(username string) (*model.User, error) {
	db := database.GetDB()

	user := &model.User{}
	err := db.Model(model.User{}).
		Where("username = ?", username).
		First(user).
		Error
	if database.IsNotFound(err) {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, err
	}
	return user, nil
}

// CheckPassword verifies a local login. An unknown user, a wrong password
// and a disabled account all yield typed failures; the caller decides what
// to reveal. bcrypt comparison is constant time.
func (s *UserService) CheckPassword(username, password string) (*model.User, error) {
	user, err := s.GetUser(username)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	} else if err != nil {
		logger.Warning("check user err:", err)
		return nil, err
	}

	if !crypto.CheckPasswordHash(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		logger.Warningf("inactive user attempted login: %s", username)
		return nil, ErrInactiveAccount
	}
	return user, nil
}

// CreateUser registers a new local account. Usernames are unique; a conflict
// returns ErrDuplicateUser.
func (s *UserService) CreateUser(username, password, displayName, email string) (*model.User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, ErrInvalidCredentials
	}

	hash, err := crypto.HashPasswordAsBcrypt(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		DisplayName:  displayName,
		Email:        email,
		IsActive:     true,
	}

	db := database.GetDB()
	if err := db.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateUser
		}
		return nil, err
	}
	logger.Infof("created local user: %s", username)
	return user, nil
}

// SetActive enables or disables an account. A disabled account can never
// authenticate, regardless of password.
func (s *UserService) SetActive(username string, active bool) error {
	return s.update(username, map[string]any{"is_active": active})
}

// ResetPassword replaces the stored hash for an account.
func (s *UserService) ResetPassword(username, password string) error {
	hash, err := crypto.HashPasswordAsBcrypt(password)
	if err != nil {
		return err
	}
	return s.update(username, map[string]any{"password_hash": hash})
}

// ListUsers returns all local accounts ordered by username.
func (s *UserService) ListUsers() ([]*model.User, error) {
	db := database.GetDB()
	var users []*model.User
	err := db.Model(model.User{}).Order("username").Find(&users).Error
	return users, err
}

// DeleteUser removes an account and its tokens.
func (s *UserService) DeleteUser(username string) error {
	db := database.GetDB()
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("username = ?", username).Delete(&model.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return tx.Where("owner_username = ?", username).Delete(&model.ApiToken{}).Error
	})
}

func (s *UserService) update(username string, values map[string]any) error {
	values["updated_at"] = time.Now()

	db := database.GetDB()
	res := db.Model(model.User{}).
		Where("username = ?", username).
		Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique")
}
