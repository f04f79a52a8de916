// Package model defines the persistent records of the authentication stores.
package model

import "time"

// User is a locally managed account. Directory users have no row here unless
// they issue API tokens, in which case a shadow row with a random password
// is created for token ownership.
type User struct {
	Id           int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;not null"`
	DisplayName  string    `json:"displayName" gorm:"not null"`
	Email        string    `json:"email"`
	IsActive     bool      `json:"isActive" gorm:"default:true"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ApiToken stores the SHA-256 digest of an issued bearer token. The raw
// token value is never persisted.
type ApiToken struct {
	Id            int        `json:"id" gorm:"primaryKey;autoIncrement"`
	OwnerUsername string     `json:"ownerUsername" gorm:"index;not null"`
	TokenHash     string     `json:"-" gorm:"uniqueIndex;not null"`
	Description   string     `json:"description"`
	CreatedAt     time.Time  `json:"createdAt"`
	ExpiresAt     time.Time  `json:"expiresAt"`
	LastUsedAt    *time.Time `json:"lastUsedAt"`
	Revoked       bool       `json:"revoked" gorm:"default:false"`
}
