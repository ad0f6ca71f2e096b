// Package model defines database models
package model

import "time"

const (
	RoleViewer = "viewer"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

type User struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         string    `gorm:"not null;default:viewer" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// RoleLevel orders roles so handlers can declare a minimum. Unknown
// roles rank below viewer and therefore pass no check.
func RoleLevel(role string) int {
	switch role {
	case RoleViewer:
		return 0
	case RoleEditor:
		return 1
	case RoleAdmin:
		return 2
	default:
		return -1
	}
}

// ValidRole reports whether a client-supplied role name is one of the
// three known roles.
func ValidRole(role string) bool {
	return RoleLevel(role) >= 0
}
