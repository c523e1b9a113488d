package user

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID             int64          `gorm:"primaryKey"`
	Email          string         `gorm:"column:email;uniqueIndex;not null"`
	Name           string         `gorm:"column:name;not null"`
	HashedPassword string         `gorm:"column:hashed_password;not null"`
	IsActive       bool           `gorm:"column:is_active;not null"`
	GoogleID       *string        `gorm:"column:google_id;uniqueIndex"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt      gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (User) TableName() string {
	return "users"
}

type Role struct {
	ID          int64          `gorm:"primaryKey"`
	Name        string         `gorm:"column:name;uniqueIndex;not null"`
	Description string         `gorm:"column:description"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Role) TableName() string {
	return "roles"
}

type Permission struct {
	ID          int64          `gorm:"primaryKey"`
	Name        string         `gorm:"column:name;uniqueIndex;not null"`
	Description string         `gorm:"column:description"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Permission) TableName() string {
	return "permissions"
}

// RoleAssignment links a user to a role.
type RoleAssignment struct {
	ID        int64          `gorm:"primaryKey"`
	UserID    int64          `gorm:"column:user_id;not null;index"`
	RoleID    int64          `gorm:"column:role_id;not null;index"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (RoleAssignment) TableName() string {
	return "role_assignments"
}

// PermissionAssignment links a role to a permission.
type PermissionAssignment struct {
	ID           int64          `gorm:"primaryKey"`
	RoleID       int64          `gorm:"column:role_id;not null;index"`
	PermissionID int64          `gorm:"column:permission_id;not null;index"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (PermissionAssignment) TableName() string {
	return "permission_assignments"
}
