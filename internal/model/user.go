package model

import (
	"time"

	"gorm.io/gorm"
)

// Roles carried in access tokens
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleCustomer = "customer"
)

// User is a storefront account; admins and managers can edit rules
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Email     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password  string         `gorm:"type:varchar(255);not null" json:"-"`
	Role      string         `gorm:"type:varchar(50);not null" json:"role"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// UserGroup is a customer segment targeted by catalog pricing rules
type UserGroup struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Handle      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"handle"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserGroupMember is one row of the group membership relation
type UserGroupMember struct {
	UserGroupID uint `gorm:"primaryKey;autoIncrement:false" json:"user_group_id"`
	UserID      uint `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
}
