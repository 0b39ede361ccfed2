package models

import "time"

// User & auth related models
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Email     string `gorm:"unique;not null;index"`
	Password  string `gorm:"not null"` // bcrypt hash
	FirstName string
	LastName  string `gorm:"index"`
	RoleID    uint
	Role      Role `gorm:"foreignKey:RoleID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Role struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"unique;not null"` // user, manager
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Privileged reports whether the role may perform gated lifecycle
// actions such as approving a pending offer.
func (r Role) Privileged() bool {
	return r.Name == "manager" || r.Name == "admin"
}
