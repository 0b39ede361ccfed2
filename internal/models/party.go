package models

import "time"

// Company is the legal entity a client contact belongs to.
type Company struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null;index"`
	TaxID     string `gorm:"size:20;index"` // NIP
	Address   string
	Clients   []Client `gorm:"foreignKey:CompanyID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Client is the person an offer is addressed to.
type Client struct {
	ID        uint    `gorm:"primaryKey"`
	CompanyID uint    `gorm:"not null;index"`
	Company   Company `gorm:"foreignKey:CompanyID"`
	FirstName string  `gorm:"not null"`
	LastName  string  `gorm:"not null;index"`
	Email     string  `gorm:"index"`
	Phone     string
	Position  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Seller is the issuing entity printed on an offer. Offers reference a
// seller but do not own it; one seller backs many offers.
type Seller struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"not null;index"`
	TaxID       string `gorm:"size:20;index"`
	Address     string
	Email       string
	Phone       string
	BankAccount string
	LogoPath    string // file storage reference, optional
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
