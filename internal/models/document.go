package models

import "time"

// Document types stored against an owner entity.
const (
	DocumentArchive = "archive" // uploaded archival offer PDF
	DocumentLogo    = "logo"
)

// Document is an uploaded file attached to another entity, typically an
// archival PDF kept for offers created before this system existed.
type Document struct {
	ID         uint   `gorm:"primaryKey"`
	OwnerType  string `gorm:"size:40;not null;index:idx_doc_owner"` // ex: "Offer", "Seller"
	OwnerID    uint   `gorm:"not null;index:idx_doc_owner"`
	Type       string `gorm:"size:20;not null"` // archive, logo
	Name       string // original file name
	Path       string // file storage reference
	MimeType   string
	UploadedBy uint
	User       User `gorm:"foreignKey:UploadedBy"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
