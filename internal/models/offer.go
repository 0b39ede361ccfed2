package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// OfferStatus is the lifecycle state of an offer. Transitions between
// statuses are owned by services.LifecycleService; nothing else should
// write the Status column.
type OfferStatus string

// remember to add new statuses to the validOfferStatuses map
const (
	StatusDraft          OfferStatus = "draft"
	StatusPending        OfferStatus = "pending"
	StatusInConsultation OfferStatus = "in_consultation"
	StatusApproved       OfferStatus = "approved"
	StatusSent           OfferStatus = "sent"
	StatusRejected       OfferStatus = "rejected"
)

var validOfferStatuses = map[OfferStatus]struct{}{
	StatusDraft:          {},
	StatusPending:        {},
	StatusInConsultation: {},
	StatusApproved:       {},
	StatusSent:           {},
	StatusRejected:       {},
}

func ToOfferStatus(s string) (OfferStatus, error) {
	status := OfferStatus(s)
	if _, ok := validOfferStatuses[status]; ok {
		return status, nil
	}
	return "", errors.New("invalid offer status")
}

// Editable reports whether offer fields may still be modified in this
// status. The set is enumerated on purpose: pending/approved/sent offers
// are read-only to every edit path, and both the workflow service and the
// presentation layer consult this same predicate.
func (s OfferStatus) Editable() bool {
	switch s {
	case StatusDraft, StatusInConsultation, StatusRejected:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentTransfer PaymentMethod = "transfer"
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
)

func ToPaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(s); m {
	case PaymentTransfer, PaymentCash, PaymentCard:
		return m, nil
	}
	return "", errors.New("invalid payment method")
}

// Offer is a commercial offer issued by a Seller to a Client.
// TotalPrice is derived from the items and is written exclusively by
// services.TotalsService; OfferNumber is assigned once at creation and
// never changes afterwards.
type Offer struct {
	ID                  uint        `gorm:"primaryKey"`
	OfferNumber         string      `gorm:"size:20;not null;uniqueIndex"`
	Status              OfferStatus `gorm:"size:20;not null;default:'draft'"`
	Description         string
	TotalPrice          decimal.Decimal     `gorm:"type:numeric(10,2);not null;default:0"`
	CurrencyRate        decimal.NullDecimal `gorm:"type:numeric(10,4)"` // optional EUR rate
	ValidityDays        int                 `gorm:"not null;default:14"`
	PaymentDeadlineDays int                 `gorm:"not null;default:14"`
	PaymentMethod       PaymentMethod       `gorm:"size:20;not null;default:'transfer'"`
	RejectionReason     string              // set on transition into rejected, kept for audit
	SellerID            uint                `gorm:"not null;index"`
	Seller              Seller              `gorm:"foreignKey:SellerID"`
	ClientID            uint                `gorm:"not null;index"`
	Client              Client              `gorm:"foreignKey:ClientID"`
	CreatedByID         uint                `gorm:"not null"`
	CreatedBy           User                `gorm:"foreignKey:CreatedByID"`
	Items               []OfferItem         `gorm:"foreignKey:OfferID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type OfferItem struct {
	ID           uint            `gorm:"primaryKey"`
	OfferID      uint            `gorm:"not null;index"`
	Description  string          `gorm:"size:200;not null"`
	Quantity     int             `gorm:"not null;default:1"`
	PricePerUnit decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	PriceInEUR   decimal.NullDecimal `gorm:"type:numeric(10,2)"` // optional reference price
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LineTotal is quantity times unit price. Computed on read, never stored.
func (it OfferItem) LineTotal() decimal.Decimal {
	return it.PricePerUnit.Mul(decimal.NewFromInt(int64(it.Quantity)))
}
