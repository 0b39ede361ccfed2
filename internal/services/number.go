package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmarkowski/offers-app/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const offerNumberPrefix = "OF"

// newOfferNumber builds a candidate offer number: prefix, creation date
// (sortable by day) and a short random token from a v4 UUID.
func newOfferNumber(now time.Time) string {
	token := strings.ToUpper(uuid.NewString()[:4])
	return fmt.Sprintf("%s/%s/%s", offerNumberPrefix, now.Format("20060102"), token)
}

// nextOfferNumber allocates a number not yet present in the database.
// The token is short, so same-day collisions do happen; we regenerate
// until free. The unique index on offer_number remains the hard backstop
// for two transactions racing on the same candidate.
func nextOfferNumber(tx *gorm.DB, now time.Time) (string, error) {
	for {
		n := newOfferNumber(now)
		var count int64
		if err := tx.Model(&models.Offer{}).Where("offer_number = ?", n).Count(&count).Error; err != nil {
			return "", fmt.Errorf("check offer number: %w", err)
		}
		if count == 0 {
			return n, nil
		}
	}
}
