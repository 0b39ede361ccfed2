package services

import (
	"fmt"

	"github.com/dmarkowski/offers-app/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TotalsService recomputes an offer's stored total from its line items.
// It is the only writer of the total_price column.
type TotalsService struct{}

func NewTotalsService() *TotalsService { return &TotalsService{} }

// Recalculate sums quantity x price_per_unit over the offer's current
// items in exact decimal arithmetic and persists total_price alone, so a
// concurrent edit of unrelated fields is never clobbered. Callers invoke
// it synchronously after every item mutation, passing the surrounding
// transaction when one is open.
func (s *TotalsService) Recalculate(tx *gorm.DB, offerID uint) (decimal.Decimal, error) {
	var items []models.OfferItem
	if err := tx.Where("offer_id = ?", offerID).Find(&items).Error; err != nil {
		return decimal.Zero, fmt.Errorf("load offer items: %w", err)
	}
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	if err := tx.Model(&models.Offer{}).Where("id = ?", offerID).
		UpdateColumn("total_price", total).Error; err != nil {
		return decimal.Zero, fmt.Errorf("persist offer total: %w", err)
	}
	return total, nil
}
