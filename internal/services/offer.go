package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmarkowski/offers-app/internal/models"
	"github.com/dmarkowski/offers-app/internal/validation"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrNotEditable = errors.New("offer is not editable in its current status")

// ValidationError carries field-level violations across the service
// boundary; handlers translate it into a 400 with details.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string { return "validation failed" }

type OfferItemInput struct {
	Description  string              `json:"description"`
	Quantity     int                 `json:"quantity"`
	PricePerUnit decimal.Decimal     `json:"price_per_unit"`
	PriceInEUR   decimal.NullDecimal `json:"price_in_eur"`
}

type OfferInput struct {
	SellerID            uint                `json:"seller_id"`
	ClientID            uint                `json:"client_id"`
	Description         string              `json:"description"`
	ValidityDays        int                 `json:"validity_days"`
	PaymentDeadlineDays int                 `json:"payment_deadline_days"`
	PaymentMethod       string              `json:"payment_method"`
	CurrencyRate        decimal.NullDecimal `json:"currency_rate"`
	Items               []OfferItemInput    `json:"items"`
}

// Validate checks header and items together so a caller gets every
// violation in one pass.
func (in *OfferInput) Validate() validation.Violations {
	v := validation.Violations{}
	validation.RequiredID("seller_id", in.SellerID, v)
	validation.RequiredID("client_id", in.ClientID, v)
	if in.ValidityDays == 0 {
		in.ValidityDays = 14
	}
	validation.PositiveInt("validity_days", in.ValidityDays, v)
	if in.PaymentDeadlineDays == 0 {
		in.PaymentDeadlineDays = 14
	}
	validation.PositiveInt("payment_deadline_days", in.PaymentDeadlineDays, v)
	if in.PaymentMethod == "" {
		in.PaymentMethod = string(models.PaymentTransfer)
	}
	if _, err := models.ToPaymentMethod(in.PaymentMethod); err != nil {
		v["payment_method"] = "invalid"
	}
	if len(in.Items) == 0 {
		v["items"] = "required"
	}
	for i, it := range in.Items {
		prefix := fmt.Sprintf("items[%d].", i)
		validation.Required(prefix+"description", it.Description, v)
		validation.PositiveInt(prefix+"quantity", it.Quantity, v)
		validation.NonNegativeDecimal(prefix+"price_per_unit", it.PricePerUnit, v)
	}
	return v
}

// OfferService orchestrates offer creation and edits. Item mutations and
// the totals recalculation always run inside one transaction so readers
// never observe a header with a stale total.
type OfferService struct {
	DB     *gorm.DB
	Totals *TotalsService
}

func NewOfferService(db *gorm.DB, totals *TotalsService) *OfferService {
	return &OfferService{DB: db, Totals: totals}
}

func (s *OfferService) Get(ctx context.Context, id uint) (*models.Offer, error) {
	var offer models.Offer
	err := s.DB.WithContext(ctx).
		Preload("Items").
		Preload("Client.Company").
		Preload("Seller").
		First(&offer, id).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// List returns offers newest first, optionally filtered by status.
func (s *OfferService) List(ctx context.Context, status string, limit, offset int) ([]models.Offer, int64, error) {
	q := s.DB.WithContext(ctx).Model(&models.Offer{})
	if status != "" {
		st, err := models.ToOfferStatus(status)
		if err != nil {
			return nil, 0, &ValidationError{Violations: validation.Violations{"status": "invalid"}}
		}
		q = q.Where("status = ?", st)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var offers []models.Offer
	err := q.Preload("Items").Preload("Client.Company").Preload("Seller").
		Order("created_at desc, id desc").Limit(limit).Offset(offset).
		Find(&offers).Error
	if err != nil {
		return nil, 0, err
	}
	return offers, total, nil
}

// Create validates header and items together, then persists offer, items
// and the derived total in one transaction. A failure anywhere rolls the
// whole unit back: no orphaned draft ever survives invalid items.
func (s *OfferService) Create(ctx context.Context, in OfferInput, creatorID uint) (*models.Offer, error) {
	if v := in.Validate(); !v.Empty() {
		return nil, &ValidationError{Violations: v}
	}
	var offer models.Offer
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range []struct {
			field string
			model any
			id    uint
		}{
			{"seller_id", &models.Seller{}, in.SellerID},
			{"client_id", &models.Client{}, in.ClientID},
		} {
			var count int64
			if err := tx.Model(id.model).Where("id = ?", id.id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return &ValidationError{Violations: validation.Violations{id.field: "not_found"}}
			}
		}

		number, err := nextOfferNumber(tx, time.Now())
		if err != nil {
			return err
		}
		offer = models.Offer{
			OfferNumber:         number,
			Status:              models.StatusDraft,
			Description:         in.Description,
			TotalPrice:          decimal.Zero,
			CurrencyRate:        in.CurrencyRate,
			ValidityDays:        in.ValidityDays,
			PaymentDeadlineDays: in.PaymentDeadlineDays,
			PaymentMethod:       models.PaymentMethod(in.PaymentMethod),
			SellerID:            in.SellerID,
			ClientID:            in.ClientID,
			CreatedByID:         creatorID,
		}
		if err := tx.Create(&offer).Error; err != nil {
			return fmt.Errorf("create offer: %w", err)
		}
		items := buildItems(offer.ID, in.Items)
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("create offer items: %w", err)
		}
		total, err := s.Totals.Recalculate(tx, offer.ID)
		if err != nil {
			return err
		}
		offer.TotalPrice = total
		offer.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// Update applies header changes and replaces the item set as one logical
// unit, recalculating the total exactly once at the end. Refused unless
// the current status passes the editability gate.
func (s *OfferService) Update(ctx context.Context, id uint, in OfferInput) (*models.Offer, error) {
	if v := in.Validate(); !v.Empty() {
		return nil, &ValidationError{Violations: v}
	}
	offer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !offer.Status.Editable() {
		return nil, ErrNotEditable
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		header := map[string]any{
			"seller_id":             in.SellerID,
			"client_id":             in.ClientID,
			"description":           in.Description,
			"validity_days":         in.ValidityDays,
			"payment_deadline_days": in.PaymentDeadlineDays,
			"payment_method":        in.PaymentMethod,
			"currency_rate":         in.CurrencyRate,
		}
		if err := tx.Model(&models.Offer{}).Where("id = ?", offer.ID).Updates(header).Error; err != nil {
			return fmt.Errorf("update offer header: %w", err)
		}
		if err := tx.Where("offer_id = ?", offer.ID).Delete(&models.OfferItem{}).Error; err != nil {
			return fmt.Errorf("clear offer items: %w", err)
		}
		items := buildItems(offer.ID, in.Items)
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("recreate offer items: %w", err)
		}
		if _, err := s.Totals.Recalculate(tx, offer.ID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes an offer and, via cascade, its items. Only abandoned
// drafts may be deleted.
func (s *OfferService) Delete(ctx context.Context, id uint) error {
	offer, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if offer.Status != models.StatusDraft {
		return ErrNotEditable
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("offer_id = ?", id).Delete(&models.OfferItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Offer{}, id).Error
	})
}

// AddItem appends a line item and recalculates the owning offer's total
// in the same transaction.
func (s *OfferService) AddItem(ctx context.Context, offerID uint, in OfferItemInput) (*models.OfferItem, error) {
	v := validation.Violations{}
	validation.Required("description", in.Description, v)
	validation.PositiveInt("quantity", in.Quantity, v)
	validation.NonNegativeDecimal("price_per_unit", in.PricePerUnit, v)
	if !v.Empty() {
		return nil, &ValidationError{Violations: v}
	}
	offer, err := s.Get(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if !offer.Status.Editable() {
		return nil, ErrNotEditable
	}
	item := models.OfferItem{
		OfferID:      offerID,
		Description:  in.Description,
		Quantity:     in.Quantity,
		PricePerUnit: in.PricePerUnit,
		PriceInEUR:   in.PriceInEUR,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		_, err := s.Totals.Recalculate(tx, offerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem mutates a single line item and recalculates the total.
func (s *OfferService) UpdateItem(ctx context.Context, itemID uint, in OfferItemInput) error {
	var item models.OfferItem
	if err := s.DB.WithContext(ctx).First(&item, itemID).Error; err != nil {
		return err
	}
	offer, err := s.Get(ctx, item.OfferID)
	if err != nil {
		return err
	}
	if !offer.Status.Editable() {
		return ErrNotEditable
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"description":    in.Description,
			"quantity":       in.Quantity,
			"price_per_unit": in.PricePerUnit,
			"price_in_eur":   in.PriceInEUR,
		}
		if err := tx.Model(&models.OfferItem{}).Where("id = ?", itemID).Updates(updates).Error; err != nil {
			return err
		}
		_, err := s.Totals.Recalculate(tx, item.OfferID)
		return err
	})
}

// RemoveItem deletes a single line item and recalculates the total.
func (s *OfferService) RemoveItem(ctx context.Context, itemID uint) error {
	var item models.OfferItem
	if err := s.DB.WithContext(ctx).First(&item, itemID).Error; err != nil {
		return err
	}
	offer, err := s.Get(ctx, item.OfferID)
	if err != nil {
		return err
	}
	if !offer.Status.Editable() {
		return ErrNotEditable
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.OfferItem{}, itemID).Error; err != nil {
			return err
		}
		_, err := s.Totals.Recalculate(tx, item.OfferID)
		return err
	})
}

func buildItems(offerID uint, inputs []OfferItemInput) []models.OfferItem {
	items := make([]models.OfferItem, 0, len(inputs))
	for _, in := range inputs {
		items = append(items, models.OfferItem{
			OfferID:      offerID,
			Description:  in.Description,
			Quantity:     in.Quantity,
			PricePerUnit: in.PricePerUnit,
			PriceInEUR:   in.PriceInEUR,
		})
	}
	return items
}
