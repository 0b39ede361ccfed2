package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/dmarkowski/offers-app/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAssignsNumberAndDraftStatus(t *testing.T) {
	db := setupTestDB(t)
	user, seller, client := seedOfferFixtures(t, db)
	svc := NewOfferService(db, NewTotalsService())

	offer, err := svc.Create(context.Background(), OfferInput{
		SellerID: seller.ID,
		ClientID: client.ID,
		Items:    []OfferItemInput{itemInput("Audit", 1, "1500.00")},
	}, user.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusDraft, offer.Status)
	assert.Equal(t, user.ID, offer.CreatedByID)
	assert.Regexp(t, regexp.MustCompile(`^OF/\d{8}/[0-9A-F]{4}$`), offer.OfferNumber)
	assert.Equal(t, 14, offer.ValidityDays)
	assert.Equal(t, models.PaymentTransfer, offer.PaymentMethod)
}

func TestCreateRollsBackOnInvalidItems(t *testing.T) {
	db := setupTestDB(t)
	user, seller, client := seedOfferFixtures(t, db)
	svc := NewOfferService(db, NewTotalsService())

	// valid header, invalid item set
	_, err := svc.Create(context.Background(), OfferInput{
		SellerID: seller.ID,
		ClientID: client.ID,
		Items:    []OfferItemInput{itemInput("", 0, "10.00")},
	}, user.ID)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Violations, "items[0].description")
	assert.Contains(t, verr.Violations, "items[0].quantity")

	var count int64
	require.NoError(t, db.Model(&models.Offer{}).Count(&count).Error)
	assert.Zero(t, count, "no offer row may survive failed item validation")
}

func TestCreateRollsBackOnMissingClient(t *testing.T) {
	db := setupTestDB(t)
	user, seller, _ := seedOfferFixtures(t, db)
	svc := NewOfferService(db, NewTotalsService())

	_, err := svc.Create(context.Background(), OfferInput{
		SellerID: seller.ID,
		ClientID: 9999,
		Items:    []OfferItemInput{itemInput("Audit", 1, "1500.00")},
	}, user.ID)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "not_found", verr.Violations["client_id"])

	var offers, items int64
	require.NoError(t, db.Model(&models.Offer{}).Count(&offers).Error)
	require.NoError(t, db.Model(&models.OfferItem{}).Count(&items).Error)
	assert.Zero(t, offers)
	assert.Zero(t, items)
}

func TestUpdateRefusedOutsideEditableStatuses(t *testing.T) {
	db := setupTestDB(t)
	user, seller, client := seedOfferFixtures(t, db)
	svc := NewOfferService(db, NewTotalsService())
	ctx := context.Background()

	input := OfferInput{
		SellerID: seller.ID,
		ClientID: client.ID,
		Items:    []OfferItemInput{itemInput("Work", 2, "50.00")},
	}

	for _, status := range []models.OfferStatus{models.StatusPending, models.StatusApproved, models.StatusSent} {
		t.Run(string(status), func(t *testing.T) {
			offer, err := svc.Create(ctx, input, user.ID)
			require.NoError(t, err)
			require.NoError(t, db.Model(&models.Offer{}).Where("id = ?", offer.ID).
				UpdateColumn("status", status).Error)

			var before models.Offer
			require.NoError(t, db.First(&before, offer.ID).Error)

			changed := input
			changed.Description = "should not stick"
			_, err = svc.Update(ctx, offer.ID, changed)
			require.ErrorIs(t, err, ErrNotEditable)

			var after models.Offer
			require.NoError(t, db.First(&after, offer.ID).Error)
			assert.Equal(t, before, after, "persisted state must be unchanged")
		})
	}

	for _, status := range []models.OfferStatus{models.StatusDraft, models.StatusInConsultation, models.StatusRejected} {
		t.Run(string(status)+"_editable", func(t *testing.T) {
			offer, err := svc.Create(ctx, input, user.ID)
			require.NoError(t, err)
			require.NoError(t, db.Model(&models.Offer{}).Where("id = ?", offer.ID).
				UpdateColumn("status", status).Error)

			changed := input
			changed.Description = "updated"
			got, err := svc.Update(ctx, offer.ID, changed)
			require.NoError(t, err)
			assert.Equal(t, "updated", got.Description)
		})
	}
}

func TestUpdateReplacesItemsAndRecalculatesOnce(t *testing.T) {
	db := setupTestDB(t)
	user, seller, client := seedOfferFixtures(t, db)
	svc := NewOfferService(db, NewTotalsService())
	ctx := context.Background()

	offer, err := svc.Create(ctx, OfferInput{
		SellerID: seller.ID, ClientID: client.ID,
		Items: []OfferItemInput{itemInput("Old", 1, "100.00")},
	}, user.ID)
	require.NoError(t, err)

	got, err := svc.Update(ctx, offer.ID, OfferInput{
		SellerID: seller.ID, ClientID: client.ID,
		Items: []OfferItemInput{
			itemInput("New A", 2, "10.00"),
			itemInput("New B", 1, "5.50"),
		},
	})
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.True(t, mustDecimal("25.50").Equal(got.TotalPrice), "got %s", got.TotalPrice)
}

func TestDeleteOnlyDrafts(t *testing.T) {
	db := setupTestDB(t)
	user, seller, client := seedOfferFixtures(t, db)
	svc := NewOfferService(db, NewTotalsService())
	ctx := context.Background()

	offer, err := svc.Create(ctx, OfferInput{
		SellerID: seller.ID, ClientID: client.ID,
		Items: []OfferItemInput{itemInput("Work", 1, "10.00")},
	}, user.ID)
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Offer{}).Where("id = ?", offer.ID).
		UpdateColumn("status", models.StatusApproved).Error)
	require.ErrorIs(t, svc.Delete(ctx, offer.ID), ErrNotEditable)

	require.NoError(t, db.Model(&models.Offer{}).Where("id = ?", offer.ID).
		UpdateColumn("status", models.StatusDraft).Error)
	require.NoError(t, svc.Delete(ctx, offer.ID))

	var items int64
	require.NoError(t, db.Model(&models.OfferItem{}).Where("offer_id = ?", offer.ID).Count(&items).Error)
	assert.Zero(t, items, "items are owned exclusively and must go with the offer")
}

func TestOfferNumbersPairwiseUnique(t *testing.T) {
	if testing.Short() {
		t.Skip("allocates 10k offers")
	}
	db := setupTestDB(t)

	const n = 10000
	now := time.Now()
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		number, err := nextOfferNumber(db, now)
		require.NoError(t, err)
		if _, dup := seen[number]; dup {
			t.Fatalf("duplicate offer number allocated: %s", number)
		}
		seen[number] = struct{}{}
		require.NoError(t, db.Create(&models.Offer{OfferNumber: number, Status: models.StatusDraft}).Error)
	}
}

func TestListFiltersByStatusNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	user, seller, client := seedOfferFixtures(t, db)
	svc := NewOfferService(db, NewTotalsService())
	ctx := context.Background()

	input := OfferInput{
		SellerID: seller.ID, ClientID: client.ID,
		Items: []OfferItemInput{itemInput("Work", 1, "10.00")},
	}
	first, err := svc.Create(ctx, input, user.ID)
	require.NoError(t, err)
	second, err := svc.Create(ctx, input, user.ID)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Offer{}).Where("id = ?", second.ID).
		UpdateColumn("status", models.StatusPending).Error)

	offers, total, err := svc.List(ctx, "", 50, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, offers, 2)
	assert.Equal(t, second.ID, offers[0].ID, "newest first")

	pending, total, err := svc.List(ctx, "pending", 50, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)
	_ = first

	_, _, err = svc.List(ctx, "bogus", 50, 0)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}
