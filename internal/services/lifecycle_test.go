package services

import (
	"context"
	"testing"

	"github.com/dmarkowski/offers-app/internal/models"
	"github.com/dmarkowski/offers-app/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newDraftOffer(t *testing.T, db *gorm.DB, status models.OfferStatus) *models.Offer {
	t.Helper()
	user, seller, client := seedOfferFixtures(t, db)
	svc := NewOfferService(db, NewTotalsService())
	offer, err := svc.Create(context.Background(), OfferInput{
		SellerID: seller.ID,
		ClientID: client.ID,
		Items:    []OfferItemInput{itemInput("Work", 1, "100.00")},
	}, user.ID)
	require.NoError(t, err)
	if status != models.StatusDraft {
		require.NoError(t, db.Model(&models.Offer{}).Where("id = ?", offer.ID).
			UpdateColumn("status", status).Error)
		offer.Status = status
	}
	return offer
}

func reloadStatus(t *testing.T, db *gorm.DB, id uint) models.Offer {
	t.Helper()
	var o models.Offer
	require.NoError(t, db.First(&o, id).Error)
	return o
}

var (
	regular    = policy.Actor{ID: 1}
	privileged = policy.Actor{ID: 2, Privileged: true}
)

func TestSubmitOnlyFromDraft(t *testing.T) {
	db := setupTestDB(t)
	lc := NewLifecycleService(db, policy.NewOfferGate())
	ctx := context.Background()

	offer := newDraftOffer(t, db, models.StatusDraft)
	res, err := lc.Apply(ctx, offer, ActionSubmit, regular, "")
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, models.StatusPending, reloadStatus(t, db, offer.ID).Status)

	// second submit is a warning, not a failure
	res, err = lc.Apply(ctx, offer, ActionSubmit, regular, "")
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.NotEmpty(t, res.Warning)
	assert.Equal(t, models.StatusPending, reloadStatus(t, db, offer.ID).Status)
}

func TestApproveRequiresPrivilegeAndPendingState(t *testing.T) {
	db := setupTestDB(t)
	lc := NewLifecycleService(db, policy.NewOfferGate())
	ctx := context.Background()

	t.Run("unprivileged actor refused regardless of state", func(t *testing.T) {
		offer := newDraftOffer(t, db, models.StatusPending)
		_, err := lc.Apply(ctx, offer, ActionApprove, regular, "")
		require.ErrorIs(t, err, policy.ErrUnauthorized)
		assert.Equal(t, models.StatusPending, reloadStatus(t, db, offer.ID).Status)

		draft := newDraftOffer(t, db, models.StatusDraft)
		_, err = lc.Apply(ctx, draft, ActionApprove, regular, "")
		require.ErrorIs(t, err, policy.ErrUnauthorized)
	})

	t.Run("privileged actor outside pending gets warning", func(t *testing.T) {
		offer := newDraftOffer(t, db, models.StatusDraft)
		res, err := lc.Apply(ctx, offer, ActionApprove, privileged, "")
		require.NoError(t, err)
		assert.False(t, res.Applied)
		assert.Equal(t, models.StatusDraft, reloadStatus(t, db, offer.ID).Status)
	})

	t.Run("privileged actor approves pending", func(t *testing.T) {
		offer := newDraftOffer(t, db, models.StatusPending)
		res, err := lc.Apply(ctx, offer, ActionApprove, privileged, "")
		require.NoError(t, err)
		assert.True(t, res.Applied)
		assert.Equal(t, models.StatusApproved, reloadStatus(t, db, offer.ID).Status)
	})
}

func TestRejectRequiresReason(t *testing.T) {
	db := setupTestDB(t)
	lc := NewLifecycleService(db, policy.NewOfferGate())
	ctx := context.Background()

	offer := newDraftOffer(t, db, models.StatusPending)
	_, err := lc.Apply(ctx, offer, ActionReject, regular, "   ")
	require.ErrorIs(t, err, ErrMissingReason)
	assert.Equal(t, models.StatusPending, reloadStatus(t, db, offer.ID).Status)

	res, err := lc.Apply(ctx, offer, ActionReject, regular, "price too high")
	require.NoError(t, err)
	assert.True(t, res.Applied)
	got := reloadStatus(t, db, offer.ID)
	assert.Equal(t, models.StatusRejected, got.Status)
	assert.Equal(t, "price too high", got.RejectionReason)
}

func TestRevertToDraftKeepsRejectionReason(t *testing.T) {
	db := setupTestDB(t)
	lc := NewLifecycleService(db, policy.NewOfferGate())
	ctx := context.Background()

	offer := newDraftOffer(t, db, models.StatusPending)
	_, err := lc.Apply(ctx, offer, ActionReject, regular, "missing scope")
	require.NoError(t, err)

	res, err := lc.Apply(ctx, offer, ActionRevert, regular, "")
	require.NoError(t, err)
	assert.True(t, res.Applied)

	got := reloadStatus(t, db, offer.ID)
	assert.Equal(t, models.StatusDraft, got.Status)
	// reason is kept for audit after recovery to draft
	assert.Equal(t, "missing scope", got.RejectionReason)
}

func TestRejectAllowedFromDraftAndRejected(t *testing.T) {
	db := setupTestDB(t)
	lc := NewLifecycleService(db, policy.NewOfferGate())
	ctx := context.Background()

	draft := newDraftOffer(t, db, models.StatusDraft)
	res, err := lc.Apply(ctx, draft, ActionReject, regular, "not viable")
	require.NoError(t, err)
	assert.True(t, res.Applied)

	// rejecting again updates the reason
	res, err = lc.Apply(ctx, draft, ActionReject, regular, "still not viable")
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, "still not viable", reloadStatus(t, db, draft.ID).RejectionReason)
}

func TestConcurrentDuplicateTransitionIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	lc := NewLifecycleService(db, policy.NewOfferGate())
	ctx := context.Background()

	offer := newDraftOffer(t, db, models.StatusDraft)
	// Two handlers hold the same stale snapshot.
	stale := *offer

	res, err := lc.Apply(ctx, offer, ActionSubmit, regular, "")
	require.NoError(t, err)
	assert.True(t, res.Applied)

	res, err = lc.Apply(ctx, &stale, ActionSubmit, regular, "")
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, models.StatusPending, reloadStatus(t, db, offer.ID).Status)
}

func TestUnknownActionRejected(t *testing.T) {
	db := setupTestDB(t)
	lc := NewLifecycleService(db, policy.NewOfferGate())
	offer := newDraftOffer(t, db, models.StatusDraft)
	_, err := lc.Apply(context.Background(), offer, StatusAction("archive"), regular, "")
	require.ErrorIs(t, err, ErrUnknownAction)
}
