package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmarkowski/offers-app/internal/models"
	"github.com/dmarkowski/offers-app/internal/policy"

	"gorm.io/gorm"
)

// StatusAction is a requested lifecycle transition.
type StatusAction string

const (
	ActionSubmit  StatusAction = "submit"  // draft -> pending
	ActionApprove StatusAction = "approve" // pending -> approved, managers only
	ActionReject  StatusAction = "reject"  // -> rejected, reason required
	ActionRevert  StatusAction = "revert"  // rejected -> draft
)

var (
	ErrUnknownAction = errors.New("unknown status action")
	ErrMissingReason = errors.New("rejection reason required")
)

type statusSet map[models.OfferStatus]struct{}

func from(statuses ...models.OfferStatus) statusSet {
	s := make(statusSet, len(statuses))
	for _, st := range statuses {
		s[st] = struct{}{}
	}
	return s
}

// transitions is the single source of truth for which source states each
// action accepts. Reject additionally accepts draft and rejected offers,
// matching the re-submission path where a draft is rejected outright.
var transitions = map[StatusAction]struct {
	from statusSet
	to   models.OfferStatus
}{
	ActionSubmit:  {from: from(models.StatusDraft), to: models.StatusPending},
	ActionApprove: {from: from(models.StatusPending), to: models.StatusApproved},
	ActionReject:  {from: from(models.StatusPending, models.StatusDraft, models.StatusRejected), to: models.StatusRejected},
	ActionRevert:  {from: from(models.StatusRejected), to: models.StatusDraft},
}

// TransitionResult reports what a lifecycle request did. A disallowed
// source state is not an error: Applied is false and Warning explains why.
type TransitionResult struct {
	Applied bool               `json:"applied"`
	From    models.OfferStatus `json:"from"`
	To      models.OfferStatus `json:"to"`
	Warning string             `json:"warning,omitempty"`
}

// LifecycleService owns offer status transitions. Authorization is
// consulted through the policy gate before the transition table, so the
// two concerns stay independently testable.
type LifecycleService struct {
	DB   *gorm.DB
	Gate *policy.Gate
}

func NewLifecycleService(db *gorm.DB, gate *policy.Gate) *LifecycleService {
	return &LifecycleService{DB: db, Gate: gate}
}

// Apply performs action on the offer as actor. On success the offer's
// in-memory Status (and RejectionReason for rejects) is updated to match
// the database. The status write is a single-row update guarded by the
// observed source status, so a concurrent duplicate of the same request
// degrades to a no-op instead of corrupting state.
func (s *LifecycleService) Apply(ctx context.Context, offer *models.Offer, action StatusAction, actor policy.Actor, reason string) (TransitionResult, error) {
	t, ok := transitions[action]
	if !ok {
		return TransitionResult{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	// Permission first: approve is refused for unprivileged actors no
	// matter what state the offer is in.
	if action == ActionApprove {
		if err := s.Gate.Authorize(ctx, actor, policy.ActionApprove, "offer", offer); err != nil {
			return TransitionResult{}, err
		}
	}

	reason = strings.TrimSpace(reason)
	if action == ActionReject && reason == "" {
		return TransitionResult{}, ErrMissingReason
	}

	if _, allowed := t.from[offer.Status]; !allowed {
		return TransitionResult{
			Applied: false,
			From:    offer.Status,
			To:      offer.Status,
			Warning: fmt.Sprintf("cannot %s an offer in status %q", action, offer.Status),
		}, nil
	}

	updates := map[string]any{"status": t.to}
	if action == ActionReject {
		updates["rejection_reason"] = reason
	}
	res := s.DB.WithContext(ctx).Model(&models.Offer{}).
		Where("id = ? AND status = ?", offer.ID, offer.Status).
		Updates(updates)
	if res.Error != nil {
		return TransitionResult{}, fmt.Errorf("update offer status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Someone else moved the offer between our read and write.
		return TransitionResult{
			Applied: false,
			From:    offer.Status,
			To:      offer.Status,
			Warning: "offer status changed concurrently, action not applied",
		}, nil
	}

	result := TransitionResult{Applied: true, From: offer.Status, To: t.to}
	offer.Status = t.to
	if action == ActionReject {
		offer.RejectionReason = reason
	}
	return result, nil
}
