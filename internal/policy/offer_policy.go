package policy

import "context"

// OfferPolicy authorizes offer operations. Any authenticated actor may
// view, create, edit, delete, submit or reject; approving a pending
// offer is reserved for privileged (manager) actors.
type OfferPolicy struct{}

func (OfferPolicy) Can(_ context.Context, actor Actor, action Action, _ any) bool {
	switch action {
	case ActionApprove:
		return actor.Privileged
	case ActionView, ActionCreate, ActionUpdate, ActionDelete:
		return actor.ID != 0
	}
	return false
}

// NewOfferGate returns a Gate with the offer policy registered, ready for
// the lifecycle service and handlers.
func NewOfferGate() *Gate {
	g := NewGate()
	g.Register("offer", OfferPolicy{})
	return g
}
