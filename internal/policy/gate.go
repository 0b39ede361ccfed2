// Package policy is a small Gate/Policy authorization layer. The Gate is
// a central registry of policies; each Policy defines the rules for one
// resource type. Whether an actor MAY perform an action is decided here,
// independently of whether the action is LEGAL in the resource's current
// state; that second question belongs to the lifecycle state machine.
package policy

import (
	"context"
	"errors"
)

// Actor is the authenticated subject of a request.
type Actor struct {
	ID         uint
	Privileged bool // manager-level role
}

// Action describes the kind of operation an actor wants to perform.
type Action string

const (
	ActionView    Action = "view"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionApprove Action = "approve"
)

// Sentinel errors returned by Gate.Authorize.
var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNoPolicyDefined = errors.New("no policy defined for resource")
)

// Policy defines authorization rules for a resource type.
// For list/create, resource may be nil (context-only check).
type Policy interface {
	Can(ctx context.Context, actor Actor, action Action, resource any) bool
}

// Gate is the central authorization checkpoint.
type Gate struct {
	policies map[string]Policy
}

// NewGate creates an empty Gate ready to register policies.
func NewGate() *Gate {
	return &Gate{policies: make(map[string]Policy)}
}

// Register adds a policy for a given resource type (e.g. "offer").
// Overwrites any existing policy for that type.
func (g *Gate) Register(resourceType string, p Policy) {
	g.policies[resourceType] = p
}

// Authorize checks authorization and returns an error if denied.
// An anonymous actor (zero ID) is always denied.
func (g *Gate) Authorize(ctx context.Context, actor Actor, action Action, resourceType string, resource any) error {
	if actor.ID == 0 {
		return ErrUnauthorized
	}
	p, ok := g.policies[resourceType]
	if !ok {
		return ErrNoPolicyDefined
	}
	if !p.Can(ctx, actor, action, resource) {
		return ErrUnauthorized
	}
	return nil
}

// Can is a convenience wrapper returning bool instead of error.
func (g *Gate) Can(ctx context.Context, actor Actor, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, actor, action, resourceType, resource) == nil
}
