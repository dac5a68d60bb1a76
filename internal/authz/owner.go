// Package authz holds the ownership rule shared by every write path.
package authz

import "errors"

// Decision is the outcome of an authorization check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// ErrNotOwner is returned when an authenticated caller acts on a resource it does not own.
var ErrNotOwner = errors.New("you are not the owner of this item")

// AuthorizeOwner allows the call only when callerID owns the resource.
// A zero caller never owns anything.
func AuthorizeOwner(resourceOwnerID, callerID uint64) Decision {
	if callerID == 0 || resourceOwnerID != callerID {
		return Deny
	}
	return Allow
}

// RequireOwner is AuthorizeOwner as an error.
func RequireOwner(resourceOwnerID, callerID uint64) error {
	if AuthorizeOwner(resourceOwnerID, callerID) == Deny {
		return ErrNotOwner
	}
	return nil
}
