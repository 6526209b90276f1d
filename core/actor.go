package core

import "github.com/google/uuid"

// Role is the role of an actor in the library.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleLibrarian Role = "LIBRARIAN"
	RoleStudent   Role = "STUDENT"
)

// Actor is whoever triggers a lifecycle transition. It is always passed explicitly, never read from ambient state.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// BuildActor creates a new Actor.
func BuildActor(id uuid.UUID, role Role) Actor {
	return Actor{ID: id, Role: role}
}

// IsStaff returns true for admins and librarians.
func (a Actor) IsStaff() bool {
	return a.Role == RoleAdmin || a.Role == RoleLibrarian
}

// MayRenew returns true if the actor owns the loan or is staff.
func (a Actor) MayRenew(loan Loan) bool {
	return a.ID == loan.BorrowerID || a.IsStaff()
}
