// Package dialog drives the employee creation dialog through conflict resolution.
package dialog

import (
	"github.com/UnknownOlympus/registrar/internal/conflict"
	"github.com/UnknownOlympus/registrar/internal/models"
)

// State is the current step of one creation dialog. Exactly one state is active at a time.
type State int

const (
	Idle State = iota
	CreatingEmployee
	ShowingUserExistsDialog
	ShowingEmployeeExistsDialog
	ShowingRefusalDialog
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case CreatingEmployee:
		return "creating_employee"
	case ShowingUserExistsDialog:
		return "user_exists_dialog"
	case ShowingEmployeeExistsDialog:
		return "employee_exists_dialog"
	case ShowingRefusalDialog:
		return "refusal_dialog"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// ConflictState is kept from the rejected creation attempt until the dialog closes or a
// resolving call succeeds.
type ConflictState struct {
	Scenario     conflict.Scenario
	ExistingUser *models.ExistingUserInfo // nil when the backend sent no usable detail
	FormData     models.CreateEmployeeRequest
	Message      string
}

func (c *ConflictState) clone() *ConflictState {
	if c == nil {
		return nil
	}
	cp := *c
	if c.ExistingUser != nil {
		user := *c.ExistingUser
		cp.ExistingUser = &user
	}
	return &cp
}

// View is a snapshot of a flow for rendering. Changing it does not affect the flow.
type View struct {
	State      State
	Conflict   *ConflictState
	Submitting bool
}

// CanResolve reports whether resolution actions can be offered right now.
func (v View) CanResolve() bool {
	return !v.Submitting && v.Conflict != nil && v.Conflict.ExistingUser != nil
}
