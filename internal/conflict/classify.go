// Package conflict classifies failed employee creation attempts.
package conflict

import (
	"errors"
	"strings"

	"github.com/UnknownOlympus/registrar/internal/client/backend"
	"github.com/UnknownOlympus/registrar/internal/models"
)

// Scenario is the kind of collision behind a failed creation attempt.
type Scenario string

const (
	UserExists     Scenario = Scenario(models.ConflictUserExists)
	EmployeeExists Scenario = Scenario(models.ConflictEmployeeExists)
	Unknown        Scenario = "UNKNOWN"
)

// Message fragments the backend uses when it sends no conflictType. They match the
// backend wording exactly and are therefore not localized.
const (
	userExistsMarker     = "Пользователь с таким номером"
	employeeExistsMarker = "Сотрудник с таким номером"
)

// Classify returns the conflict scenario of err. An explicit conflictType from the
// backend wins; otherwise the message is matched against the known fragments.
func Classify(err error) Scenario {
	var conflictErr *backend.ConflictError
	if !errors.As(err, &conflictErr) {
		return Unknown
	}

	if conflictErr.ConflictType != "" {
		return Scenario(conflictErr.ConflictType)
	}

	switch {
	case strings.Contains(conflictErr.Message, userExistsMarker):
		return UserExists
	case strings.Contains(conflictErr.Message, employeeExistsMarker):
		return EmployeeExists
	default:
		return Unknown
	}
}

// HasDisplayableDetail reports whether err carries an existing-user snapshot complete
// enough to render: identifier, first name and last name must all be set.
func HasDisplayableDetail(err error) bool {
	var conflictErr *backend.ConflictError
	if !errors.As(err, &conflictErr) || conflictErr.ExistingUser == nil {
		return false
	}

	user := conflictErr.ExistingUser
	return user.UserID != 0 && user.FirstName != "" && user.LastName != ""
}

// IsResolvable reports whether the scenario has a resolution dialog.
func (s Scenario) IsResolvable() bool {
	return s == UserExists || s == EmployeeExists
}
