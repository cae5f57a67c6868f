package models

import "time"

// Role is an employee role accepted by the backend.
type Role string

const (
	RoleExpert     Role = "expert"
	RoleMentor     Role = "mentor"
	RoleTeacher    Role = "teacher"
	RoleAccountant Role = "accountant"
)

// Roles lists every role in the order it is offered to administrators.
var Roles = []Role{RoleExpert, RoleMentor, RoleTeacher, RoleAccountant}

// IsValid reports whether the role is one the backend accepts.
func (r Role) IsValid() bool {
	switch r {
	case RoleExpert, RoleMentor, RoleTeacher, RoleAccountant:
		return true
	default:
		return false
	}
}

// ConflictType is the scenario tag the backend may attach to a 400 response.
type ConflictType string

const (
	ConflictUserExists     ConflictType = "USER_EXISTS"
	ConflictEmployeeExists ConflictType = "EMPLOYEE_EXISTS"
)

// Employee represents an employee record as returned by the backend.
type Employee struct {
	UserID            int64     `json:"userId"`                      // Unique identifier of the employee
	FirstName         string    `json:"firstName"`                   // First name of the employee
	LastName          string    `json:"lastName"`                    // Last name of the employee
	IIN               string    `json:"iin,omitempty"`               // National identification number
	PhoneNumber       string    `json:"phoneNumber,omitempty"`       // WhatsApp phone number
	Email             string    `json:"email,omitempty"`             // Gmail address
	Role              Role      `json:"role,omitempty"`              // Role of the employee
	Active            bool      `json:"active"`                      // Whether the employee is active
	PreferredLanguage string    `json:"preferredLanguage,omitempty"` // Preferred interface language
	CreatedAt         time.Time `json:"createdAt"`                   // Timestamp of when the record was created
}

// FullName returns "LastName FirstName", the order used across the admin UI.
func (e Employee) FullName() string {
	switch {
	case e.LastName == "":
		return e.FirstName
	case e.FirstName == "":
		return e.LastName
	default:
		return e.LastName + " " + e.FirstName
	}
}

// EmployeePage is a single page of the employee table.
type EmployeePage struct {
	Items []Employee `json:"items"`
	Total int        `json:"total"`
}

// ExistingUserInfo is a snapshot of the record that collided with a creation attempt.
// It is captured once from the backend response and never re-fetched.
type ExistingUserInfo struct {
	UserID      int64  `json:"userId"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
	IIN         string `json:"iin"`
}

// CreateEmployeeRequest is the validated form payload submitted by an administrator.
type CreateEmployeeRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
	IIN         string `json:"iin"`
	NotCitizen  bool   `json:"notCitizen"`
	Role        Role   `json:"role"`
}

// UpdateEmployeeRequest carries the editable employee fields. Empty fields are not sent.
type UpdateEmployeeRequest struct {
	IIN   string `json:"iin,omitempty"`
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role,omitempty"`
}

// UpdatePhoneRequest carries a new phone number for an employee.
type UpdatePhoneRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}
