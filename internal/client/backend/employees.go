package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/UnknownOlympus/registrar/internal/models"
)

// ListParams filters and paginates the employee table. Zero values are omitted.
type ListParams struct {
	Page   int
	Size   int
	Query  string
	Role   models.Role
	Status string // "active" or "inactive"
}

func (p ListParams) values() url.Values {
	values := url.Values{}
	values.Set("page", strconv.Itoa(p.Page))
	if p.Size > 0 {
		values.Set("size", strconv.Itoa(p.Size))
	}
	if p.Query != "" {
		values.Set("q", p.Query)
	}
	if p.Role != "" {
		values.Set("role", string(p.Role))
	}
	if p.Status != "" {
		values.Set("status", p.Status)
	}
	return values
}

// ListEmployees returns one page of the employee table.
func (s *Session) ListEmployees(ctx context.Context, params ListParams) (models.EmployeePage, error) {
	var page models.EmployeePage
	err := s.do(ctx, request{
		op:     "list_employees",
		method: http.MethodGet,
		path:   "/api/v1/employees",
		query:  params.values(),
	}, &page)
	if err != nil {
		return models.EmployeePage{}, err
	}
	return page, nil
}

// SearchEmployees performs a free-text search over employees.
func (s *Session) SearchEmployees(ctx context.Context, query string) ([]models.Employee, error) {
	var employees []models.Employee
	err := s.do(ctx, request{
		op:     "search_employees",
		method: http.MethodGet,
		path:   "/api/v1/employees/search",
		query:  url.Values{"q": {query}},
	}, &employees)
	if err != nil {
		return nil, err
	}
	return employees, nil
}

// CreateEmployee creates an employee. A 400 response is returned as *ConflictError.
func (s *Session) CreateEmployee(ctx context.Context, payload models.CreateEmployeeRequest) (models.Employee, error) {
	return s.employeeCall(ctx, request{
		op:              "create_employee",
		method:          http.MethodPost,
		path:            "/api/v1/employees",
		body:            payload,
		conflictMessage: msgCreateConflict,
	})
}

// ConfirmExistingUser converts the existing user into an employee using the submitted form data.
func (s *Session) ConfirmExistingUser(
	ctx context.Context,
	existingUserID int64,
	payload models.CreateEmployeeRequest,
) (models.Employee, error) {
	return s.employeeCall(ctx, request{
		op:              "confirm_existing",
		method:          http.MethodPost,
		path:            "/api/v1/employees/confirm-existing/" + formatID(existingUserID),
		body:            payload,
		conflictMessage: msgConfirmConflict,
	})
}

// TakePhoneAndCreate moves the phone number from the existing record to a newly created employee.
// The backend performs both steps atomically.
func (s *Session) TakePhoneAndCreate(
	ctx context.Context,
	existingUserID int64,
	payload models.CreateEmployeeRequest,
) (models.Employee, error) {
	return s.employeeCall(ctx, request{
		op:              "take_phone_create",
		method:          http.MethodPost,
		path:            "/api/v1/employees/take-phone-create/" + formatID(existingUserID),
		body:            payload,
		conflictMessage: msgTakePhoneConflict,
	})
}

// UpdateEmployee patches the editable fields of an employee.
func (s *Session) UpdateEmployee(
	ctx context.Context,
	userID int64,
	payload models.UpdateEmployeeRequest,
) (models.Employee, error) {
	return s.employeeCall(ctx, request{
		op:              "update_employee",
		method:          http.MethodPatch,
		path:            "/api/v1/employees/" + formatID(userID),
		body:            payload,
		conflictMessage: msgUpdateConflict,
	})
}

// UpdateEmployeePhone changes the phone number of an employee.
func (s *Session) UpdateEmployeePhone(
	ctx context.Context,
	userID int64,
	payload models.UpdatePhoneRequest,
) (models.Employee, error) {
	return s.employeeCall(ctx, request{
		op:              "update_phone",
		method:          http.MethodPatch,
		path:            "/api/v1/employees/" + formatID(userID) + "/phone",
		body:            payload,
		conflictMessage: msgUpdatePhoneConflict,
	})
}

// TakePhoneFrom moves phone from the source user to the target employee.
func (s *Session) TakePhoneFrom(ctx context.Context, targetUserID, sourceUserID int64, phone string) error {
	return s.do(ctx, request{
		op:     "take_phone_from",
		method: http.MethodPost,
		path:   "/api/v1/employees/" + formatID(targetUserID) + "/take-phone-from/" + formatID(sourceUserID),
		query:  url.Values{"phone": {phone}},
	}, nil)
}

// ToggleEmployeeStatus activates or deactivates an employee.
func (s *Session) ToggleEmployeeStatus(ctx context.Context, userID int64, active bool) error {
	return s.do(ctx, request{
		op:     "toggle_status",
		method: http.MethodPatch,
		path:   "/api/v1/employees/" + formatID(userID) + "/status",
		query:  url.Values{"active": {strconv.FormatBool(active)}},
	}, nil)
}

// MakeHead promotes an employee to head.
func (s *Session) MakeHead(ctx context.Context, userID int64) error {
	return s.do(ctx, request{
		op:     "make_head",
		method: http.MethodPost,
		path:   "/api/v1/employees/" + formatID(userID) + "/make-head",
	}, nil)
}

func (s *Session) employeeCall(ctx context.Context, req request) (models.Employee, error) {
	var employee models.Employee
	if err := s.do(ctx, req, &employee); err != nil {
		return models.Employee{}, err
	}
	return employee, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
