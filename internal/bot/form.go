package bot

import (
	"errors"
	"strings"

	"github.com/UnknownOlympus/registrar/internal/models"
)

// formStep is the field the create employee wizard asks for next.
type formStep int

const (
	stepLastName formStep = iota
	stepFirstName
	stepPhone
	stepEmail
	stepCitizenship
	stepIIN
	stepRole
	stepConfirm
)

const gmailSuffix = "@gmail.com"

var (
	ErrFieldRequired = errors.New("field is required")
	ErrEmailNotGmail = errors.New("email must end with @gmail.com")
	ErrUnknownRole   = errors.New("unknown role")
	ErrUseButtons    = errors.New("this step is answered with buttons")
)

// EmployeeForm collects the fields of a new employee one message at a time.
type EmployeeForm struct {
	Step        formStep
	LastName    string
	FirstName   string
	PhoneNumber string
	Email       string
	NotCitizen  bool
	IIN         string
	Role        models.Role
}

// ApplyText stores input for the current text step and advances the wizard.
func (f *EmployeeForm) ApplyText(input string) error {
	value := strings.TrimSpace(input)

	switch f.Step {
	case stepLastName:
		return f.set(&f.LastName, value, stepFirstName)
	case stepFirstName:
		return f.set(&f.FirstName, value, stepPhone)
	case stepPhone:
		return f.set(&f.PhoneNumber, strings.Join(strings.Fields(value), ""), stepEmail)
	case stepEmail:
		if err := validateEmail(value); err != nil {
			return err
		}
		f.Email = value
		f.Step = stepCitizenship
		return nil
	case stepIIN:
		return f.set(&f.IIN, value, stepRole)
	default:
		return ErrUseButtons
	}
}

func (f *EmployeeForm) set(field *string, value string, next formStep) error {
	if value == "" {
		return ErrFieldRequired
	}
	*field = value
	f.Step = next
	return nil
}

// SetCitizenship answers the citizenship question. Non-citizens skip the IIN step.
func (f *EmployeeForm) SetCitizenship(citizen bool) error {
	if f.Step != stepCitizenship {
		return ErrUseButtons
	}
	f.NotCitizen = !citizen
	if citizen {
		f.Step = stepIIN
		return nil
	}
	f.IIN = ""
	f.Step = stepRole
	return nil
}

// SetRole answers the role question.
func (f *EmployeeForm) SetRole(role models.Role) error {
	if f.Step != stepRole {
		return ErrUseButtons
	}
	if !role.IsValid() {
		return ErrUnknownRole
	}
	f.Role = role
	f.Step = stepConfirm
	return nil
}

// Validate checks the complete form before it is submitted.
func (f EmployeeForm) Validate() error {
	for _, value := range []string{f.LastName, f.FirstName, f.PhoneNumber, f.Email} {
		if value == "" {
			return ErrFieldRequired
		}
	}
	if err := validateEmail(f.Email); err != nil {
		return err
	}
	if !f.NotCitizen && f.IIN == "" {
		return ErrFieldRequired
	}
	if !f.Role.IsValid() {
		return ErrUnknownRole
	}
	return nil
}

// Request returns the payload for the backend. The IIN placeholder is applied by the dialog flow.
func (f EmployeeForm) Request() models.CreateEmployeeRequest {
	return models.CreateEmployeeRequest{
		FirstName:   f.FirstName,
		LastName:    f.LastName,
		PhoneNumber: f.PhoneNumber,
		Email:       f.Email,
		IIN:         f.IIN,
		NotCitizen:  f.NotCitizen,
		Role:        f.Role,
	}
}

func validateEmail(value string) error {
	if value == "" {
		return ErrFieldRequired
	}
	if !strings.HasSuffix(strings.ToLower(value), gmailSuffix) || len(value) == len(gmailSuffix) {
		return ErrEmailNotGmail
	}
	return nil
}

func (s formStep) promptKey() string {
	switch s {
	case stepLastName:
		return "form.prompt.last_name"
	case stepFirstName:
		return "form.prompt.first_name"
	case stepPhone:
		return "form.prompt.phone"
	case stepEmail:
		return "form.prompt.email"
	case stepCitizenship:
		return "form.prompt.citizenship"
	case stepIIN:
		return "form.prompt.iin"
	case stepRole:
		return "form.prompt.role"
	default:
		return "form.prompt.confirm"
	}
}

func formErrorKey(err error) string {
	switch {
	case errors.Is(err, ErrFieldRequired):
		return "form.error.required"
	case errors.Is(err, ErrEmailNotGmail):
		return "form.error.gmail"
	case errors.Is(err, ErrUnknownRole):
		return "form.error.role"
	case errors.Is(err, ErrUseButtons):
		return "form.error.use_buttons"
	default:
		return "error.internal"
	}
}
