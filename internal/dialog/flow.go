package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/UnknownOlympus/registrar/internal/client/backend"
	"github.com/UnknownOlympus/registrar/internal/conflict"
	"github.com/UnknownOlympus/registrar/internal/metrics"
	"github.com/UnknownOlympus/registrar/internal/models"
)

var (
	// ErrBusy is returned while a call of the same flow is still in flight.
	ErrBusy = errors.New("dialog has a request in flight")
	// ErrInvalidTransition is returned when an action is not available in the current state.
	ErrInvalidTransition = errors.New("action is not available in the current dialog state")
)

// Employees performs the creation-family calls of the backend.
type Employees interface {
	CreateEmployee(ctx context.Context, payload models.CreateEmployeeRequest) (models.Employee, error)
	ConfirmExistingUser(ctx context.Context, existingUserID int64, payload models.CreateEmployeeRequest) (models.Employee, error)
	TakePhoneAndCreate(ctx context.Context, existingUserID int64, payload models.CreateEmployeeRequest) (models.Employee, error)
}

// Level is the severity of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification keys, resolved by the notifier into localized text.
const (
	KeyEmployeeCreated  = "notify.employee_created"
	KeyConflictNoDetail = "notify.conflict_no_detail"
	KeyCreateFailed     = "notify.create_failed"
	KeyResolveFailed    = "notify.resolve_failed"
)

// Notification is a transient message for the administrator. Text holds the backend
// message when there is one; Key is the fallback.
type Notification struct {
	Level Level
	Key   string
	Text  string
}

// Notifier surfaces notifications. It must not block the flow.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Outcome describes how an action settled.
type Outcome int

const (
	OutcomeCreated  Outcome = iota + 1 // employee created, dialog closed
	OutcomeConflict                    // creation rejected with a resolvable conflict
	OutcomeFailed                      // creation failed without a resolvable conflict, back to the form
	OutcomeRetained                    // resolving call failed, conflict kept for another attempt
	OutcomeIgnored                     // nothing to resolve against
)

// Result is returned by the network-backed actions.
type Result struct {
	Outcome  Outcome
	Employee models.Employee
	Err      error // the backend failure for OutcomeFailed and OutcomeRetained
}

// Option configures a Flow.
type Option func(*Flow)

// WithMetrics records conflicts and resolution attempts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Flow) {
		f.metrics = m
	}
}

// WithOnSuccess registers a callback invoked after an employee has been created by any path.
func WithOnSuccess(fn func(ctx context.Context, employee models.Employee)) Option {
	return func(f *Flow) {
		f.onSuccess = fn
	}
}

type resolution struct {
	name    string
	allowed func(State) bool
	call    func(ctx context.Context, existingUserID int64, payload models.CreateEmployeeRequest) (models.Employee, error)
}

// Flow is one employee creation dialog. State changes happen under the mutex; backend
// calls and notifications happen outside it.
type Flow struct {
	employees Employees
	notifier  Notifier
	log       *slog.Logger
	metrics   *metrics.Metrics
	onSuccess func(ctx context.Context, employee models.Employee)

	mu         sync.Mutex
	state      State
	conflict   *ConflictState
	submitting bool
}

// NewFlow returns a flow in the Idle state.
func NewFlow(log *slog.Logger, employees Employees, notifier Notifier, opts ...Option) *Flow {
	f := &Flow{
		employees: employees,
		notifier:  notifier,
		log:       log,
		state:     Idle,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Submit sends the creation request for payload.
func (f *Flow) Submit(ctx context.Context, payload models.CreateEmployeeRequest) (Result, error) {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return Result{}, ErrBusy
	}
	if f.state != Idle {
		state := f.state
		f.mu.Unlock()
		return Result{}, fmt.Errorf("%w: submit in %s", ErrInvalidTransition, state)
	}
	f.state = CreatingEmployee
	f.submitting = true
	f.mu.Unlock()

	employee, err := f.employees.CreateEmployee(ctx, conflict.NormalizePayload(payload))
	if err == nil {
		f.settleSuccess()
		f.created(ctx, "create", employee)
		return Result{Outcome: OutcomeCreated, Employee: employee}, nil
	}

	scenario := conflict.Classify(err)
	if f.metrics != nil {
		f.metrics.Conflicts.WithLabelValues(string(scenario)).Inc()
	}

	if !scenario.IsResolvable() {
		f.mu.Lock()
		f.state = Idle
		f.conflict = nil
		f.submitting = false
		f.mu.Unlock()

		f.log.WarnContext(ctx, "Employee creation failed", "error", err)
		f.notify(ctx, Notification{Level: LevelError, Key: KeyCreateFailed, Text: backend.UserMessage(err)})
		return Result{Outcome: OutcomeFailed, Err: err}, nil
	}

	state := &ConflictState{Scenario: scenario, FormData: payload, Message: err.Error()}
	if conflict.HasDisplayableDetail(err) {
		var conflictErr *backend.ConflictError
		errors.As(err, &conflictErr)
		user := *conflictErr.ExistingUser
		state.ExistingUser = &user
	}

	f.mu.Lock()
	f.conflict = state
	f.submitting = false
	if scenario == conflict.UserExists {
		f.state = ShowingUserExistsDialog
	} else {
		f.state = ShowingEmployeeExistsDialog
	}
	f.mu.Unlock()

	f.log.InfoContext(ctx, "Employee creation conflict", "scenario", scenario, "detail", state.ExistingUser != nil)
	if state.ExistingUser == nil {
		f.notify(ctx, Notification{Level: LevelWarning, Key: KeyConflictNoDetail})
	}
	return Result{Outcome: OutcomeConflict, Err: err}, nil
}

// ConfirmExisting turns the existing user into an employee with the stored form data.
func (f *Flow) ConfirmExisting(ctx context.Context) (Result, error) {
	return f.resolve(ctx, resolution{
		name:    "confirm_existing",
		allowed: func(s State) bool { return s == ShowingUserExistsDialog },
		call:    f.employees.ConfirmExistingUser,
	})
}

// TakePhone creates the employee and moves the phone number away from the existing record.
func (f *Flow) TakePhone(ctx context.Context) (Result, error) {
	return f.resolve(ctx, resolution{
		name: "take_phone",
		allowed: func(s State) bool {
			return s == ShowingUserExistsDialog || s == ShowingEmployeeExistsDialog
		},
		call: f.employees.TakePhoneAndCreate,
	})
}

// ConfirmIdentity acknowledges that the existing employee is the same person. No call is made.
func (f *Flow) ConfirmIdentity() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.submitting {
		return ErrBusy
	}
	if f.state != ShowingEmployeeExistsDialog {
		return fmt.Errorf("%w: confirm identity in %s", ErrInvalidTransition, f.state)
	}
	f.state = ShowingRefusalDialog
	return nil
}

// Close dismisses the dialog from any state and discards the conflict.
func (f *Flow) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.submitting {
		return ErrBusy
	}
	f.state = Closed
	f.conflict = nil
	return nil
}

// View returns a snapshot of the flow.
func (f *Flow) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()

	return View{State: f.state, Conflict: f.conflict.clone(), Submitting: f.submitting}
}

func (f *Flow) resolve(ctx context.Context, r resolution) (Result, error) {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return Result{}, ErrBusy
	}
	if !r.allowed(f.state) {
		state := f.state
		f.mu.Unlock()
		return Result{}, fmt.Errorf("%w: %s in %s", ErrInvalidTransition, r.name, state)
	}
	if f.conflict.ExistingUser == nil {
		f.mu.Unlock()
		return Result{Outcome: OutcomeIgnored}, nil
	}
	existingUserID := f.conflict.ExistingUser.UserID
	payload := conflict.NormalizePayload(f.conflict.FormData)
	f.submitting = true
	f.mu.Unlock()

	employee, err := r.call(ctx, existingUserID, payload)
	if err != nil {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()

		f.observeResolution(r.name, "failure")
		f.log.WarnContext(ctx, "Conflict resolution failed", "action", r.name, "existingUser", existingUserID, "error", err)
		f.notify(ctx, Notification{Level: LevelError, Key: KeyResolveFailed, Text: backend.UserMessage(err)})
		return Result{Outcome: OutcomeRetained, Err: err}, nil
	}

	f.settleSuccess()
	f.observeResolution(r.name, "success")
	f.created(ctx, r.name, employee)
	return Result{Outcome: OutcomeCreated, Employee: employee}, nil
}

func (f *Flow) settleSuccess() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.state = Closed
	f.conflict = nil
	f.submitting = false
}

func (f *Flow) created(ctx context.Context, action string, employee models.Employee) {
	f.log.InfoContext(ctx, "Employee created", "action", action, "employee", employee.UserID)
	f.notify(ctx, Notification{Level: LevelSuccess, Key: KeyEmployeeCreated})
	if f.onSuccess != nil {
		f.onSuccess(ctx, employee)
	}
}

func (f *Flow) notify(ctx context.Context, n Notification) {
	if f.notifier != nil {
		f.notifier.Notify(ctx, n)
	}
}

func (f *Flow) observeResolution(action, result string) {
	if f.metrics != nil {
		f.metrics.Resolutions.WithLabelValues(action, result).Inc()
	}
}
