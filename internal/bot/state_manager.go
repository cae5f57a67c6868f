package bot

import (
	"sync"

	"github.com/UnknownOlympus/registrar/internal/client/backend"
	"github.com/UnknownOlympus/registrar/internal/models"
)

const (
	stateAwaitingPhone  = "awaiting_phone"
	stateAwaitingCode   = "awaiting_code"
	stateAwaitingSearch = "awaiting_search"
	stateAwaitingForm   = "awaiting_form"
)

// UserState saves a context for next message from user.
type UserState struct {
	WaitingFor string
	Phone      string       // phone number the login code was sent to
	Form       EmployeeForm // create employee wizard in progress
}

// StateManager manages the per-chat conversation state, list filters and the last shown employees.
type StateManager struct {
	mu        sync.Mutex
	states    map[int64]UserState
	filters   map[int64]backend.ListParams
	employees map[int64]map[int64]models.Employee
}

func NewStateManager() *StateManager {
	return &StateManager{
		states:    make(map[int64]UserState),
		filters:   make(map[int64]backend.ListParams),
		employees: make(map[int64]map[int64]models.Employee),
	}
}

// Set sets the state for the user.
func (sm *StateManager) Set(userID int64, state UserState) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.states[userID] = state
}

// Get gets and immediately delete user state.
func (sm *StateManager) Get(userID int64) (UserState, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	state, ok := sm.states[userID]
	if ok {
		delete(sm.states, userID)
	}
	return state, ok
}

// Peek returns the user state without deleting it.
func (sm *StateManager) Peek(userID int64) (UserState, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	state, ok := sm.states[userID]
	return state, ok
}

// Clear forgets the conversation state of the user.
func (sm *StateManager) Clear(userID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.states, userID)
}

// Filter returns the employee list filter of the user.
func (sm *StateManager) Filter(userID int64) (backend.ListParams, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	params, ok := sm.filters[userID]
	return params, ok
}

// SetFilter stores the employee list filter of the user.
func (sm *StateManager) SetFilter(userID int64, params backend.ListParams) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.filters[userID] = params
}

// Remember keeps the employees last shown to the user so their cards can be opened.
func (sm *StateManager) Remember(userID int64, employees []models.Employee) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	shown := make(map[int64]models.Employee, len(employees))
	for _, e := range employees {
		shown[e.UserID] = e
	}
	sm.employees[userID] = shown
}

// Employee returns a remembered employee.
func (sm *StateManager) Employee(userID, employeeID int64) (models.Employee, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	e, ok := sm.employees[userID][employeeID]
	return e, ok
}

// UpdateEmployee replaces a remembered employee, if it is still remembered.
func (sm *StateManager) UpdateEmployee(userID int64, employee models.Employee) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if shown, ok := sm.employees[userID]; ok {
		if _, known := shown[employee.UserID]; known {
			shown[employee.UserID] = employee
		}
	}
}

// Reset drops everything kept for the user.
func (sm *StateManager) Reset(userID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.states, userID)
	delete(sm.filters, userID)
	delete(sm.employees, userID)
}
