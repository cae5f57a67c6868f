package bot

import (
	"testing"

	"github.com/UnknownOlympus/registrar/internal/client/backend"
	"github.com/UnknownOlympus/registrar/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateManager_GetPops(t *testing.T) {
	t.Parallel()
	sm := NewStateManager()

	sm.Set(1, UserState{WaitingFor: stateAwaitingCode, Phone: "+77011234567"})

	state, ok := sm.Peek(1)
	require.True(t, ok)
	assert.Equal(t, "+77011234567", state.Phone)

	state, ok = sm.Get(1)
	require.True(t, ok)
	assert.Equal(t, stateAwaitingCode, state.WaitingFor)

	_, ok = sm.Get(1)
	assert.False(t, ok)
}

func TestStateManager_RememberedEmployees(t *testing.T) {
	t.Parallel()
	sm := NewStateManager()

	sm.Remember(1, []models.Employee{{UserID: 10, FirstName: "A"}, {UserID: 11, FirstName: "B"}})

	employee, ok := sm.Employee(1, 11)
	require.True(t, ok)
	assert.Equal(t, "B", employee.FirstName)

	sm.UpdateEmployee(1, models.Employee{UserID: 11, FirstName: "B", Active: true})
	employee, _ = sm.Employee(1, 11)
	assert.True(t, employee.Active)

	// Employees that were not shown are not added.
	sm.UpdateEmployee(1, models.Employee{UserID: 12})
	_, ok = sm.Employee(1, 12)
	assert.False(t, ok)

	// A new page replaces the remembered set.
	sm.Remember(1, []models.Employee{{UserID: 20}})
	_, ok = sm.Employee(1, 10)
	assert.False(t, ok)
}

func TestStateManager_Reset(t *testing.T) {
	t.Parallel()
	sm := NewStateManager()

	sm.Set(1, UserState{WaitingFor: stateAwaitingSearch})
	sm.SetFilter(1, backend.ListParams{Status: statusActive})
	sm.Remember(1, []models.Employee{{UserID: 10}})
	sm.Set(2, UserState{WaitingFor: stateAwaitingForm})

	sm.Reset(1)

	_, ok := sm.Peek(1)
	assert.False(t, ok)
	_, ok = sm.Filter(1)
	assert.False(t, ok)
	_, ok = sm.Employee(1, 10)
	assert.False(t, ok)
	_, ok = sm.Peek(2)
	assert.True(t, ok)
}

func TestNavigationStack(t *testing.T) {
	t.Parallel()
	ns := NewNavigationStack()

	assert.Equal(t, MenuMain, ns.Current(1))

	ns.Push(1, MenuMain)
	ns.Push(1, MenuEmployees)
	ns.Push(1, MenuEmployees)
	assert.Equal(t, MenuEmployees, ns.Current(1))

	assert.Equal(t, MenuEmployees, ns.Pop(1))
	assert.Equal(t, MenuMain, ns.Current(1))

	for range maxNavigationDepth + 3 {
		ns.Push(1, MenuMain)
		ns.Push(1, MenuEmployees)
	}
	ns.mu.RLock()
	assert.Len(t, ns.stacks[1], maxNavigationDepth)
	ns.mu.RUnlock()

	ns.Reset(1)
	assert.Equal(t, MenuMain, ns.Current(1))
}
