package backend_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/UnknownOlympus/registrar/internal/client/backend"
	"github.com/UnknownOlympus/registrar/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPayload = models.CreateEmployeeRequest{
	FirstName:   "Иван",
	LastName:    "Иванов",
	PhoneNumber: "+77011234567",
	Email:       "ivanov@gmail.com",
	IIN:         "850101123456",
	Role:        models.RoleMentor,
}

func TestCreateEmployee(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/v1/employees", r.URL.Path)
			assert.Equal(t, "Bearer access", r.Header.Get("Authorization"))
			assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

			var got models.CreateEmployeeRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			assert.Equal(t, testPayload, got)

			writeJSON(w, http.StatusCreated, `{"userId":7,"firstName":"Иван","lastName":"Иванов","active":true}`)
		}))

		session := client.Session(&memoryStore{tokens: models.Tokens{AccessToken: "access", RefreshToken: "refresh"}})
		employee, err := session.CreateEmployee(t.Context(), testPayload)

		require.NoError(t, err)
		assert.Equal(t, int64(7), employee.UserID)
		assert.True(t, employee.Active)
	})

	t.Run("conflict with message only", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusBadRequest, `{
				"error": "Bad Request",
				"message": "Пользователь с таким номером уже существует",
				"status": 400,
				"timestamp": "2026-01-22T12:00:00Z",
				"path": "/api/v1/employees"
			}`)
		}))

		session := client.Session(&memoryStore{tokens: models.Tokens{AccessToken: "access"}})
		_, err := session.CreateEmployee(t.Context(), testPayload)

		var conflictErr *backend.ConflictError
		require.ErrorAs(t, err, &conflictErr)
		assert.Equal(t, "Пользователь с таким номером уже существует", conflictErr.Message)
		assert.Equal(t, http.StatusBadRequest, conflictErr.Status)
		assert.Nil(t, conflictErr.UserID)
		assert.Nil(t, conflictErr.ExistingUser)
		assert.Empty(t, conflictErr.ConflictType)
	})

	t.Run("conflict with structured payload", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusBadRequest, `{
				"message": "Сотрудник с таким номером телефона уже существует",
				"status": 400,
				"userId": 42,
				"conflictType": "EMPLOYEE_EXISTS",
				"existingUser": {"userId": 42, "firstName": "Иван", "lastName": "Иванов",
					"phoneNumber": "+77011234567", "iin": "850101123456"}
			}`)
		}))

		session := client.Session(&memoryStore{tokens: models.Tokens{AccessToken: "access"}})
		_, err := session.CreateEmployee(t.Context(), testPayload)

		var conflictErr *backend.ConflictError
		require.ErrorAs(t, err, &conflictErr)
		require.NotNil(t, conflictErr.UserID)
		assert.Equal(t, int64(42), *conflictErr.UserID)
		assert.Equal(t, models.ConflictEmployeeExists, conflictErr.ConflictType)
		assert.Equal(t, &models.ExistingUserInfo{
			UserID: 42, FirstName: "Иван", LastName: "Иванов", PhoneNumber: "+77011234567", IIN: "850101123456",
		}, conflictErr.ExistingUser)
	})

	t.Run("conflict without body uses default message", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))

		session := client.Session(&memoryStore{tokens: models.Tokens{AccessToken: "access"}})
		_, err := session.CreateEmployee(t.Context(), testPayload)

		var conflictErr *backend.ConflictError
		require.ErrorAs(t, err, &conflictErr)
		assert.Equal(t, "Конфликт при добавлении сотрудника", conflictErr.Message)
	})

	t.Run("server error is not a conflict", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusInternalServerError, `{"message":"База данных недоступна","status":500}`)
		}))

		session := client.Session(&memoryStore{tokens: models.Tokens{AccessToken: "access"}})
		_, err := session.CreateEmployee(t.Context(), testPayload)

		var conflictErr *backend.ConflictError
		assert.False(t, errors.As(err, &conflictErr))
		var apiErr *backend.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
		assert.Equal(t, "База данных недоступна", backend.UserMessage(err))
	})
}

func TestConflictResolutionEndpoints(t *testing.T) {
	t.Parallel()

	paths := make(chan string, 2)
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.Path
		writeJSON(w, http.StatusOK, `{"userId":42}`)
	}))
	session := client.Session(&memoryStore{tokens: models.Tokens{AccessToken: "access"}})

	_, err := session.ConfirmExistingUser(t.Context(), 42, testPayload)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/employees/confirm-existing/42", <-paths)

	_, err = session.TakePhoneAndCreate(t.Context(), 42, testPayload)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/employees/take-phone-create/42", <-paths)
}

func TestConfirmExistingUser_ConflictDefaultMessage(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"status":400}`)
	}))
	session := client.Session(&memoryStore{tokens: models.Tokens{AccessToken: "access"}})

	_, err := session.ConfirmExistingUser(t.Context(), 42, testPayload)

	var conflictErr *backend.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, "Конфликт при подтверждении пользователя", conflictErr.Message)
}

func TestListEmployees(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/employees", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("size"))
		assert.Equal(t, "Иван", r.URL.Query().Get("q"))
		assert.Equal(t, "teacher", r.URL.Query().Get("role"))
		assert.Equal(t, "active", r.URL.Query().Get("status"))
		writeJSON(w, http.StatusOK, `{"items":[{"userId":1,"firstName":"Иван"}],"total":21}`)
	}))
	session := client.Session(&memoryStore{tokens: models.Tokens{AccessToken: "access"}})

	page, err := session.ListEmployees(t.Context(), backend.ListParams{
		Page: 2, Size: 10, Query: "Иван", Role: models.RoleTeacher, Status: "active",
	})

	require.NoError(t, err)
	assert.Equal(t, 21, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Иван", page.Items[0].FirstName)
}

func TestSearchEmployees(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/employees/search", r.URL.Path)
		assert.Equal(t, "Иванов", r.URL.Query().Get("q"))
		writeJSON(w, http.StatusOK, `[{"userId":3,"lastName":"Иванов"}]`)
	}))
	session := client.Session(&memoryStore{tokens: models.Tokens{AccessToken: "access"}})

	employees, err := session.SearchEmployees(t.Context(), "Иванов")

	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, int64(3), employees[0].UserID)
}

func TestListEmployees_OmitsEmptyFilters(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "page=0", r.URL.RawQuery)
		writeJSON(w, http.StatusOK, `{"items":[],"total":0}`)
	}))
	session := client.Session(&memoryStore{tokens: models.Tokens{AccessToken: "access"}})

	page, err := session.ListEmployees(t.Context(), backend.ListParams{})

	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestEmployeeActions(t *testing.T) {
	t.Parallel()

	type call struct {
		method string
		path   string
		query  string
	}
	calls := make(chan call, 3)
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls <- call{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery}
		w.WriteHeader(http.StatusNoContent)
	}))
	session := client.Session(&memoryStore{tokens: models.Tokens{AccessToken: "access"}})

	require.NoError(t, session.ToggleEmployeeStatus(t.Context(), 5, false))
	assert.Equal(t, call{http.MethodPatch, "/api/v1/employees/5/status", "active=false"}, <-calls)

	require.NoError(t, session.MakeHead(t.Context(), 5))
	assert.Equal(t, call{http.MethodPost, "/api/v1/employees/5/make-head", ""}, <-calls)

	require.NoError(t, session.TakePhoneFrom(t.Context(), 5, 9, "+77011234567"))
	assert.Equal(t, call{http.MethodPost, "/api/v1/employees/5/take-phone-from/9", "phone=%2B77011234567"}, <-calls)
}

func TestEmployeeUpdates(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		switch r.URL.Path {
		case "/api/v1/employees/5":
			assert.Equal(t, http.MethodPatch, r.Method)
			assert.Equal(t, map[string]any{"role": "mentor"}, body)
			writeJSON(w, http.StatusOK, `{"userId":5,"role":"mentor"}`)
		case "/api/v1/employees/5/phone":
			assert.Equal(t, http.MethodPatch, r.Method)
			assert.Equal(t, "+77017654321", body["phoneNumber"])
			writeJSON(w, http.StatusBadRequest, `{"status":400}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	session := client.Session(&memoryStore{tokens: models.Tokens{AccessToken: "access"}})

	employee, err := session.UpdateEmployee(t.Context(), 5, models.UpdateEmployeeRequest{Role: models.RoleMentor})
	require.NoError(t, err)
	assert.Equal(t, models.RoleMentor, employee.Role)

	_, err = session.UpdateEmployeePhone(t.Context(), 5, models.UpdatePhoneRequest{PhoneNumber: "+77017654321"})
	var conflictErr *backend.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, "Конфликт при обновлении номера телефона", conflictErr.Message)
}
