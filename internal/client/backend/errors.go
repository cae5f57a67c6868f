package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/UnknownOlympus/registrar/internal/models"
)

// Default messages used when a 400 response carries no message of its own.
const (
	msgCreateConflict      = "Конфликт при добавлении сотрудника"
	msgConfirmConflict     = "Конфликт при подтверждении пользователя"
	msgTakePhoneConflict   = "Конфликт при создании сотрудника"
	msgUpdateConflict      = "Конфликт при обновлении сотрудника"
	msgUpdatePhoneConflict = "Конфликт при обновлении номера телефона"
)

var (
	// ErrSessionExpired is returned when the access token was rejected and could not be refreshed.
	ErrSessionExpired = errors.New("backend session expired")
	// ErrUnhealthy is returned by Ping when the backend health endpoint does not answer 2xx.
	ErrUnhealthy = errors.New("backend is unhealthy")
)

// ConflictError is a classified 400 response from an employee creation-family call.
// Only Message and Status are guaranteed; the structured fields are present when the
// backend sends them.
type ConflictError struct {
	Message      string
	Status       int
	UserID       *int64
	ExistingUser *models.ExistingUserInfo
	ConflictType models.ConflictType
}

func (e *ConflictError) Error() string {
	return e.Message
}

// APIError is any backend failure that is not a ConflictError: another status code,
// a transport failure (Status == 0) or an undecodable response.
type APIError struct {
	Status  int
	Message string // backend-provided text, empty when the backend sent none
	Err     error
}

func (e *APIError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return fmt.Sprintf("backend request failed: %v", e.Err)
	default:
		return fmt.Sprintf("backend request failed with status %d", e.Status)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text the backend supplied for err, if any.
func UserMessage(err error) string {
	var conflictErr *ConflictError
	if errors.As(err, &conflictErr) {
		return conflictErr.Message
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// errorBody is the Spring-style error document returned by the backend. The conflict
// fields are additive: older deployments send only message.
type errorBody struct {
	Error        string                   `json:"error"`
	Message      string                   `json:"message"`
	Status       int                      `json:"status"`
	Path         string                   `json:"path"`
	UserID       *int64                   `json:"userId"`
	ExistingUser *models.ExistingUserInfo `json:"existingUser"`
	ConflictType models.ConflictType      `json:"conflictType"`
}

// decodeError turns a non-2xx response into one of the tagged error variants.
// conflictMessage is non-empty for calls whose 400 responses are conflicts.
func decodeError(status int, body []byte, conflictMessage string) error {
	var payload errorBody
	if len(body) > 0 {
		// A non-JSON body still yields a usable error with an empty message.
		_ = json.Unmarshal(body, &payload)
	}

	if status == http.StatusBadRequest && conflictMessage != "" {
		message := payload.Message
		if message == "" {
			message = conflictMessage
		}
		return &ConflictError{
			Message:      message,
			Status:       http.StatusBadRequest,
			UserID:       payload.UserID,
			ExistingUser: payload.ExistingUser,
			ConflictType: payload.ConflictType,
		}
	}

	return &APIError{Status: status, Message: payload.Message}
}
