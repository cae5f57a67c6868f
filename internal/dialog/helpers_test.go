package dialog_test

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/UnknownOlympus/registrar/internal/dialog"
	"github.com/UnknownOlympus/registrar/internal/models"
)

type call struct {
	method         string
	existingUserID int64
	payload        models.CreateEmployeeRequest
}

// stubEmployees answers every call with the next queued response.
type stubEmployees struct {
	mu        sync.Mutex
	calls     []call
	responses []error
	block     chan struct{}
}

func (s *stubEmployees) next(c call) (models.Employee, error) {
	if s.block != nil {
		<-s.block
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, c)
	var err error
	if len(s.responses) > 0 {
		err = s.responses[0]
		s.responses = s.responses[1:]
	}
	if err != nil {
		return models.Employee{}, err
	}
	return models.Employee{
		UserID: int64(len(s.calls)), FirstName: c.payload.FirstName, LastName: c.payload.LastName,
		PhoneNumber: c.payload.PhoneNumber, IIN: c.payload.IIN, Role: c.payload.Role, Active: true,
	}, nil
}

func (s *stubEmployees) CreateEmployee(_ context.Context, p models.CreateEmployeeRequest) (models.Employee, error) {
	return s.next(call{method: "create", payload: p})
}

func (s *stubEmployees) ConfirmExistingUser(
	_ context.Context, id int64, p models.CreateEmployeeRequest,
) (models.Employee, error) {
	return s.next(call{method: "confirm", existingUserID: id, payload: p})
}

func (s *stubEmployees) TakePhoneAndCreate(
	_ context.Context, id int64, p models.CreateEmployeeRequest,
) (models.Employee, error) {
	return s.next(call{method: "take_phone", existingUserID: id, payload: p})
}

func (s *stubEmployees) recorded() []call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]call(nil), s.calls...)
}

type recordingNotifier struct {
	mu            sync.Mutex
	notifications []dialog.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n dialog.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

func (r *recordingNotifier) all() []dialog.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]dialog.Notification(nil), r.notifications...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func nonCitizenPayload() models.CreateEmployeeRequest {
	return models.CreateEmployeeRequest{
		FirstName:   "John",
		LastName:    "Smith",
		PhoneNumber: "+77011234567",
		Email:       "john.smith@gmail.com",
		NotCitizen:  true,
		Role:        models.RoleMentor,
	}
}

func existingUser() *models.ExistingUserInfo {
	return &models.ExistingUserInfo{
		UserID: 42, FirstName: "Иван", LastName: "Иванов", PhoneNumber: "+77011234567",
	}
}
