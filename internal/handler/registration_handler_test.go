package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/univ-reg-api/internal/models"
	"github.com/noah-isme/univ-reg-api/internal/service"
	appErrors "github.com/noah-isme/univ-reg-api/pkg/errors"
)

type registrationServiceMock struct {
	registerResp   *service.RegistrationConfirmation
	registerErr    error
	cancelErr      error
	transferErr    error
	listResp       []models.RegistrationDetail
	listErr        error
	historyResp    []models.RegistrationHistoryEntry
	historyErr     error
	lastRegister   service.RegisterRequest
	registerCalled bool
	cancelCalled   bool
	transferCalled bool
}

func (m *registrationServiceMock) Register(ctx context.Context, req service.RegisterRequest) (*service.RegistrationConfirmation, error) {
	m.registerCalled = true
	m.lastRegister = req
	return m.registerResp, m.registerErr
}

func (m *registrationServiceMock) Cancel(ctx context.Context, req service.CancelRequest) error {
	m.cancelCalled = true
	return m.cancelErr
}

func (m *registrationServiceMock) Transfer(ctx context.Context, req service.TransferRequest) error {
	m.transferCalled = true
	return m.transferErr
}

func (m *registrationServiceMock) ListActive(ctx context.Context, studentID, termID string) ([]models.RegistrationDetail, error) {
	return m.listResp, m.listErr
}

func (m *registrationServiceMock) History(ctx context.Context, studentID, termID string) ([]models.RegistrationHistoryEntry, error) {
	return m.historyResp, m.historyErr
}

func postJSON(c *gin.Context, path string, payload interface{}) {
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
}

func TestRegistrationHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &registrationServiceMock{
		registerResp: &service.RegistrationConfirmation{
			Registration: models.Registration{ID: "reg-1", Status: models.RegistrationStatusActive, RegisteredAt: time.Now()},
			SectionCode:  "MATH101.01",
		},
	}
	handler := NewRegistrationHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	postJSON(c, "/registrations", service.RegisterRequest{StudentID: "stu-1", SectionID: "sec-1", TermID: "term-1"})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockSvc.registerCalled)
	assert.Equal(t, "sec-1", mockSvc.lastRegister.SectionID)
}

func TestRegistrationHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRegistrationHandler(&registrationServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/registrations", bytes.NewBufferString(`{"studentId":"stu-1"`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegistrationHandlerCreateStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		err    *appErrors.Error
		status int
	}{
		{"busy", appErrors.ErrSectionBusy, http.StatusServiceUnavailable},
		{"closed", appErrors.ErrRegistrationClosed, http.StatusUnprocessableEntity},
		{"full", appErrors.ErrClassFull, http.StatusConflict},
		{"duplicate", appErrors.ErrAlreadyRegistered, http.StatusConflict},
		{"conflict", appErrors.ErrScheduleConflict, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewRegistrationHandler(&registrationServiceMock{registerErr: tc.err})

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			postJSON(c, "/registrations", service.RegisterRequest{StudentID: "stu-1", SectionID: "sec-1", TermID: "term-1"})

			handler.Create(c)
			require.Equal(t, tc.status, w.Code)

			var envelope struct {
				Error *appErrors.Error `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
			require.NotNil(t, envelope.Error)
			assert.Equal(t, tc.err.Code, envelope.Error.Code)
		})
	}
}

func TestRegistrationHandlerCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &registrationServiceMock{}
	handler := NewRegistrationHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	postJSON(c, "/registrations/cancel", service.CancelRequest{StudentID: "stu-1", SectionID: "sec-1"})

	handler.Cancel(c)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, mockSvc.cancelCalled)
}

func TestRegistrationHandlerCancelNotRegistered(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRegistrationHandler(&registrationServiceMock{cancelErr: appErrors.ErrNotRegistered})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	postJSON(c, "/registrations/cancel", service.CancelRequest{StudentID: "stu-1", SectionID: "sec-1"})

	handler.Cancel(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegistrationHandlerTransfer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &registrationServiceMock{}
	handler := NewRegistrationHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	postJSON(c, "/registrations/transfer", service.TransferRequest{StudentID: "stu-1", OldSectionID: "sec-1", NewSectionID: "sec-2"})

	handler.Transfer(c)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, mockSvc.transferCalled)
}

func TestRegistrationHandlerListByStudent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &registrationServiceMock{
		listResp: []models.RegistrationDetail{{Registration: models.Registration{ID: "reg-1"}, SectionCode: "MATH101.01"}},
	}
	handler := NewRegistrationHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/students/stu-1/registrations?termId=term-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}

	handler.ListByStudent(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "MATH101.01")
}

func TestRegistrationHandlerListMissingTerm(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRegistrationHandler(&registrationServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/students/stu-1/registrations", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}

	handler.ListByStudent(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegistrationHandlerHistoryByStudent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &registrationServiceMock{
		historyResp: []models.RegistrationHistoryEntry{
			{ID: "ent-1", Action: models.HistoryActionRegister, SectionID: "sec-1"},
			{ID: "ent-2", Action: models.HistoryActionCancel, SectionID: "sec-1"},
		},
	}
	handler := NewRegistrationHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/students/stu-1/history?termId=term-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}

	handler.HistoryByStudent(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(models.HistoryActionCancel))
}
