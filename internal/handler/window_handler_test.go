package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/univ-reg-api/internal/models"
)

type eligibilityServiceMock struct {
	open   bool
	window *models.EligibilityWindow
	err    error
}

func (m *eligibilityServiceMock) IsRegistrationOpen(ctx context.Context, termID string) (bool, *models.EligibilityWindow, error) {
	return m.open, m.window, m.err
}

func TestWindowHandlerOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewWindowHandler(&eligibilityServiceMock{
		open: true,
		window: &models.EligibilityWindow{
			ID:       "win-1",
			TermID:   "term-1",
			Kind:     models.WindowKindRegistration,
			Enabled:  true,
			StartsAt: time.Now().Add(-time.Hour),
			EndsAt:   time.Now().Add(time.Hour),
		},
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/terms/term-1/registration-window", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "term-1"}}

	handler.RegistrationWindow(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"open":true`)
	assert.Contains(t, w.Body.String(), "win-1")
}

func TestWindowHandlerClosedNoWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewWindowHandler(&eligibilityServiceMock{open: false})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/terms/term-1/registration-window", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "term-1"}}

	handler.RegistrationWindow(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"open":false`)
}
