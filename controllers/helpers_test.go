package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nearnect/nearnect-api/config"
	"github.com/nearnect/nearnect-api/models"
	"github.com/nearnect/nearnect-api/services"
	"github.com/nearnect/nearnect-api/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// apiResponse is the envelope shared by every endpoint except worker search
type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// setupTestDB installs a fresh in-memory database as the global DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := testutil.NewTestDB(t)
	config.SetDB(db)
	return db
}

// setupMailer installs an email service backed by a mock mailer
func setupMailer(t *testing.T) (*services.EmailService, *services.MockMailer) {
	t.Helper()
	mailer := services.NewMockMailer()
	svc := services.NewEmailService(mailer, "http://localhost:3000")
	services.SetEmailService(svc)
	t.Cleanup(func() { services.SetEmailService(nil) })
	return svc, mailer
}

// authedRouter returns a router whose requests are authenticated as user
func authedRouter(user *models.User) *gin.Engine {
	router := setupTestRouter()
	router.Use(testutil.MockAuth(user))
	return router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// decodeData unmarshals the envelope's data into dst and returns the envelope
func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) apiResponse {
	t.Helper()
	resp := decodeResponse(t, w)
	require.True(t, resp.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(resp.Data, dst))
	return resp
}
