package rbac

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-ems/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type mockService struct{}

func (m *mockService) Enforce(req EnforceRequest) (bool, error) {
	return req.Role == "admin" && req.Resource == "leave" && req.Action == "review", nil
}

func (m *mockService) Authorize(session.Session, string, string) error { return nil }

func (m *mockService) Policies() ([]PolicyResponse, error) {
	return []PolicyResponse{{Role: "admin", Resource: "leave", Action: "review"}}, nil
}

func TestHandler_Enforce(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewHandler(&mockService{})
	router := gin.New()
	router.POST("/rbac/enforce", handler.Enforce)

	t.Run("allowed", func(t *testing.T) {
		body, _ := json.Marshal(EnforceRequest{Role: " admin ", Resource: "leave", Action: "review"})
		req := httptest.NewRequest(http.MethodPost, "/rbac/enforce", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Ok   bool            `json:"ok"`
			Data EnforceResponse `json:"data"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Ok)
		assert.True(t, resp.Data.Allowed)
	})

	t.Run("missing fields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/rbac/enforce", bytes.NewBufferString(`{"role":"admin"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_Policies(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/rbac/policies", NewHandler(&mockService{}).Policies)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rbac/policies", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"resource":"leave"`)
}
