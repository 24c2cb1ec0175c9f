package reconcile_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go-ems/internal/reconcile"
	reconcileMock "go-ems/internal/reconcile/mock"
	"go-ems/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := reconcileMock.NewMockService(gomock.NewController(t))
	h := reconcile.NewHandler(svc)

	r := gin.New()
	r.POST("/admin/reconcile", h.Sweep)
	r.POST("/admin/reconcile/:email", h.SyncEmployee)

	t.Run("sweep", func(t *testing.T) {
		svc.EXPECT().Sweep(gomock.Any()).Return(reconcile.SweepResult{Checked: 3, Repaired: 1}, nil)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/reconcile", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"repaired":1`)
	})

	t.Run("single employee", func(t *testing.T) {
		svc.EXPECT().SyncEmployee(gomock.Any(), alice).
			Return(reconcile.SyncResult{Email: alice, Outcome: reconcile.OutcomeDeleted}, nil)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/reconcile/"+alice, nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"outcome":"deleted"`)
	})

	t.Run("store unavailable", func(t *testing.T) {
		svc.EXPECT().Sweep(gomock.Any()).Return(reconcile.SweepResult{}, apperror.StoreUnavailable(assert.AnError))

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/reconcile", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
