package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/potensiadev/onesns.ai-sub001/internal/domain/social"
	"github.com/potensiadev/onesns.ai-sub001/internal/http/middleware"
	"github.com/potensiadev/onesns.ai-sub001/internal/service/refresh"
)

func newInternalRouter(sweeper Sweeper) *gin.Engine {
	h := NewInternalHandler(sweeper, zap.NewNop())
	r := gin.New()
	group := r.Group("/internal/v1", middleware.InternalAuth("internal-secret"))
	group.POST("/refresh-sweep", h.RefreshSweep)
	return r
}

func triggerSweep(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/internal/v1/refresh-sweep", nil)
	if token != "" {
		req.Header.Set("X-Internal-Token", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestInternalHandler_RefreshSweep(t *testing.T) {
	expiry := time.Now().UTC().Add(60 * 24 * time.Hour)
	sweeper := &stubSweeper{report: &refresh.Report{
		StartedAt: time.Now().UTC(),
		Examined:  2,
		Refreshed: 1,
		Failed:    1,
		Results: []refresh.Outcome{
			{AccountID: 1, Provider: social.ProviderInstagram, Status: refresh.OutcomeRefreshed, ExpiresAt: &expiry},
			{AccountID: 2, Provider: social.ProviderThreads, Status: refresh.OutcomeFailed, Error: "status=400"},
		},
	}}
	r := newInternalRouter(sweeper)

	w := triggerSweep(r, "internal-secret")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"success":true`)
	require.Contains(t, w.Body.String(), `"examined":2`)
	require.Contains(t, w.Body.String(), `"id":1`)
	require.Contains(t, w.Body.String(), `"status":"refreshed"`)
	require.Contains(t, w.Body.String(), `"status":"failed"`)
}

func TestInternalHandler_SweepSkipped(t *testing.T) {
	sweeper := &stubSweeper{report: &refresh.Report{Skipped: true, StartedAt: time.Now().UTC()}}
	r := newInternalRouter(sweeper)

	w := triggerSweep(r, "internal-secret")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"success":true`)
	require.Contains(t, w.Body.String(), `"skipped":true`)
}

func TestInternalHandler_SweepError(t *testing.T) {
	sweeper := &stubSweeper{err: fmt.Errorf("list expiring accounts: connection reset")}
	r := newInternalRouter(sweeper)

	w := triggerSweep(r, "internal-secret")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "server_error")
}

func TestInternalHandler_TokenGuard(t *testing.T) {
	r := newInternalRouter(&stubSweeper{report: &refresh.Report{}})

	missing := triggerSweep(r, "")
	require.Equal(t, http.StatusUnauthorized, missing.Code)

	wrong := triggerSweep(r, "guess")
	require.Equal(t, http.StatusForbidden, wrong.Code)
}

type stubSweeper struct {
	report *refresh.Report
	err    error
}

func (s *stubSweeper) Run(context.Context) (*refresh.Report, error) {
	return s.report, s.err
}
