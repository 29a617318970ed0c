package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cookie-cutter-backend/internal/test/testutil"
)

// closeNotifyRecorder adds the http.CloseNotifier method gin's Stream
// requires of its writer; httptest.ResponseRecorder does not implement it.
type closeNotifyRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (c *closeNotifyRecorder) CloseNotify() <-chan bool { return c.closed }

// sseGet issues a stream request with an already-cancelled context so the
// handler opens the stream, observes the disconnect, and returns.
func sseGet(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", path, nil)
	require.NoError(t, err)
	w := &closeNotifyRecorder{httptest.NewRecorder(), make(chan bool)}
	r.ServeHTTP(w, req)
	return w.ResponseRecorder
}

func TestStreamOrderListEventsRoute(t *testing.T) {
	ts := newTestServer()
	w := sseGet(t, ts.router(testutil.Admin()), "/api/v1/events/orders")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
}

func TestStreamOrderEventsRoute(t *testing.T) {
	ts := newTestServer()
	baker := testutil.Baker("baker-1")
	r := ts.router(baker)
	o := createOrderWithItem(t, r)

	w := sseGet(t, r, "/api/v1/orders/"+o.ID.String()+"/events")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
}

func TestStreamOrderEvents_UnknownOrder(t *testing.T) {
	ts := newTestServer()
	w := sseGet(t, ts.router(testutil.Admin()), "/api/v1/orders/9f3c1d2e-0000-4000-8000-000000000000/events")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// Both stream endpoints and the order detail route must coexist in one
// route table; building it at all proves the paths do not collide.
func TestRegisterRoutesBuildsFullTable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ts := newTestServer()

	var r *gin.Engine
	assert.NotPanics(t, func() {
		r = ts.router(testutil.Admin())
	})

	routes := r.Routes()
	paths := make(map[string]bool, len(routes))
	for _, rt := range routes {
		paths[rt.Method+" "+rt.Path] = true
	}
	assert.True(t, paths["GET /api/v1/events/orders"])
	assert.True(t, paths["GET /api/v1/orders/:order_id/events"])
	assert.True(t, paths["GET /api/v1/orders/:order_id"])
	assert.True(t, paths["DELETE /api/v1/orders/:order_id/items/:item_id/images/:kind/*key"])
}
