package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cookie-cutter-backend/internal/engine"
	"cookie-cutter-backend/internal/handlers"
	"cookie-cutter-backend/internal/middleware"
	"cookie-cutter-backend/internal/models"
	"cookie-cutter-backend/internal/realtime"
	"cookie-cutter-backend/internal/test/testutil"
)

// actorAs injects the actor the way AuthMiddleware would, so handler
// tests exercise routing and response shaping without minting tokens.
func actorAs(actor models.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ActorKey, actor)
		c.Next()
	}
}

// fakeBlobStore satisfies handlers.BlobStore without a storage backend.
type fakeBlobStore struct {
	deleted []string
}

func (f *fakeBlobStore) Upload(orderID, itemID uuid.UUID, kind models.ImageKind, filename string, data []byte) (models.FileRef, error) {
	key := fmt.Sprintf("orders/%s/items/%s/%s/%s", orderID, itemID, kind, filename)
	return models.FileRef{
		Key:          key,
		URL:          "http://blob.local/" + key,
		UploadedAt:   time.Now(),
		OriginalName: filename,
	}, nil
}

func (f *fakeBlobStore) Delete(key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeBlobStore) DeleteOrderFiles(orderID uuid.UUID) error {
	return nil
}

type testServer struct {
	engine *engine.Engine
	blobs  *fakeBlobStore

	orders     *handlers.OrdersHandler
	items      *handlers.ItemsHandler
	images     *handlers.ImagesHandler
	completion *handlers.CompletionHandler
	events     *handlers.EventsHandler
}

func newTestServer() *testServer {
	gin.SetMode(gin.TestMode)
	store := testutil.NewMemStore()
	hub := realtime.NewHub()
	eng := engine.New(store, hub)
	blobs := &fakeBlobStore{}

	return &testServer{
		engine:     eng,
		blobs:      blobs,
		orders:     handlers.NewOrdersHandler(eng, blobs),
		items:      handlers.NewItemsHandler(eng),
		images:     handlers.NewImagesHandler(eng, blobs),
		completion: handlers.NewCompletionHandler(eng),
		events:     handlers.NewEventsHandler(eng, hub),
	}
}

// router builds the production route table with the given actor injected.
func (ts *testServer) router(actor models.Actor) *gin.Engine {
	r := gin.New()
	handlers.RegisterRoutes(r, actorAs(actor), ts.orders, ts.items, ts.images, ts.completion, ts.events)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeOrder(t *testing.T, w *httptest.ResponseRecorder) models.Order {
	t.Helper()
	var o models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &o))
	return o
}

func TestHealth(t *testing.T) {
	ts := newTestServer()
	w := do(t, ts.router(testutil.Admin()), "GET", "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var hr models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hr))
	assert.Equal(t, "ok", hr.Status)
}

func TestCreateOrder(t *testing.T) {
	ts := newTestServer()
	baker := testutil.Baker("baker-1")

	w := do(t, ts.router(baker), "POST", "/api/v1/orders", models.CreateOrderRequest{
		Items: []models.ItemPayload{{
			Type:        string(models.ItemTypeCustomShape),
			Measurement: &models.Measurement{Value: 6, Unit: "cm"},
		}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	o := decodeOrder(t, w)
	assert.Equal(t, models.StageDraft, o.Stage)
	assert.Len(t, o.Items, 1)
}

func TestCreateOrder_AdminForbidden(t *testing.T) {
	ts := newTestServer()
	w := do(t, ts.router(testutil.Admin()), "POST", "/api/v1/orders", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetOrder_HiddenFromOtherBaker(t *testing.T) {
	ts := newTestServer()
	baker := testutil.Baker("baker-1")

	w := do(t, ts.router(baker), "POST", "/api/v1/orders", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	o := decodeOrder(t, w)

	w = do(t, ts.router(testutil.Baker("baker-2")), "GET", "/api/v1/orders/"+o.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, ts.router(baker), "GET", "/api/v1/orders/"+o.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetOrder_BadUUID(t *testing.T) {
	ts := newTestServer()
	w := do(t, ts.router(testutil.Admin()), "GET", "/api/v1/orders/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListOrders_Scoped(t *testing.T) {
	ts := newTestServer()
	require.Equal(t, http.StatusCreated, do(t, ts.router(testutil.Baker("baker-1")), "POST", "/api/v1/orders", nil).Code)
	require.Equal(t, http.StatusCreated, do(t, ts.router(testutil.Baker("baker-2")), "POST", "/api/v1/orders", nil).Code)

	w := do(t, ts.router(testutil.Baker("baker-1")), "GET", "/api/v1/orders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list models.OrderListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Orders, 1)

	w = do(t, ts.router(testutil.Admin()), "GET", "/api/v1/orders", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Orders, 2)
}

func TestChangeStage_PreconditionDetailSurfaces(t *testing.T) {
	ts := newTestServer()
	baker := testutil.Baker("baker-1")
	r := ts.router(baker)

	w := do(t, r, "POST", "/api/v1/orders", models.CreateOrderRequest{
		Items: []models.ItemPayload{{
			Type:        string(models.ItemTypeCircle),
			Measurement: &models.Measurement{Value: 7, Unit: "cm"},
		}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	o := decodeOrder(t, w)

	w = do(t, r, "PUT", "/api/v1/orders/"+o.ID.String()+"/stage", models.StageChangeRequest{
		TargetStage: string(models.StageSubmitted),
	})
	require.Equal(t, http.StatusPreconditionFailed, w.Code, w.Body.String())

	var er models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &er))
	assert.EqualValues(t, 1, er.Details["items_missing_images"])
}

func TestChangeStage_Forbidden(t *testing.T) {
	ts := newTestServer()
	baker := testutil.Baker("baker-1")
	r := ts.router(baker)

	w := do(t, r, "POST", "/api/v1/orders", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	o := decodeOrder(t, w)

	w = do(t, r, "PUT", "/api/v1/orders/"+o.ID.String()+"/stage", models.StageChangeRequest{
		TargetStage: string(models.StageCompleted),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAddItem(t *testing.T) {
	ts := newTestServer()
	baker := testutil.Baker("baker-1")
	r := ts.router(baker)

	w := do(t, r, "POST", "/api/v1/orders", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	o := decodeOrder(t, w)

	w = do(t, r, "POST", "/api/v1/orders/"+o.ID.String()+"/items", models.ItemPayload{
		Type:        string(models.ItemTypeSquare),
		Measurement: &models.Measurement{Value: 5, Unit: "inch"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decodeOrder(t, w).Items, 1)

	w = do(t, r, "POST", "/api/v1/orders/"+o.ID.String()+"/items", models.ItemPayload{Type: "blob"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteOrder_BakerAfterSubmit(t *testing.T) {
	ts := newTestServer()
	baker := testutil.Baker("baker-1")
	r := ts.router(baker)

	w := do(t, r, "POST", "/api/v1/orders", models.CreateOrderRequest{
		Items: []models.ItemPayload{{
			Type:        string(models.ItemTypeCircle),
			Measurement: &models.Measurement{Value: 7, Unit: "cm"},
		}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	o := decodeOrder(t, w)

	_, err := ts.engine.AddFile(context.Background(), baker, o.ID, o.Items[0].ID,
		models.ImageKindInspiration, models.FileRef{Key: "k", URL: "http://x"})
	require.NoError(t, err)

	w = do(t, r, "PUT", "/api/v1/orders/"+o.ID.String()+"/stage", models.StageChangeRequest{
		TargetStage: string(models.StageSubmitted),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, "DELETE", "/api/v1/orders/"+o.ID.String(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, ts.router(testutil.Admin()), "DELETE", "/api/v1/orders/"+o.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCompletionEndpoints(t *testing.T) {
	ts := newTestServer()
	baker := testutil.Baker("baker-1")
	r := ts.router(baker)

	w := do(t, r, "POST", "/api/v1/orders", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	o := decodeOrder(t, w)

	// Not at Completed yet.
	w = do(t, r, "PUT", "/api/v1/orders/"+o.ID.String()+"/completion", models.SetCompletionRequest{
		DeliveryMethod: string(models.DeliveryMethodPickup),
		PaymentMethod:  string(models.PaymentMethodCash),
		PickupSchedule: &models.PickupSchedule{Date: "2026-09-10", Time: "10:00"},
	})
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
}
