package engine_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cookie-cutter-backend/internal/apperr"
	"cookie-cutter-backend/internal/engine"
	"cookie-cutter-backend/internal/models"
	"cookie-cutter-backend/internal/realtime"
	"cookie-cutter-backend/internal/test/testutil"
)

// capturePub records events in order so tests can assert on emission.
type capturePub struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *capturePub) Publish(ev realtime.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *capturePub) all() []realtime.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]realtime.Event(nil), p.events...)
}

func newEngine() (*engine.Engine, *testutil.MemStore, *capturePub) {
	store := testutil.NewMemStore()
	pub := &capturePub{}
	return engine.New(store, pub), store, pub
}

func createOrder(t *testing.T, e *engine.Engine, actor models.Actor) *models.Order {
	t.Helper()
	o, err := e.CreateOrder(context.Background(), actor, models.CreateOrderRequest{
		Items: []models.ItemPayload{{
			Type:        string(models.ItemTypeCircle),
			Measurement: &models.Measurement{Value: 8, Unit: "cm"},
		}},
	})
	require.NoError(t, err)
	return o
}

func TestCreateOrder_NumberFromClock(t *testing.T) {
	e, _, _ := newEngine()
	fixed := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	e.WithClock(func() time.Time { return fixed })

	o := createOrder(t, e, testutil.Baker("baker-1"))
	assert.Equal(t, fmt.Sprintf("CCO-%d", fixed.UnixNano()), o.OrderNumber)
	assert.Equal(t, fixed, o.CreatedAt)
}

func TestCreateOrder_PersistsAndEmits(t *testing.T) {
	e, store, pub := newEngine()
	baker := testutil.Baker("baker-1")

	o := createOrder(t, e, baker)
	assert.Equal(t, models.StageDraft, o.Stage)
	assert.Contains(t, o.OrderNumber, "CCO-")
	require.Len(t, o.Items, 1)

	stored, err := store.Load(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, stored.ID)

	events := pub.all()
	require.Len(t, events, 1)
	assert.Equal(t, realtime.EventOrderCreated, events[0].Type)
	assert.Equal(t, o.ID, events[0].OrderID)
	assert.Equal(t, baker.Email, events[0].UpdatedBy)
	require.NotNil(t, events[0].Order)
}

func TestCreateOrder_AdminRejected(t *testing.T) {
	e, _, pub := newEngine()

	_, err := e.CreateOrder(context.Background(), testutil.Admin(), models.CreateOrderRequest{})
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	assert.Empty(t, pub.all())
}

func TestGetOrder_HiddenFromOtherBakers(t *testing.T) {
	e, _, _ := newEngine()
	o := createOrder(t, e, testutil.Baker("baker-1"))

	_, err := e.GetOrder(context.Background(), testutil.Baker("baker-2"), o.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	got, err := e.GetOrder(context.Background(), testutil.Admin(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
}

func TestChangeStage_FailureEmitsNothing(t *testing.T) {
	e, store, pub := newEngine()
	baker := testutil.Baker("baker-1")
	o := createOrder(t, e, baker)

	// No inspiration images yet, so the submit precondition fails.
	_, err := e.ChangeStage(context.Background(), baker, o.ID, models.StageSubmitted, "", nil)
	require.Equal(t, apperr.KindPreconditionFailed, apperr.KindOf(err))

	stored, err := store.Load(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageDraft, stored.Stage)
	assert.Len(t, pub.all(), 1, "only the create event")

	// Failure is idempotent: the same call fails the same way.
	_, err = e.ChangeStage(context.Background(), baker, o.ID, models.StageSubmitted, "", nil)
	assert.True(t, apperr.IsKind(err, apperr.KindPreconditionFailed))
}

func TestChangeStage_SuccessPersistsAndEmits(t *testing.T) {
	e, store, pub := newEngine()
	baker := testutil.Baker("baker-1")
	o := createOrder(t, e, baker)

	_, err := e.AddFile(context.Background(), baker, o.ID, o.Items[0].ID,
		models.ImageKindInspiration, models.FileRef{Key: "k1", URL: "http://x"})
	require.NoError(t, err)

	updated, err := e.ChangeStage(context.Background(), baker, o.ID, models.StageSubmitted, "done", nil)
	require.NoError(t, err)
	assert.Equal(t, models.StageSubmitted, updated.Stage)

	stored, err := store.Load(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageSubmitted, stored.Stage)

	events := pub.all()
	require.Len(t, events, 3)
	assert.Equal(t, realtime.EventStageChanged, events[2].Type)
	assert.Equal(t, models.StageSubmitted, events[2].Order.Stage)
}

func TestMutationsSerializedPerOrder(t *testing.T) {
	e, store, _ := newEngine()
	baker := testutil.Baker("baker-1")
	o := createOrder(t, e, baker)
	itemID := o.Items[0].ID

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := e.AddFile(context.Background(), baker, o.ID, itemID,
				models.ImageKindInspiration, models.FileRef{Key: fmt.Sprintf("k-%d", i), URL: "http://x"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stored, err := store.Load(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items[0].InspirationImages, n, "every concurrent upload must land")
}

func TestDeleteOrder(t *testing.T) {
	e, store, pub := newEngine()
	baker := testutil.Baker("baker-1")
	o := createOrder(t, e, baker)

	require.NoError(t, e.DeleteOrder(context.Background(), baker, o.ID))
	_, err := store.Load(context.Background(), o.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	events := pub.all()
	require.Len(t, events, 2)
	assert.Equal(t, realtime.EventOrderDeleted, events[1].Type)
}

func TestDeleteOrder_BakerBlockedAfterSubmit(t *testing.T) {
	e, _, _ := newEngine()
	baker := testutil.Baker("baker-1")
	o := createOrder(t, e, baker)

	_, err := e.AddFile(context.Background(), baker, o.ID, o.Items[0].ID,
		models.ImageKindInspiration, models.FileRef{Key: "k1", URL: "http://x"})
	require.NoError(t, err)
	_, err = e.ChangeStage(context.Background(), baker, o.ID, models.StageSubmitted, "", nil)
	require.NoError(t, err)

	err = e.DeleteOrder(context.Background(), baker, o.ID)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	require.NoError(t, e.DeleteOrder(context.Background(), testutil.Admin(), o.ID))
}

func TestListOrders_ScopedToBaker(t *testing.T) {
	e, _, _ := newEngine()
	createOrder(t, e, testutil.Baker("baker-1"))
	createOrder(t, e, testutil.Baker("baker-2"))

	mine, err := e.ListOrders(context.Background(), testutil.Baker("baker-1"))
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := e.ListOrders(context.Background(), testutil.Admin())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSetCompletion_ThroughEngine(t *testing.T) {
	e, _, pub := newEngine()
	baker := testutil.Baker("baker-1")
	o := createOrder(t, e, baker)

	// Walk to Completed.
	_, err := e.AddFile(context.Background(), baker, o.ID, o.Items[0].ID,
		models.ImageKindInspiration, models.FileRef{Key: "k1", URL: "http://x"})
	require.NoError(t, err)
	_, err = e.ChangeStage(context.Background(), baker, o.ID, models.StageSubmitted, "", nil)
	require.NoError(t, err)
	price := decimal.NewFromInt(25)
	_, err = e.ChangeStage(context.Background(), testutil.Admin(), o.ID, models.StageRequiresApproval, "", &price)
	require.NoError(t, err)
	for _, s := range []models.Stage{models.StageReadyToPrint, models.StagePrinting, models.StageCompleted} {
		_, err = e.ChangeStage(context.Background(), testutil.Admin(), o.ID, s, "", nil)
		require.NoError(t, err)
	}

	_, confirm, err := e.SetCompletion(context.Background(), baker, o.ID, models.SetCompletionRequest{
		DeliveryMethod: string(models.DeliveryMethodPickup),
		PaymentMethod:  string(models.PaymentMethodCash),
		PickupSchedule: &models.PickupSchedule{Date: "2026-09-10", Time: "10:00"},
	})
	require.NoError(t, err)
	assert.True(t, confirm)

	_, err = e.ConfirmCompletion(context.Background(), baker, o.ID)
	require.NoError(t, err)

	events := pub.all()
	last := events[len(events)-1]
	assert.Equal(t, realtime.EventCompletionConfirmed, last.Type)
	assert.True(t, last.Order.DetailsConfirmed)
}
