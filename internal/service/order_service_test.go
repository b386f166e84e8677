package service

import (
	"errors"
	"testing"
	"time"

	"petale/internal/db"
	"petale/internal/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memOrderStore struct {
	orders map[int]*db.Order
	nextID int

	failCreate     bool
	failDeleteOnce bool

	createCalls int
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{orders: make(map[int]*db.Order), nextID: 1}
}

func (m *memOrderStore) CreateOrder(o *db.Order) error {
	m.createCalls++
	if m.failCreate {
		return errors.New("insert failed")
	}
	o.ID = m.nextID
	m.nextID++
	copied := *o
	m.orders[o.ID] = &copied
	return nil
}

func (m *memOrderStore) GetOrderByID(id int) (*db.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, errors.New("order not found")
	}
	copied := *o
	return &copied, nil
}

func (m *memOrderStore) ListOrders(stage, deliveryDate string) ([]db.Order, error) {
	var out []db.Order
	for _, o := range m.orders {
		if stage != "" && o.Stage != stage {
			continue
		}
		if deliveryDate != "" && o.DeliveryDate != deliveryDate {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (m *memOrderStore) UpdateOrder(o *db.Order) error {
	stored, ok := m.orders[o.ID]
	if !ok {
		return errors.New("order not found")
	}
	released := stored.CapacityReleased
	copied := *o
	// The release flag is only ever flipped through MarkCapacityReleased.
	copied.CapacityReleased = released
	m.orders[o.ID] = &copied
	return nil
}

func (m *memOrderStore) MarkCapacityReleased(id int) (bool, error) {
	o, ok := m.orders[id]
	if !ok {
		return false, errors.New("order not found")
	}
	if o.CapacityReleased {
		return false, nil
	}
	o.CapacityReleased = true
	return true, nil
}

func (m *memOrderStore) DeleteOrder(id int) error {
	if m.failDeleteOnce {
		m.failDeleteOnce = false
		return errors.New("delete failed")
	}
	delete(m.orders, id)
	return nil
}

type memCatalog struct {
	products map[int]*db.Product
}

func (m *memCatalog) GetProductByID(id int) (*db.Product, error) {
	return m.products[id], nil
}

type recordingNotifier struct {
	confirmations int
	rejections    int
	stageUpdates  []string
	alerts        int
}

func (n *recordingNotifier) OrderConfirmation(o *db.Order) { n.confirmations++ }

func (n *recordingNotifier) OrderStageUpdate(o *db.Order, stage string) {
	n.stageUpdates = append(n.stageUpdates, stage)
}

func (n *recordingNotifier) OrderRejected(o *db.Order, reason string) { n.rejections++ }

func (n *recordingNotifier) NewOrderAlert(o *db.Order) { n.alerts++ }

func newOrderFixture(catalog *memCatalog) (*OrderService, *memOrderStore, *memSlotStore, *recordingNotifier) {
	slots := newMemSlotStore()
	preorder := NewPreorderService(testRules(), slots)
	preorder.now = func() time.Time {
		return time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	}
	orders := newMemOrderStore()
	notifier := &recordingNotifier{}
	if catalog == nil {
		catalog = &memCatalog{}
	}
	svc := NewOrderService(orders, catalog, preorder, notifier)
	return svc, orders, slots, notifier
}

func checkoutFixture(items ...entities.CheckoutItem) entities.CheckoutOrder {
	return entities.CheckoutOrder{
		Name:        "Mara Lindqvist",
		Email:       "mara@example.com",
		Phone:       "+4670000000",
		Date:        "2026-09-12",
		Window:      "10:00-12:00",
		Items:       items,
		DeliveryFee: 5,
	}
}

func TestCapacityUnitsPlainProduct(t *testing.T) {
	catalog := &memCatalog{products: map[int]*db.Product{
		7: {ID: 7, Name: "Cardamom Knots", CapacityUnits: 2},
	}}
	svc, _, _, _ := newOrderFixture(catalog)

	units, err := svc.CapacityUnits([]entities.CheckoutItem{
		{ProductID: 7, Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 6.0, units)
}

func TestCapacityUnitsBundleOverridesOwnUnits(t *testing.T) {
	catalog := &memCatalog{products: map[int]*db.Product{
		9: {
			ID:            9,
			Name:          "Fika Box",
			CapacityUnits: 1, // ignored for bundles
			IsBundle:      true,
			BundleItems: []db.BundleItem{
				{Name: "Cinnamon Bun", Quantity: 4},
				{Name: "Vanilla Heart", Quantity: 2},
			},
		},
	}}
	svc, _, _, _ := newOrderFixture(catalog)

	units, err := svc.CapacityUnits([]entities.CheckoutItem{
		{ProductID: 9, Quantity: 2, CapacityUnits: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 12.0, units, "bundle counts its sub-item total per box")
}

func TestCapacityUnitsFallbacks(t *testing.T) {
	svc, _, _, _ := newOrderFixture(&memCatalog{})

	// Unresolvable product reference: the submitted units apply.
	units, err := svc.CapacityUnits([]entities.CheckoutItem{
		{ProductID: 404, Quantity: 2, CapacityUnits: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 6.0, units)

	// No product reference and no units: everything defaults to 1.
	units, err = svc.CapacityUnits([]entities.CheckoutItem{
		{Name: "Custom cake"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, units)
}

func TestCreateOrderReservesCapacity(t *testing.T) {
	svc, orders, slots, notifier := newOrderFixture(nil)

	order, err := svc.CreateOrder(checkoutFixture(
		entities.CheckoutItem{Name: "Cinnamon Bun", Price: 3.5, Quantity: 4},
		entities.CheckoutItem{Name: "Rye Loaf", Price: 6, Quantity: 1, CapacityUnits: 2},
	))
	require.NoError(t, err)
	assert.Equal(t, db.StagePending, order.Stage)
	assert.Equal(t, "Unpaid", order.PaymentMethod)
	assert.Equal(t, "Website", order.CreatedBy)
	assert.Equal(t, 6.0, order.ReservedUnits)
	assert.False(t, order.CapacityReleased)
	assert.Equal(t, 20.0, order.Subtotal)
	assert.Equal(t, 25.0, order.Total) // subtotal + flat delivery fee

	slot, err := slots.GetSlot("2026-09-12", "10:00-12:00")
	require.NoError(t, err)
	assert.Equal(t, 6.0, slot.Reserved)

	assert.Len(t, orders.orders, 1)
	assert.Equal(t, 1, notifier.confirmations)
	assert.Equal(t, 1, notifier.alerts)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	svc, orders, _, _ := newOrderFixture(nil)

	_, err := svc.CreateOrder(checkoutFixture())
	assert.ErrorIs(t, err, ErrEmptyOrder)
	assert.Zero(t, orders.createCalls)
}

func TestCreateOrderSoldOutAbortsBeforePersist(t *testing.T) {
	svc, orders, _, notifier := newOrderFixture(nil)

	_, err := svc.Preorder.SetCapacity("2026-09-12", "10:00-12:00", 3)
	require.NoError(t, err)

	_, err = svc.CreateOrder(checkoutFixture(
		entities.CheckoutItem{Name: "Cinnamon Bun", Price: 3.5, Quantity: 4},
	))
	assert.ErrorIs(t, err, ErrSoldOut)
	assert.Zero(t, orders.createCalls, "no order row is written when the slot is full")
	assert.Zero(t, notifier.confirmations)
}

func TestCreateOrderPersistFailureReleasesCapacity(t *testing.T) {
	svc, orders, slots, _ := newOrderFixture(nil)
	orders.failCreate = true

	_, err := svc.CreateOrder(checkoutFixture(
		entities.CheckoutItem{Name: "Cinnamon Bun", Price: 3.5, Quantity: 4},
	))
	require.Error(t, err)

	slot, err := slots.GetSlot("2026-09-12", "10:00-12:00")
	require.NoError(t, err)
	assert.Equal(t, 0.0, slot.Reserved, "held capacity is returned when the insert fails")
}

func TestRejectOrderReleasesCapacity(t *testing.T) {
	svc, orders, slots, notifier := newOrderFixture(nil)

	order, err := svc.CreateOrder(checkoutFixture(
		entities.CheckoutItem{Name: "Cinnamon Bun", Price: 3.5, Quantity: 4},
	))
	require.NoError(t, err)

	require.NoError(t, svc.RejectOrder(order.ID, "Out of flour"))

	slot, err := slots.GetSlot("2026-09-12", "10:00-12:00")
	require.NoError(t, err)
	assert.Equal(t, 0.0, slot.Reserved)
	assert.Empty(t, orders.orders, "rejected orders are removed")
	assert.Equal(t, 1, notifier.rejections)
}

func TestRejectOrderReleasesAtMostOnce(t *testing.T) {
	svc, orders, slots, _ := newOrderFixture(nil)

	order, err := svc.CreateOrder(checkoutFixture(
		entities.CheckoutItem{Name: "Cinnamon Bun", Price: 3.5, Quantity: 4},
	))
	require.NoError(t, err)

	// The first rejection fails after the release, before the row is deleted. The retry
	// must not decrement the ledger again.
	orders.failDeleteOnce = true
	require.Error(t, svc.RejectOrder(order.ID, "Out of flour"))

	slot, err := slots.GetSlot("2026-09-12", "10:00-12:00")
	require.NoError(t, err)
	assert.Equal(t, 0.0, slot.Reserved)

	require.NoError(t, svc.RejectOrder(order.ID, "Out of flour"))

	slot, err = slots.GetSlot("2026-09-12", "10:00-12:00")
	require.NoError(t, err)
	assert.Equal(t, 0.0, slot.Reserved, "retried rejection must not release twice")
	assert.Empty(t, orders.orders)
}

func TestUpdateOrderStageNotifies(t *testing.T) {
	svc, _, _, notifier := newOrderFixture(nil)

	order, err := svc.CreateOrder(checkoutFixture(
		entities.CheckoutItem{Name: "Cinnamon Bun", Price: 3.5, Quantity: 4},
	))
	require.NoError(t, err)

	updated, err := svc.UpdateOrder(order.ID, entities.UpdateOrderRequest{Stage: db.StageInProgress})
	require.NoError(t, err)
	assert.Equal(t, db.StageInProgress, updated.Stage)
	assert.Equal(t, []string{db.StageInProgress}, notifier.stageUpdates)

	// Non-stage edits stay quiet.
	_, err = svc.UpdateOrder(order.ID, entities.UpdateOrderRequest{Notes: "Ring the bell"})
	require.NoError(t, err)
	assert.Len(t, notifier.stageUpdates, 1)
}

func TestUpdateOrderRejectsBadDate(t *testing.T) {
	svc, _, _, _ := newOrderFixture(nil)

	order, err := svc.CreateOrder(checkoutFixture(
		entities.CheckoutItem{Name: "Cinnamon Bun", Price: 3.5, Quantity: 4},
	))
	require.NoError(t, err)

	_, err = svc.UpdateOrder(order.ID, entities.UpdateOrderRequest{DeliveryDate: "next tuesday"})
	assert.ErrorIs(t, err, ErrInvalidReservation)
}
