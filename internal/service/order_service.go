package service

import (
	"errors"
	"fmt"
	"log"
	"math"

	"petale/internal/db"
	"petale/internal/entities"
)

// ErrEmptyOrder means the checkout request carried no line items.
var ErrEmptyOrder = errors.New("order has no items")

// ProductCatalog resolves catalog products for the capacity-unit computation. A nil product
// (without error) means the reference could not be resolved and the caller-supplied
// capacityUnits fallback applies.
type ProductCatalog interface {
	GetProductByID(id int) (*db.Product, error)
}

// OrderStore is the order persistence contract.
type OrderStore interface {
	CreateOrder(o *db.Order) error
	GetOrderByID(id int) (*db.Order, error)
	ListOrders(stage, deliveryDate string) ([]db.Order, error)
	UpdateOrder(o *db.Order) error
	// MarkCapacityReleased flips the release flag and reports whether this call did it.
	MarkCapacityReleased(id int) (bool, error)
	DeleteOrder(id int) error
}

// OrderNotifier sends the customer-facing order emails. Implementations must not block the
// order workflow; failures are logged, never propagated.
type OrderNotifier interface {
	OrderConfirmation(o *db.Order)
	OrderStageUpdate(o *db.Order, stage string)
	OrderRejected(o *db.Order, reason string)
	NewOrderAlert(o *db.Order)
}

type OrderService struct {
	Store    OrderStore
	Catalog  ProductCatalog
	Preorder *PreorderService
	Notifier OrderNotifier
}

func NewOrderService(store OrderStore, catalog ProductCatalog, preorder *PreorderService, notifier OrderNotifier) *OrderService {
	return &OrderService{Store: store, Catalog: catalog, Preorder: preorder, Notifier: notifier}
}

// CapacityUnits computes the total capacity units a cart consumes. A bundle product counts
// the total quantity of its sub-items per box (the sub-item count replaces the bundle's own
// capacityUnits field); a plain product counts its configured capacityUnits; an unresolvable
// product reference falls back to the units submitted with the item. Defaults are 1.
func (s *OrderService) CapacityUnits(items []entities.CheckoutItem) (float64, error) {
	var total float64
	for _, item := range items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}

		units := item.CapacityUnits
		if units <= 0 {
			units = 1
		}

		if item.ProductID != 0 && s.Catalog != nil {
			product, err := s.Catalog.GetProductByID(item.ProductID)
			if err != nil {
				return 0, fmt.Errorf("error resolving product %d: %w", item.ProductID, err)
			}
			if product != nil {
				if product.IsBundle && len(product.BundleItems) > 0 {
					var bundleCount float64
					for _, b := range product.BundleItems {
						q := b.Quantity
						if q <= 0 {
							q = 1
						}
						bundleCount += q
					}
					units = bundleCount
				} else if product.CapacityUnits > 0 {
					units = product.CapacityUnits
				} else {
					units = 1
				}
			}
		}

		total += qty * units
	}
	return total, nil
}

// CreateOrder reserves delivery capacity and then persists the order. The reservation
// happens first: a sold-out or invalid slot aborts the whole checkout and no order row is
// ever written without its capacity being held.
func (s *OrderService) CreateOrder(req entities.CheckoutOrder) (*db.Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	units, err := s.CapacityUnits(req.Items)
	if err != nil {
		return nil, err
	}

	if _, err := s.Preorder.Reserve(req.Date, req.Window, units); err != nil {
		return nil, err
	}

	order := &db.Order{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,

		AddressStreet:       req.Address.Street,
		AddressCity:         req.Address.City,
		AddressZip:          req.Address.Zip,
		AddressInstructions: req.Address.Instructions,

		Discount: req.Discount,
		Tip:      req.Tip,
		Tax:      req.Tax,

		PaymentMethod: "Unpaid",

		DeliveryDate:   req.Date,
		DeliveryTime:   req.Window,
		DeliveryMethod: "Delivery",
		DeliveryStatus: "Not Assigned",

		Stage: db.StagePending,
		Notes: req.Notes,

		ReservedUnits:    units,
		CapacityReleased: false,
		CreatedBy:        "Website",
	}

	var subtotal float64
	for _, item := range req.Items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		lineUnits := item.CapacityUnits
		if lineUnits <= 0 {
			lineUnits = 1
		}
		line := db.OrderItem{
			ProductID:     item.ProductID,
			Name:          item.Name,
			Price:         item.Price,
			Quantity:      qty,
			Subtotal:      round2(item.Price * qty),
			CapacityUnits: lineUnits,
			Image:         item.Image,
		}
		subtotal += line.Subtotal
		order.Items = append(order.Items, line)
	}
	order.Subtotal = round2(subtotal)
	order.Total = round2(order.Subtotal + req.DeliveryFee + order.Tip + order.Tax - order.Discount)

	if err := s.Store.CreateOrder(order); err != nil {
		// The reservation is already held; give it back so the slot does not leak.
		s.Preorder.Release(req.Date, req.Window, units)
		return nil, fmt.Errorf("error persisting order: %w", err)
	}

	if s.Notifier != nil {
		s.Notifier.OrderConfirmation(order)
		s.Notifier.NewOrderAlert(order)
	}
	log.Printf("Order %d created for %s: %v capacity units on %s (%s)", order.ID, order.Name, units, order.DeliveryDate, order.DeliveryTime)
	return order, nil
}

func (s *OrderService) GetOrder(id int) (*db.Order, error) {
	return s.Store.GetOrderByID(id)
}

func (s *OrderService) ListOrders(stage, deliveryDate string) ([]db.Order, error) {
	return s.Store.ListOrders(stage, entities.NormalizeDate(deliveryDate))
}

// UpdateOrder applies the admin-editable fields and notifies the customer on a stage change.
func (s *OrderService) UpdateOrder(id int, req entities.UpdateOrderRequest) (*db.Order, error) {
	order, err := s.Store.GetOrderByID(id)
	if err != nil {
		return nil, err
	}

	if req.Stage != "" {
		order.Stage = req.Stage
	}
	if req.DeliveryDate != "" {
		normalized := entities.NormalizeDate(req.DeliveryDate)
		if normalized == "" {
			return nil, ErrInvalidReservation
		}
		order.DeliveryDate = normalized
	}
	if req.DeliveryTime != "" {
		order.DeliveryTime = req.DeliveryTime
	}
	if req.DeliveryStatus != "" {
		order.DeliveryStatus = req.DeliveryStatus
	}
	if req.Notes != "" {
		order.Notes = req.Notes
	}
	if req.RejectionReason != "" {
		order.RejectionReason = req.RejectionReason
	}
	if req.Address != nil {
		order.AddressStreet = req.Address.Street
		order.AddressCity = req.Address.City
		order.AddressZip = req.Address.Zip
		order.AddressInstructions = req.Address.Instructions
	}

	if err := s.Store.UpdateOrder(order); err != nil {
		return nil, err
	}

	if req.Stage != "" && order.Email != "" && s.Notifier != nil {
		s.Notifier.OrderStageUpdate(order, req.Stage)
	}
	return order, nil
}

// RejectOrder releases the order's reserved capacity at most once, marks it rejected,
// notifies the customer and removes the order. The release is gated by the order's
// capacity-released flag: a retried rejection finds the flag already claimed and the
// ledger is not decremented a second time. Release problems never block the rejection.
func (s *OrderService) RejectOrder(id int, reason string) error {
	order, err := s.Store.GetOrderByID(id)
	if err != nil {
		return err
	}
	if reason == "" {
		reason = "No reason provided"
	}

	if order.ReservedUnits > 0 && !order.CapacityReleased {
		claimed, err := s.Store.MarkCapacityReleased(order.ID)
		if err != nil {
			log.Printf("ALERT: could not mark capacity released for order %d: %v", order.ID, err)
		} else if claimed {
			s.Preorder.Release(order.DeliveryDate, order.DeliveryTime, order.ReservedUnits)
			order.CapacityReleased = true
		} else {
			log.Printf("WARN: capacity for order %d already released, skipping", order.ID)
		}
	}

	order.Stage = db.StageRejected
	order.RejectionReason = reason
	if err := s.Store.UpdateOrder(order); err != nil {
		log.Printf("WARN: could not persist rejected stage for order %d: %v", order.ID, err)
	}

	if order.Email != "" && s.Notifier != nil {
		s.Notifier.OrderRejected(order, reason)
	}

	if err := s.Store.DeleteOrder(order.ID); err != nil {
		return fmt.Errorf("error deleting rejected order %d: %w", order.ID, err)
	}
	log.Printf("Order %d rejected and removed (reason: %s)", order.ID, reason)
	return nil
}

func (s *OrderService) DeleteOrder(id int) error {
	return s.Store.DeleteOrder(id)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
