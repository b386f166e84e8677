package service

import (
	"fmt"
	"log"
	"time"

	"petale/internal/db"
	"petale/internal/repository"
)

type JobService struct {
	Repo   *repository.JobRepository
	Orders *OrderService
}

func NewJobService(repo *repository.JobRepository, orders *OrderService) *JobService {
	return &JobService{Repo: repo, Orders: orders}
}

// MarkDeliveredOrders moves "For Delivery" orders whose delivery date has passed to
// "Delivered". Runs nightly.
func (s *JobService) MarkDeliveredOrders() error {
	log.Println("Cron Job: checking for orders to mark as Delivered...")

	today := time.Now().Format("2006-01-02")
	orderIDs, err := s.Repo.GetForDeliveryOrderIDsPastDate(today)
	if err != nil {
		return fmt.Errorf("cron job: failed to get for-delivery orders past date: %w", err)
	}

	if len(orderIDs) == 0 {
		log.Println("Cron Job: no for-delivery orders found past their delivery date.")
		return nil
	}

	log.Printf("Cron Job: found %d orders to mark as Delivered. IDs: %v", len(orderIDs), orderIDs)

	if err := s.Repo.UpdateOrderStages(orderIDs, db.StageDelivered); err != nil {
		return fmt.Errorf("cron job: failed to update order stages: %w", err)
	}

	log.Printf("Cron Job: updated %d orders to Delivered.", len(orderIDs))
	return nil
}

// PurgeStalePendingOrders rejects Pending orders the baker never acted on. Rejection goes
// through the order service so the reserved capacity is released exactly once, gated by the
// order's capacity-released flag like any other rejection.
func (s *JobService) PurgeStalePendingOrders(olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)
	orders, err := s.Repo.GetStalePendingOrders(cutoff)
	if err != nil {
		return fmt.Errorf("cron job: failed to get stale pending orders: %w", err)
	}
	if len(orders) == 0 {
		return nil
	}

	log.Printf("Cron Job: purging %d stale pending orders older than %s", len(orders), olderThan)
	for _, o := range orders {
		if err := s.Orders.RejectOrder(o.ID, "Order expired without confirmation"); err != nil {
			log.Printf("WARN: cron job could not purge order %d: %v", o.ID, err)
		}
	}
	return nil
}
