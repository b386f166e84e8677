package service

import (
	"fmt"
	"log"
	"os"
	"strings"

	"petale/internal/db"
)

// SenderService implements OrderNotifier on top of SendGrid and Twilio. Every send runs in
// its own goroutine: order workflows never wait on, or fail because of, a notification.
type SenderService struct {
	BakeryName string
}

func NewSenderService() *SenderService {
	name := os.Getenv("BAKERY_NAME")
	if name == "" {
		name = "Petale Bakery"
	}
	return &SenderService{BakeryName: name}
}

var stageMessages = map[string]string{
	db.StageInProgress:  "Your order has been accepted and is now being prepared.",
	db.StageDone:        "Your order is ready and waiting to be scheduled for delivery.",
	db.StageForDelivery: "Your order is out for delivery!",
	db.StageDelivered:   "Your order has been delivered. We hope you loved it!",
}

func (s *SenderService) OrderConfirmation(o *db.Order) {
	if o.Email == "" {
		return
	}

	var lines []string
	for _, item := range o.Items {
		lines = append(lines, fmt.Sprintf("%v x %s - $%.2f", item.Quantity, item.Name, item.Price))
	}
	itemsPlain := strings.Join(lines, "\n")
	itemsHTML := strings.Join(lines, "<br>")

	subject := fmt.Sprintf("Your %s Order Confirmation", s.BakeryName)
	plain := fmt.Sprintf(
		"Thank you for your order, %s!\n\n"+
			"Delivery: %s at %s\n\n"+
			"Order summary:\n%s\n\n"+
			"Total: $%.2f\n"+
			"Grand total: $%.2f\n\n"+
			"You'll receive another email when your order is accepted.\n%s",
		o.Name, o.DeliveryDate, o.DeliveryTime, itemsPlain, o.Total-o.Tip, o.Total, s.BakeryName,
	)
	html := fmt.Sprintf(
		`<div style="font-family:'Segoe UI',sans-serif;color:#333;">
			<h2>Thank You for Your Order, %s!</h2>
			<p>Your treats from <b>%s</b> are being prepared with care.</p>
			<p><b>Delivery:</b> %s at %s</p>
			<h3>Order Summary</h3>
			<p>%s</p>
			<p><b>Grand Total:</b> $%.2f</p>
			<p>You'll receive another email when your order is accepted.<br><b>%s</b></p>
		</div>`,
		o.Name, s.BakeryName, o.DeliveryDate, o.DeliveryTime, itemsHTML, o.Total, s.BakeryName,
	)

	s.sendAsync(o.Email, o.Name, subject, plain, html, o.ID)
}

func (s *SenderService) OrderStageUpdate(o *db.Order, stage string) {
	if o.Email == "" {
		return
	}
	message, ok := stageMessages[stage]
	if !ok {
		message = "Your order has been updated."
	}

	subject := fmt.Sprintf("%s - Order %s", s.BakeryName, stage)
	plain := fmt.Sprintf("%s\n\nOrder ID: %d\nStatus: %s\n\nThank you for supporting small businesses.", message, o.ID, stage)
	html := fmt.Sprintf(
		`<div style="font-family:'Segoe UI',sans-serif;color:#333;">
			<h2>Order Update from %s</h2>
			<p>%s</p>
			<p><b>Order ID:</b> %d</p>
			<p><b>Status:</b> %s</p>
		</div>`,
		s.BakeryName, message, o.ID, stage,
	)

	s.sendAsync(o.Email, o.Name, subject, plain, html, o.ID)
}

func (s *SenderService) OrderRejected(o *db.Order, reason string) {
	if o.Email == "" {
		return
	}
	subject := fmt.Sprintf("Your %s Order - Rejected", s.BakeryName)
	plain := fmt.Sprintf(
		"We're sorry, %s. Your order was declined.\n\nReason: %s\n\nReach out to us if you'd like to reschedule or adjust your order.",
		o.Name, reason,
	)
	html := fmt.Sprintf(
		`<div style="font-family:'Segoe UI',sans-serif;color:#333;">
			<h2>Order Update - %s</h2>
			<p>We're sorry, %s. Your order was declined.</p>
			<p><b>Reason:</b> %s</p>
			<p>You can reach out to us if you'd like to reschedule or adjust your order.</p>
		</div>`,
		s.BakeryName, o.Name, reason,
	)

	s.sendAsync(o.Email, o.Name, subject, plain, html, o.ID)
}

// NewOrderAlert pings the baker's phone when a new order lands. Optional: disabled unless
// BAKERY_ALERT_PHONE is set.
func (s *SenderService) NewOrderAlert(o *db.Order) {
	phone := os.Getenv("BAKERY_ALERT_PHONE")
	if phone == "" {
		return
	}
	message := fmt.Sprintf("%s: new order #%d from %s for %s (%s), $%.2f",
		s.BakeryName, o.ID, o.Name, o.DeliveryDate, o.DeliveryTime, o.Total)
	go func() {
		if err := SendSMS(phone, message); err != nil {
			log.Printf("ALERT (async): failed to send new-order SMS for order %d: %v", o.ID, err)
		}
	}()
}

func (s *SenderService) sendAsync(toEmail, toName, subject, plain, html string, orderID int) {
	go func() {
		if err := SendEmailWithSendGrid(toEmail, toName, subject, plain, html); err != nil {
			log.Printf("ALERT (async): failed to send email for order %d: %v", orderID, err)
		}
	}()
}
