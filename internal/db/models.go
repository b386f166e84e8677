package db

import "time"

// Slot is one persisted capacity row per (date, window) pair. Rows are created lazily on
// the first reservation or admin edit and are never deleted; historical slots stay queryable.
type Slot struct {
	ID         int
	SlotDate   string // canonical YYYY-MM-DD key
	SlotWindow string // "HH:MM-HH:MM"
	Capacity   int
	Reserved   float64
	IsBlackout bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Remaining is the capacity still reservable, clamped at zero.
func (s Slot) Remaining() float64 {
	rem := float64(s.Capacity) - s.Reserved
	if rem < 0 {
		return 0
	}
	return rem
}

type Order struct {
	ID    int
	Name  string
	Email string
	Phone string

	Items []OrderItem

	Subtotal float64
	Discount float64
	Tip      float64
	Tax      float64
	Total    float64

	PaymentMethod string // payments are off: stays "Unpaid"
	IsPaid        bool
	TransactionID string

	AddressStreet       string
	AddressCity         string
	AddressZip          string
	AddressInstructions string

	DeliveryDate   string // canonical YYYY-MM-DD, same key space as Slot.SlotDate
	DeliveryTime   string // window string
	DeliveryMethod string
	DeliveryStatus string

	Stage           string
	RejectionReason string
	Notes           string

	// Capacity binding: the exact units reserved at creation, and whether they have
	// already been released back to the ledger. ReservedUnits is set once at creation;
	// CapacityReleased flips true at most once, on rejection or purge.
	ReservedUnits    float64
	CapacityReleased bool

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderItem struct {
	OrderID       int
	ProductID     int // 0 when the item was submitted without a catalog reference
	Name          string
	Price         float64
	Quantity      float64
	Subtotal      float64
	CapacityUnits float64
	Image         string
}

// Order lifecycle stages.
const (
	StagePending     = "Pending"
	StageInProgress  = "In Progress"
	StageDone        = "Done"
	StageForDelivery = "For Delivery"
	StageDelivered   = "Delivered"
	StageRejected    = "Rejected"
)

type Product struct {
	ID            int
	Name          string
	Slug          string
	Description   string
	Price         float64
	Category      string
	Status        string
	DiscountType  string // "none", "percent", "amount"
	DiscountValue float64
	Images        []string
	MainImageIdx  int

	PreorderEnabled bool
	LeadTimeDays    int
	CapacityUnits   float64 // slot units one item consumes, 0.1-100
	DeliveryOnly    bool

	IsBundle    bool
	BundleItems []BundleItem

	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FinalPrice applies the product's discount to its base price.
func (p Product) FinalPrice() float64 {
	switch p.DiscountType {
	case "percent":
		pct := p.DiscountValue
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		return p.Price * (1 - pct/100)
	case "amount":
		price := p.Price - p.DiscountValue
		if price < 0 {
			return 0
		}
		return price
	default:
		return p.Price
	}
}

type BundleItem struct {
	ProductID  int
	Name       string
	Image      string
	Quantity   float64
	ProductRef int // optional link to the base product, 0 when unset
}

type Expense struct {
	ID        int
	Label     string
	Category  string
	Amount    float64
	SpentAt   time.Time
	Notes     string
	CreatedAt time.Time
}

type Admin struct {
	ID           int
	Email        string
	PasswordHash string
}
