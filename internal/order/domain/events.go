package domain

// EventOrderPlaced names the outbox event written in the checkout
// transaction; its payload is the OrderDetails snapshot.
const EventOrderPlaced = "OrderPlaced"

// PlacedItem is one confirmed line as the notification channel sees it.
type PlacedItem struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Size        string `json:"size"`
	LineTotal   int64  `json:"line_total"`
}

// OrderDetails is the immutable snapshot handed to the notification channel
// after commit. It carries everything the confirmation message needs, so the
// consumer never reads the order tables.
type OrderDetails struct {
	OrderID     int64        `json:"order_id"`
	TotalCents  int64        `json:"total_cents"`
	Address     string       `json:"address"`
	FirstName   string       `json:"first_name"`
	LastName    string       `json:"last_name"`
	PhoneNumber string       `json:"phone_number"`
	Email       string       `json:"email"`
	Items       []PlacedItem `json:"items"`
}

func NewOrderDetails(g Graph) OrderDetails {
	items := make([]PlacedItem, 0, len(g.Items))
	for _, it := range g.Items {
		items = append(items, PlacedItem{
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Size:        it.Size,
			LineTotal:   it.LineTotal(),
		})
	}
	return OrderDetails{
		OrderID:     g.Order.ID,
		TotalCents:  g.Order.TotalCents,
		Address:     g.Shipping.Address,
		FirstName:   g.Shipping.FirstName,
		LastName:    g.Shipping.LastName,
		PhoneNumber: g.Shipping.PhoneNumber,
		Email:       g.Shipping.Email,
		Items:       items,
	}
}
