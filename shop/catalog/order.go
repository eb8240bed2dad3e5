package catalog

// Order statuses and payment types understood by the order API.
const (
	StatusAwaitingFulfillment = "awaiting_fulfillment"
	PayTypeOnline             = "online_payment"
)

// OrderItem is one ordered product in one size.
type OrderItem struct {
	Product  int `json:"product"`
	Quantity int `json:"quantity"`
	Size     int `json:"size"`
}

// Order is the normalized payload of POST /order/.
type Order struct {
	Items        []OrderItem `json:"items"`
	FullName     string      `json:"full_name"`
	Phone        string      `json:"phone"`
	Email        string      `json:"email,omitempty"`
	ShippingType string      `json:"shipping_type"`
	City         string      `json:"city"`
	Department   string      `json:"department"`
	PayType      string      `json:"paytype"`
	Status       string      `json:"status"`
	Debug        bool        `json:"debug"`
}

// Receipt is the part of the created order echoed back by the API.
type Receipt struct {
	ID     int    `json:"id"`
	Status string `json:"status"`
}
