package events

import "time"

type CartEvent struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	BookID    string    `json:"book_id,omitempty"`
	Quantity  int       `json:"quantity,omitempty"`
	At        time.Time `json:"at"`
}

type OrderEvent struct {
	Type          string    `json:"type"`
	OrderID       string    `json:"order_id"`
	Mode          string    `json:"mode"`
	PaymentMethod string    `json:"payment_method"`
	Total         float64   `json:"total"`
	Items         int       `json:"items"`
	At            time.Time `json:"at"`
}

type BookEvent struct {
	Type   string    `json:"type"`
	BookID string    `json:"book_id"`
	At     time.Time `json:"at"`
}
