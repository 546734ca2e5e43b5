package api

import (
	"context"
	"net/http"
	"net/url"
)

type PaymentOrderRequest struct {
	Amount   float64 `json:"amount"`
	OrderID  ID      `json:"orderId"`
	Currency string  `json:"currency"`
}

// PaymentOrder is the gateway order the checkout widget is opened with.
type PaymentOrder struct {
	Success  bool   `json:"success"`
	Key      string `json:"key"`
	Amount   Number `json:"amount"`
	Currency string `json:"currency"`
	OrderID  string `json:"orderId"`
	Message  string `json:"message,omitempty"`
}

type PaymentVerification struct {
	GatewayOrderID   string `json:"razorpay_order_id"`
	GatewayPaymentID string `json:"razorpay_payment_id"`
	Signature        string `json:"razorpay_signature"`
	OrderID          ID     `json:"booknook_order_id"`
}

type PaymentResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type PaymentStatus struct {
	Success   bool   `json:"success"`
	Status    string `json:"status"`
	PaymentID string `json:"payment_id,omitempty"`
	Amount    Number `json:"amount,omitempty"`
	Message   string `json:"message,omitempty"`
}

func (c *Client) CreatePaymentOrder(ctx context.Context, token string, in PaymentOrderRequest) (*PaymentOrder, error) {
	if in.Currency == "" {
		in.Currency = "INR"
	}
	var po PaymentOrder
	if err := c.Do(ctx, http.MethodPost, "/payments/create-order", &po, WithToken(token), WithBody(in), WithCallRetries(0)); err != nil {
		return nil, err
	}
	if !po.Success {
		return nil, &Error{Status: http.StatusPaymentRequired, Message: orDefault(po.Message, "Failed to create payment order"), Data: po}
	}
	return &po, nil
}

func (c *Client) VerifyPayment(ctx context.Context, token string, in PaymentVerification) (*PaymentResult, error) {
	var res PaymentResult
	if err := c.Do(ctx, http.MethodPost, "/payments/verify", &res, WithToken(token), WithBody(in), WithCallRetries(0)); err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, &Error{Status: http.StatusPaymentRequired, Message: orDefault(res.Message, "Payment verification failed"), Data: res}
	}
	return &res, nil
}

func (c *Client) PaymentStatus(ctx context.Context, token, orderID string) (*PaymentStatus, error) {
	var ps PaymentStatus
	if err := c.Do(ctx, http.MethodGet, "/payments/status/"+url.PathEscape(orderID), &ps, WithToken(token)); err != nil {
		return nil, err
	}
	return &ps, nil
}
