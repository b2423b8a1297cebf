// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package order places and tracks orders.

The order total is computed by the backend from its own copy of the cart.
Checkout sends only the payment method; the cart total shown in the UI is
never part of the request.
*/
package order

// # Order Lifecycle

// Status is the backend's order state.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
)

// Statuses lists the valid statuses in lifecycle order.
var Statuses = []string{string(StatusPending), string(StatusPaid), string(StatusShipped), string(StatusDelivered)}

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentCard PaymentMethod = "CARTE"
	PaymentCash PaymentMethod = "ESPECES"
)

// # Entities

// Item is one line of a placed order, frozen at checkout.
type Item struct {
	ID          int64   `json:"id"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantite"`
	Price       float64 `json:"prix"`
}

// Payment is the simulated payment attached to an order.
type Payment struct {
	ID     int64   `json:"id"`
	Amount float64 `json:"montant"`
	Method string  `json:"methode"`
	Date   string  `json:"date"`
	Status string  `json:"statut"`
}

// Order is a placed order.
//
// Date is kept as the backend's local timestamp text; it carries no zone.
type Order struct {
	ID            int64         `json:"id"`
	Total         float64       `json:"total"`
	Date          string        `json:"date"`
	Status        Status        `json:"statut"`
	PaymentMethod PaymentMethod `json:"methodePaiement"`
	Items         []Item        `json:"orderItems"`
	Payment       *Payment      `json:"payment,omitempty"`
}
