// Package orders fetches and summarizes remote order history from the
// commerce platform. The Source interface is the collaborator contract; the
// Aggregator turns raw order pages into per-customer activity.
package orders

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// LineItem is a single product line on an order.
type LineItem struct {
	SKU           string `json:"sku"`
	ProductExists bool   `json:"product_exists"`
	Quantity      int    `json:"quantity"`
}

// OrderCustomer is the customer reference embedded in an order.
type OrderCustomer struct {
	ID string `json:"id"`
}

// Order is one order fetched from the commerce platform.
type Order struct {
	ID         string         `json:"id"`
	Customer   *OrderCustomer `json:"customer"`
	SourceName string         `json:"source_name"`
	LineItems  []LineItem     `json:"line_items"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Page is one page of orders plus the cursor for the next page. An empty
// NextCursor means the channel is exhausted.
type Page struct {
	Orders     []Order
	NextCursor string
}

// Address is a customer's default address as reported by the platform.
type Address struct {
	Company  string `json:"company"`
	Address1 string `json:"address1"`
	City     string `json:"city"`
	Province string `json:"province"`
	Zip      string `json:"zip"`
	Country  string `json:"country"`
}

// String renders the address as a single geocodable line.
func (a *Address) String() string {
	return fmt.Sprintf("%s, %s, %s %s, %s", a.Address1, a.City, a.Province, a.Zip, a.Country)
}

// Customer is the detail record for a single customer.
type Customer struct {
	ID             string   `json:"id"`
	FirstName      string   `json:"first_name"`
	LastName       string   `json:"last_name"`
	DefaultAddress *Address `json:"default_address"`
}

// DisplayName returns the company name from the default address, falling
// back to "First Last".
func (c *Customer) DisplayName() string {
	if c.DefaultAddress != nil && c.DefaultAddress.Company != "" {
		return c.DefaultAddress.Company
	}
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// CustomerLookup fetches customer detail records.
type CustomerLookup interface {
	GetCustomer(ctx context.Context, id string) (Customer, error)
}

// Source is the order-history collaborator contract.
type Source interface {
	CustomerLookup

	// ListOrders fetches one page of orders for a sales channel created at
	// or after since. Pass the previous page's NextCursor to continue;
	// an empty cursor starts from the beginning.
	ListOrders(ctx context.Context, channel string, since time.Time, cursor string) (Page, error)
}
