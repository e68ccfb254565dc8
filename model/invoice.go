package model

import "time"

// Duplicate patterns assigned to invoice groups.
const (
	PatternExactMatch         = "Exact Match"
	PatternSimilarValue       = "Similar Value"
	PatternSimilarVendor      = "Similar Vendor"
	PatternSimilarDate        = "Similar Date"
	PatternSimilarReference   = "Similar Reference"
	PatternSimilarDescription = "Similar Description"
)

// Invoice is one generated invoice record. Invoices sharing a GroupID are
// duplicates or near-duplicates of each other.
type Invoice struct {
	ID                  int64      `json:"id"`
	CaseID              *int       `json:"case,omitempty"`
	Reference           string     `json:"reference"`
	Date                time.Time  `json:"date"`
	PayDate             *time.Time `json:"pay_date"`
	Quantity            int        `json:"quantity"`
	UnitPrice           float64    `json:"unit_price"`
	Value               float64    `json:"value"`
	Vendor              string     `json:"vendor"`
	Region              string     `json:"region"`
	Description         string     `json:"description"`
	PaymentMethod       string     `json:"payment_method"`
	SpecialInstructions string     `json:"special_instructions"`
	Pattern             string     `json:"pattern"`
	GroupID             string     `json:"group_id"`
	Confidence          string     `json:"confidence"`
	Open                bool       `json:"open"`
	Accuracy            int        `json:"accuracy"`
}

// InvoiceGroup aggregates the invoices of one duplicate group.
type InvoiceGroup struct {
	GroupID        string    `json:"group_id"`
	AmountOverpaid float64   `json:"amount_overpaid"`
	ItemCount      int       `json:"itemCount"`
	Date           time.Time `json:"date"`
	Region         string    `json:"region"`
	Pattern        string    `json:"pattern"`
	Open           bool      `json:"open"`
	Confidence     string    `json:"confidence"`
	Items          []Invoice `json:"items"`
}

// InventoryItem is one product in the inventory listing.
type InventoryItem struct {
	ID           int64   `json:"id"`
	ProductCode  string  `json:"product_code"`
	ProductName  string  `json:"product_name"`
	CurrentStock int     `json:"current_stock"`
	UnitPrice    float64 `json:"unit_price"`
	NewProduct   bool    `json:"new_product"`
}
