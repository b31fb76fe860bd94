// Package model defines the core domain models used throughout the application.
package model

import "fmt"

// LineItem represents a single billed position on an invoice.
type LineItem struct {
	Description string  `json:"description"`
	SKU         string  `json:"sku,omitempty"`
	ServiceDate string  `json:"serviceDate,omitempty"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Total       float64 `json:"total"`
}

// Invoice represents a structured invoice record as extracted upstream.
// The ID is an internal identity, distinct from the business invoice
// number; two invoices sharing an invoice number is the duplicate signal.
type Invoice struct {
	ID            string     `json:"id"`
	VendorName    string     `json:"vendorName"`
	InvoiceNumber string     `json:"invoiceNumber"`
	InvoiceDate   string     `json:"invoiceDate"`
	DueDate       string     `json:"dueDate,omitempty"`
	Currency      string     `json:"currency"`
	RawText       string     `json:"rawText"`
	LineItems     []LineItem `json:"lineItems"`
	TotalAmount   float64    `json:"totalAmount"`
}

// Validate checks that the fields every processing step relies on are present.
func (i *Invoice) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("invoice id is required")
	}
	if i.VendorName == "" {
		return fmt.Errorf("vendor name is required")
	}
	if i.InvoiceNumber == "" {
		return fmt.Errorf("invoice number is required")
	}
	return nil
}

// Clone returns a deep copy so processing can mutate line items without
// touching the caller's invoice.
func (i *Invoice) Clone() *Invoice {
	dup := *i
	dup.LineItems = make([]LineItem, len(i.LineItems))
	copy(dup.LineItems, i.LineItems)
	return &dup
}

// HistoryRecord returns the tuple retained for duplicate detection.
func (i *Invoice) HistoryRecord() InvoiceRecord {
	return InvoiceRecord{
		VendorName:    i.VendorName,
		InvoiceNumber: i.InvoiceNumber,
		Date:          i.InvoiceDate,
		ID:            i.ID,
	}
}
