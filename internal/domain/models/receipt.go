package models

import (
	"math"
	"strings"
	"time"
)

// ReceiptRecord captures material arriving on site.
type ReceiptRecord struct {
	ID                string     `bson:"_id" json:"id"`
	ItemCode          string     `bson:"item_code" json:"item_code"`
	ItemName          string     `bson:"item_name" json:"item_name"`
	QuantityReceived  float64    `bson:"quantity_received" json:"quantity_received"`
	RatePerUnit       float64    `bson:"rate_per_unit" json:"rate_per_unit"`
	UnitOfMeasurement string     `bson:"unit_of_measurement" json:"unit_of_measurement"`
	TotalValue        float64    `bson:"total_value" json:"total_value"`
	SupplierName      string     `bson:"supplier_name" json:"supplier_name"`
	DeliveryDate      string     `bson:"delivery_date" json:"delivery_date"`
	ReceivedBy        string     `bson:"received_by" json:"received_by"`
	CreatedAt         time.Time  `bson:"created_at" json:"created_at"`
	CreatedBy         string     `bson:"created_by" json:"created_by"`
	UpdatedAt         *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
	UpdatedBy         string     `bson:"updated_by,omitempty" json:"updated_by,omitempty"`
}

// ReceiptDraft is the user supplied part of a receipt. Total value is always derived.
type ReceiptDraft struct {
	ItemCode          string  `json:"item_code"`
	ItemName          string  `json:"item_name"`
	QuantityReceived  float64 `json:"quantity_received"`
	RatePerUnit       float64 `json:"rate_per_unit"`
	UnitOfMeasurement string  `json:"unit_of_measurement"`
	SupplierName      string  `json:"supplier_name"`
	DeliveryDate      string  `json:"delivery_date"`
	ReceivedBy        string  `json:"received_by"`
}

// Normalize trims surrounding whitespace from every text field and upper-cases the item code.
func (d ReceiptDraft) Normalize() ReceiptDraft {
	d.ItemCode = NormalizeItemCode(d.ItemCode)
	d.ItemName = strings.TrimSpace(d.ItemName)
	d.UnitOfMeasurement = strings.TrimSpace(d.UnitOfMeasurement)
	d.SupplierName = strings.TrimSpace(d.SupplierName)
	d.DeliveryDate = strings.TrimSpace(d.DeliveryDate)
	d.ReceivedBy = strings.TrimSpace(d.ReceivedBy)
	return d
}

// Validate reports the first invalid field of the draft.
func (d ReceiptDraft) Validate() error {
	if err := requireText("item_code", d.ItemCode); err != nil {
		return err
	}
	if err := requireText("item_name", d.ItemName); err != nil {
		return err
	}
	if err := validateAmount("quantity_received", d.QuantityReceived); err != nil {
		return err
	}
	if err := validateAmount("rate_per_unit", d.RatePerUnit); err != nil {
		return err
	}
	if math.IsInf(d.TotalValue(), 0) {
		return &FieldError{Field: "total_value", Message: "is too large"}
	}
	if err := requireText("unit_of_measurement", d.UnitOfMeasurement); err != nil {
		return err
	}
	if err := requireText("supplier_name", d.SupplierName); err != nil {
		return err
	}
	if err := validateDate("delivery_date", d.DeliveryDate); err != nil {
		return err
	}
	return requireText("received_by", d.ReceivedBy)
}

// TotalValue is quantity times rate.
func (d ReceiptDraft) TotalValue() float64 {
	return d.QuantityReceived * d.RatePerUnit
}

// Apply copies the draft fields onto the record and recomputes the total value.
func (d ReceiptDraft) Apply(r ReceiptRecord) ReceiptRecord {
	r.ItemCode = d.ItemCode
	r.ItemName = d.ItemName
	r.QuantityReceived = d.QuantityReceived
	r.RatePerUnit = d.RatePerUnit
	r.UnitOfMeasurement = d.UnitOfMeasurement
	r.SupplierName = d.SupplierName
	r.DeliveryDate = d.DeliveryDate
	r.ReceivedBy = d.ReceivedBy
	r.TotalValue = d.TotalValue()
	return r
}
