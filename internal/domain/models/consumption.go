package models

import (
	"math"
	"strings"
	"time"
)

// ConsumptionRecord captures material used by an activity on site.
type ConsumptionRecord struct {
	ID           string     `bson:"_id" json:"id"`
	ItemCode     string     `bson:"item_code" json:"item_code"`
	ItemName     string     `bson:"item_name" json:"item_name"`
	QuantityUsed float64    `bson:"quantity_used" json:"quantity_used"`
	Purpose      string     `bson:"purpose" json:"purpose"`
	ActivityCode string     `bson:"activity_code" json:"activity_code"`
	UsedBy       string     `bson:"used_by" json:"used_by"`
	Date         string     `bson:"date" json:"date"`
	Remarks      string     `bson:"remarks" json:"remarks"`
	RatePerUnit  float64    `bson:"rate_per_unit" json:"rate_per_unit"`
	TotalValue   float64    `bson:"total_value" json:"total_value"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	CreatedBy    string     `bson:"created_by" json:"created_by"`
	UpdatedAt    *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
	UpdatedBy    string     `bson:"updated_by,omitempty" json:"updated_by,omitempty"`
}

// ConsumptionDraft is the user supplied part of a consumption. The rate is never
// user supplied; it is copied from current stock when the record is built.
type ConsumptionDraft struct {
	ItemCode     string  `json:"item_code"`
	ItemName     string  `json:"item_name"`
	QuantityUsed float64 `json:"quantity_used"`
	Purpose      string  `json:"purpose"`
	ActivityCode string  `json:"activity_code"`
	UsedBy       string  `json:"used_by"`
	Date         string  `json:"date"`
	Remarks      string  `json:"remarks"`
}

// Normalize trims surrounding whitespace from every text field and upper-cases the item code.
func (d ConsumptionDraft) Normalize() ConsumptionDraft {
	d.ItemCode = NormalizeItemCode(d.ItemCode)
	d.ItemName = strings.TrimSpace(d.ItemName)
	d.Purpose = strings.TrimSpace(d.Purpose)
	d.ActivityCode = strings.TrimSpace(d.ActivityCode)
	d.UsedBy = strings.TrimSpace(d.UsedBy)
	d.Date = strings.TrimSpace(d.Date)
	d.Remarks = strings.TrimSpace(d.Remarks)
	return d
}

// Validate reports the first invalid field of the draft.
func (d ConsumptionDraft) Validate() error {
	if err := requireText("item_code", d.ItemCode); err != nil {
		return err
	}
	if err := validateAmount("quantity_used", d.QuantityUsed); err != nil {
		return err
	}
	if err := requireText("purpose", d.Purpose); err != nil {
		return err
	}
	if err := requireText("used_by", d.UsedBy); err != nil {
		return err
	}
	return validateDate("date", d.Date)
}

// ValidateValue rejects a quantity whose value at rate overflows.
func (d ConsumptionDraft) ValidateValue(rate float64) error {
	if math.IsInf(d.QuantityUsed*rate, 0) {
		return &FieldError{Field: "total_value", Message: "is too large"}
	}
	return nil
}

// Apply copies the draft onto the record using the given item name and rate.
func (d ConsumptionDraft) Apply(r ConsumptionRecord, itemName string, rate float64) ConsumptionRecord {
	r.ItemCode = d.ItemCode
	r.ItemName = itemName
	r.QuantityUsed = d.QuantityUsed
	r.Purpose = d.Purpose
	r.ActivityCode = d.ActivityCode
	r.UsedBy = d.UsedBy
	r.Date = d.Date
	r.Remarks = d.Remarks
	r.RatePerUnit = rate
	r.TotalValue = d.QuantityUsed * rate
	return r
}
