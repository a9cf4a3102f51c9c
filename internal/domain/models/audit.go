package models

import "time"

// AuditAction enumerates the mutations recorded in the audit trail.
type AuditAction string

const (
	AuditCreate AuditAction = "CREATE"
	AuditUpdate AuditAction = "UPDATE"
	AuditDelete AuditAction = "DELETE"
)

// EntityType names the kind of record an audit entry refers to.
type EntityType string

const (
	EntityReceipt     EntityType = "RECEIPT"
	EntityConsumption EntityType = "CONSUMPTION"
	EntityUser        EntityType = "USER"
)

// FieldChange holds the before and after value of an updated field.
type FieldChange struct {
	From any `bson:"from" json:"from"`
	To   any `bson:"to" json:"to"`
}

// AuditLog is one entry of the audit trail.
type AuditLog struct {
	ID          string                 `bson:"_id" json:"id"`
	Action      AuditAction            `bson:"action" json:"action"`
	EntityType  EntityType             `bson:"entity_type" json:"entity_type"`
	EntityID    string                 `bson:"entity_id" json:"entity_id"`
	UserID      string                 `bson:"user_id" json:"user_id"`
	UserName    string                 `bson:"user_name" json:"user_name"`
	Timestamp   time.Time              `bson:"timestamp" json:"timestamp"`
	Changes     map[string]FieldChange `bson:"changes,omitempty" json:"changes,omitempty"`
	Description string                 `bson:"description" json:"description"`
}

// Actor identifies who performed a mutation.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
