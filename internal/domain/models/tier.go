package models

// Tier tells where a record currently lives.
type Tier string

const (
	// TierRemote records were acknowledged by the remote database.
	TierRemote Tier = "remote"
	// TierLocal records exist only in this process because the remote write failed.
	TierLocal Tier = "local"
)

// Stored pairs a record with the tier holding it.
type Stored[T any] struct {
	Record T    `json:"record"`
	Tier   Tier `json:"tier"`
}
