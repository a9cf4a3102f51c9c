// Package repository holds errors shared by the storage adapters.
package repository

import "errors"

// ErrNotFound is returned when an update targets a record that does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateID is returned when a create reuses an existing record id.
var ErrDuplicateID = errors.New("duplicate record id")
