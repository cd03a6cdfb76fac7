// Package id provides UUIDv7 generation for all entities.
// UUIDv7 is time-ordered, so ledger rows and documents sort naturally by creation time.
package id

import (
	"fmt"

	"github.com/google/uuid"
)

// ID identifies items, warehouses, documents, price lists and ledger rows.
type ID = uuid.UUID

// New generates a new UUIDv7.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// Parse parses the canonical textual form.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// Nil returns zero-value UUID.
func Nil() ID {
	return uuid.Nil
}

// IsNil checks if ID is zero-value.
func IsNil(v ID) bool {
	return v == uuid.Nil
}

// Key builds the composite key of an (item, warehouse) pair.
// Used for lock ordering and map keys.
func Key(itemID, warehouseID ID) string {
	return fmt.Sprintf("%s/%s", itemID, warehouseID)
}
