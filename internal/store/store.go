package store

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Tiers is the fixed set of coupon tiers, in display order.
var Tiers = []string{"500", "1000", "2000", "4000"}

func ValidTier(t string) bool {
	for _, v := range Tiers {
		if v == t {
			return true
		}
	}
	return false
}

// TierLabel is the user-facing name of a tier.
func TierLabel(t string) string {
	switch t {
	case "500":
		return "500 off 500"
	case "1000":
		return "1000 off 1000"
	case "2000":
		return "2000 off 2000"
	case "4000":
		return "4000 off 4000"
	}
	return t
}

// Store is the transactional core over the durable tables. It holds no state
// of its own; every operation reads current committed rows.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// forUpdate adds a row lock on backends that support it. sqlite has no
// FOR UPDATE syntax; its single-writer transaction lock covers the same
// ground there.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
