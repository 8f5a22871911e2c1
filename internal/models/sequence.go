package models

import (
	"fmt"

	"gorm.io/gorm"
)

// NumberingSequence holds the yearly counters used for human readable
// document numbers (factures, situations, avenants).
//
// Counting existing rows to derive the next number is racy under
// concurrent writers, so the next value is reserved with a single atomic
// upsert instead.
type NumberingSequence struct {
	Kind    string `gorm:"primaryKey"`
	Year    int    `gorm:"primaryKey"`
	Counter int64
}

// NextSequence atomically reserves the next counter value for a kind and
// year. Two concurrent callers can never receive the same value.
func NextSequence(tx *gorm.DB, kind string, year int) (int64, error) {
	var counter int64

	err := tx.Raw(`
		INSERT INTO numbering_sequences (kind, year, counter) VALUES (?, ?, 1)
		ON CONFLICT (kind, year) DO UPDATE SET counter = counter + 1
		RETURNING counter`, kind, year).
		Scan(&counter).Error
	if err != nil {
		return 0, fmt.Errorf("could not reserve the next %s number for %d: %w", kind, year, err)
	}

	return counter, nil
}

// FormatNumber renders a reserved sequence value as a document number,
// e.g. "FAC-2026-007".
func FormatNumber(prefix string, year int, counter int64) string {
	return fmt.Sprintf("%s-%d-%03d", prefix, year, counter)
}
