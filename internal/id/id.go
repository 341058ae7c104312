// Package id formats and parses identifiers: opaque entity ids and the
// human-readable document numbers printed on invoices and bills.
package id

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// New returns a fresh opaque entity id.
func New() string {
	return uuid.NewString()
}

// FormatNumber returns a document number like "INV-2025-01-001".
func FormatNumber(prefix string, year, month, seq int) string {
	return fmt.Sprintf("%s-%04d-%02d-%03d", prefix, year, month, seq)
}

// NumberPeriod returns the "INV-2025-01-" prefix shared by every document
// number of one type in one month.
func NumberPeriod(prefix string, year, month int) string {
	return fmt.Sprintf("%s-%04d-%02d-", prefix, year, month)
}

// ParseNumber parses "INV-2025-01-001" into prefix, year, month, seq.
func ParseNumber(number string) (prefix string, year, month, seq int, err error) {
	parts := strings.Split(number, "-")
	if len(parts) != 4 || parts[0] == "" {
		return "", 0, 0, 0, fmt.Errorf("invalid document number format: %q", number)
	}

	year, err = strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, 0, 0, fmt.Errorf("invalid year in document number %q: %w", number, err)
	}

	month, err = strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, 0, 0, fmt.Errorf("invalid month in document number %q: %w", number, err)
	}
	if month < 1 || month > 12 {
		return "", 0, 0, 0, fmt.Errorf("month out of range in document number %q", number)
	}

	seq, err = strconv.Atoi(parts[3])
	if err != nil {
		return "", 0, 0, 0, fmt.Errorf("invalid sequence in document number %q: %w", number, err)
	}

	return parts[0], year, month, seq, nil
}

// NextSeq returns one more than the highest sequence among numbers that
// parse; unparseable numbers are skipped.
func NextSeq(numbers []string) int {
	maxSeq := 0
	for _, n := range numbers {
		_, _, _, seq, err := ParseNumber(n)
		if err != nil {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq + 1
}
