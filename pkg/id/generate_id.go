package id

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// NewID32 renders a random v4 UUID as 32 lowercase hex characters.
func NewID32() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// LoanCode renders the human-readable loan code for a store sequence number,
// e.g. 42 -> "LN000042". Codes keep growing past six digits.
func LoanCode(seq uint64) string {
	return fmt.Sprintf("LN%06d", seq)
}
