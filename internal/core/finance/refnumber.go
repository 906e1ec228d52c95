package finance

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	InventoryRefPrefix = ""
	InventoryRefWidth  = 4
	LoanerRefPrefix    = "P-"
	LoanerRefWidth     = 3
)

// NextRefNumber returns max(numeric suffix of refs sharing prefix)+1,
// zero-padded to width. Refs with another prefix or a non-numeric suffix
// are skipped.
func NextRefNumber(existing []string, prefix string, width int) string {
	maxRef := 0
	for _, ref := range existing {
		if !strings.HasPrefix(ref, prefix) {
			continue
		}
		n, err := strconv.Atoi(ref[len(prefix):])
		if err != nil || n < 0 {
			continue
		}
		if n > maxRef {
			maxRef = n
		}
	}
	return fmt.Sprintf("%s%0*d", prefix, width, maxRef+1)
}

func NextInventoryRef(existing []string) string {
	return NextRefNumber(existing, InventoryRefPrefix, InventoryRefWidth)
}

func NextLoanerRef(existing []string) string {
	return NextRefNumber(existing, LoanerRefPrefix, LoanerRefWidth)
}
