package billing

import (
	"fmt"
	"strconv"
	"strings"
)

// NextPatientCode derives the next sequential patient code from the set of
// codes already assigned. Codes have the form "P" followed by a zero-padded
// integer; the next code is max(numeric suffix)+1 formatted as P%05d.
// Codes whose suffix does not parse as an integer are skipped, not treated
// as errors. An empty set yields P00001.
func NextPatientCode(existing []string) string {
	max := 0
	for _, code := range existing {
		if !strings.HasPrefix(code, "P") {
			continue
		}
		n, err := strconv.Atoi(code[1:])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}

	return fmt.Sprintf("P%05d", max+1)
}
