// internal/validation/format.go
package validation

import "fmt"

// FormatPercentage renders v with two decimals, e.g. "33.33%".
func FormatPercentage(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// TruncateAddress shortens an address to its first and last chars characters.
func TruncateAddress(address string, chars int) string {
	if chars <= 0 {
		chars = 4
	}
	if len(address) <= chars*2 {
		return address
	}
	return address[:chars] + "..." + address[len(address)-chars:]
}
