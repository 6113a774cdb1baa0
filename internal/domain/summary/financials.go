package summary

import (
	"fmt"
	"math"
)

// Round2 rounds to 2 decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeFinancials derives tax and total from a subtotal and a percentage.
// Both results are rounded to 2 decimal places and total is exactly
// subtotal + tax after rounding.
func ComputeFinancials(subtotal, taxPercentage float64) (taxAmount, totalAmount float64) {
	taxAmount = Round2(subtotal * taxPercentage / 100)
	totalAmount = Round2(subtotal + taxAmount)
	return taxAmount, totalAmount
}

// FormatInvoiceNumber renders the INV-YYYY-MM-#### invoice number for a
// month's sequence value.
func FormatInvoiceNumber(year, month, sequence int) string {
	return fmt.Sprintf("INV-%04d-%02d-%04d", year, month, sequence)
}
