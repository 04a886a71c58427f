package core

import (
	"fmt"
	"strings"
)

const (
	// DefaultReceiptPrefix is the prefix used when none is configured.
	DefaultReceiptPrefix = "AB_RNC"

	receiptNoSeparator = " - "
)

// NextReceiptNo suggests the receipt number that follows the highest
// numeric suffix found in records. Receipt numbers without a separator or
// without a leading integer count as 0. The suffix is zero-padded to at
// least two digits: "AB_RNC - 01", "AB_RNC - 10", "AB_RNC - 100".
func NextReceiptNo(records []Receipt, prefix string) string {
	if prefix == "" {
		prefix = DefaultReceiptPrefix
	}
	var max int64
	for _, r := range records {
		if n := receiptSeq(r.ReceiptNo); n > max {
			max = n
		}
	}
	return FormatReceiptNo(prefix, max+1)
}

// FormatReceiptNo renders prefix and sequence number as "PREFIX - NN".
func FormatReceiptNo(prefix string, n int64) string {
	return fmt.Sprintf("%s%s%02d", prefix, receiptNoSeparator, n)
}

// receiptSeq extracts the number after the first separator. Like a lenient
// integer parse it skips leading blanks, honours a sign and stops at the
// first non-digit.
func receiptSeq(receiptNo string) int64 {
	parts := strings.Split(receiptNo, receiptNoSeparator)
	if len(parts) < 2 {
		return 0
	}
	return leadingInt(parts[1])
}

func leadingInt(s string) int64 {
	s = strings.TrimLeft(s, " \t\n\r")
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	var n int64
	digits := 0
	for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		if n > (1<<62)/10 {
			break
		}
		n = n*10 + int64(s[i]-'0')
		digits++
	}
	if digits == 0 {
		return 0
	}
	if neg {
		return -n
	}
	return n
}
