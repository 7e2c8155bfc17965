package common

import (
	"strconv"
	"strings"
)

// Dollars formats an amount as a dollar figure with thousands grouping,
// keeping the requested number of decimal places: Dollars(11277, 0) is
// "$11,277" and Dollars(52300.5, 2) is "$52,300.50".
func Dollars(amount float64, decimals int) string {
	s := strconv.FormatFloat(amount, 'f', decimals, 64)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}

	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i := 0; i < len(intPart); i++ {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteByte(intPart[i])
	}

	out := "$" + sign + b.String()
	if hasFrac {
		out += "." + frac
	}
	return out
}
