// Package unit converts between wei and ether display strings without
// going through floating point.
package unit

import (
	"errors"
	"math/big"
	"strings"
)

// EtherDecimals is the scale between wei and ether.
const EtherDecimals = 18

var ErrInvalidAmount = errors.New("invalid amount")

// FromWei formats a wei amount as an ether string. Trailing fractional zeros
// are trimmed, so 2500000000000000000 becomes "2.5" and 1e18 becomes "1".
func FromWei(wei *big.Int) string {
	return FormatDecimal(wei, EtherDecimals)
}

// ToWei parses an ether string such as "0.1" into wei.
func ToWei(ether string) (*big.Int, error) {
	return ParseDecimal(ether, EtherDecimals)
}

// FormatDecimal renders amount scaled down by 10^decimals.
func FormatDecimal(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}
	if amount.Sign() < 0 {
		return "-" + FormatDecimal(new(big.Int).Abs(amount), decimals)
	}

	str := amount.String()
	if decimals <= 0 {
		return str
	}
	if len(str) <= decimals {
		str = strings.Repeat("0", decimals-len(str)+1) + str
	}

	point := len(str) - decimals
	intPart, fracPart := str[:point], strings.TrimRight(str[point:], "0")
	if fracPart == "" {
		return intPart
	}
	return intPart + "." + fracPart
}

// ParseDecimal is the inverse of FormatDecimal for non-negative amounts.
// More fractional digits than decimals is an error rather than a silent
// truncation.
func ParseDecimal(amount string, decimals int) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" || strings.HasPrefix(amount, "-") || strings.HasPrefix(amount, "+") {
		return nil, ErrInvalidAmount
	}

	intPart, fracPart, hasPoint := strings.Cut(amount, ".")
	if hasPoint && fracPart == "" && intPart == "" {
		return nil, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	if !isDigits(intPart) || !isDigits(fracPart) || len(fracPart) > decimals {
		return nil, ErrInvalidAmount
	}

	fracPart += strings.Repeat("0", decimals-len(fracPart))
	result, ok := new(big.Int).SetString(intPart+fracPart, 10)
	if !ok {
		return nil, ErrInvalidAmount
	}
	return result, nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
