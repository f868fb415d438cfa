// Package currency converts between major-unit amounts and the minor-unit
// integers the ledger computes with, and renders minor units for display.
package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Info describes one supported currency.
type Info struct {
	Code   string `json:"code"`
	Label  string `json:"label"`
	Symbol string `json:"symbol"`

	// FractionDigits is the number of minor-unit digits. JPY, VND and IDR
	// have no fractional unit in practice.
	FractionDigits int `json:"fractionDigits"`
}

var supported = []Info{
	{Code: "INR", Label: "Indian Rupee", Symbol: "₹", FractionDigits: 2},
	{Code: "CNY", Label: "Chinese Yuan", Symbol: "¥", FractionDigits: 2},
	{Code: "USD", Label: "US Dollar", Symbol: "$", FractionDigits: 2},
	{Code: "EUR", Label: "Euro", Symbol: "€", FractionDigits: 2},
	{Code: "IDR", Label: "Indonesian Rupiah", Symbol: "Rp", FractionDigits: 0},
	{Code: "PKR", Label: "Pakistani Rupee", Symbol: "₨", FractionDigits: 2},
	{Code: "NGN", Label: "Nigerian Naira", Symbol: "₦", FractionDigits: 2},
	{Code: "BRL", Label: "Brazilian Real", Symbol: "R$", FractionDigits: 2},
	{Code: "BDT", Label: "Bangladeshi Taka", Symbol: "৳", FractionDigits: 2},
	{Code: "RUB", Label: "Russian Ruble", Symbol: "₽", FractionDigits: 2},
	{Code: "MXN", Label: "Mexican Peso", Symbol: "$", FractionDigits: 2},
	{Code: "JPY", Label: "Japanese Yen", Symbol: "¥", FractionDigits: 0},
	{Code: "ETB", Label: "Ethiopian Birr", Symbol: "Br", FractionDigits: 2},
	{Code: "PHP", Label: "Philippine Peso", Symbol: "₱", FractionDigits: 2},
	{Code: "EGP", Label: "Egyptian Pound", Symbol: "E£", FractionDigits: 2},
	{Code: "VND", Label: "Vietnamese Dong", Symbol: "₫", FractionDigits: 0},
	{Code: "CDF", Label: "Congolese Franc", Symbol: "FC", FractionDigits: 2},
	{Code: "IRR", Label: "Iranian Rial", Symbol: "﷼", FractionDigits: 2},
	{Code: "TRY", Label: "Turkish Lira", Symbol: "₺", FractionDigits: 2},
	{Code: "THB", Label: "Thai Baht", Symbol: "฿", FractionDigits: 2},
}

var byCode = func() map[string]Info {
	m := make(map[string]Info, len(supported))
	for _, c := range supported {
		m[c.Code] = c
	}
	return m
}()

// Supported returns the currency table in display order.
func Supported() []Info {
	out := make([]Info, len(supported))
	copy(out, supported)
	return out
}

// Lookup returns the Info for a 3-letter code.
func Lookup(code string) (Info, bool) {
	c, ok := byCode[strings.ToUpper(code)]
	return c, ok
}

// IsSupported reports whether code is in the currency table.
func IsSupported(code string) bool {
	_, ok := Lookup(code)
	return ok
}

// fractionDigits falls back to 2 for codes outside the table so that stale
// data with an unknown currency still renders.
func fractionDigits(code string) int {
	if c, ok := Lookup(code); ok {
		return c.FractionDigits
	}
	return 2
}

// ToMinor converts a major-unit amount to minor units, rounding half away
// from zero on sub-minor precision (e.g. "0.005" USD -> 1 cent).
func ToMinor(major decimal.Decimal, code string) int64 {
	d := fractionDigits(code)
	return major.Shift(int32(d)).Round(0).IntPart()
}

// ToMinorFloat converts a client-supplied float major amount to minor units.
func ToMinorFloat(major float64, code string) int64 {
	return ToMinor(decimal.NewFromFloat(major), code)
}

// FromMinor converts minor units back to an exact major-unit decimal.
func FromMinor(minor int64, code string) decimal.Decimal {
	return decimal.New(minor, -int32(fractionDigits(code)))
}

// Format renders minor units for display, e.g. (4250, "USD") -> "$42.50".
// Negative amounts carry a leading sign: "-$7.01". No digit grouping is
// applied so that Parse can round-trip the output.
func Format(minor int64, code string) string {
	d := fractionDigits(code)
	sym := code
	if c, ok := Lookup(code); ok {
		sym = c.Symbol
	}
	v := FromMinor(minor, code)
	if v.IsNegative() {
		return fmt.Sprintf("-%s%s", sym, v.Neg().StringFixed(int32(d)))
	}
	return fmt.Sprintf("%s%s", sym, v.StringFixed(int32(d)))
}

// Parse reads a formatted or plain amount string back into minor units.
// It accepts output of Format as well as bare numbers like "42.5".
// More fractional digits than the currency carries is an error rather than a
// silent rounding, since parsed input feeds the authoritative integers.
func Parse(s, code string) (int64, error) {
	d := fractionDigits(code)

	str := strings.TrimSpace(s)
	neg := strings.HasPrefix(str, "-")
	str = strings.TrimPrefix(str, "-")
	if c, ok := Lookup(code); ok {
		str = strings.TrimPrefix(str, c.Symbol)
	} else {
		// Format falls back to the code itself as the symbol.
		str = strings.TrimPrefix(str, code)
	}
	str = strings.TrimSpace(str)
	if str == "" {
		return 0, fmt.Errorf("empty amount")
	}

	v, err := decimal.NewFromString(str)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	shifted := v.Shift(int32(d))
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has more than %d fractional digits", s, d)
	}
	minor := shifted.IntPart()
	if neg {
		minor = -minor
	}
	return minor, nil
}
