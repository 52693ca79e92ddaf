package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// AlphDecimals is the number of decimals of ALPH (1 ALPH = 10^18 attoALPH).
const AlphDecimals int32 = 18

// MaxAmountAlphDigits is the number of integer digits amount_alph NUMERIC(38, 18)
// can hold.
const MaxAmountAlphDigits = 20

var (
	ErrAmountNotPositive = errors.New("must be greater than 0")
	ErrAmountTooLarge    = fmt.Errorf("must be less than 1e%d", MaxAmountAlphDigits)
	ErrAmountTooPrecise  = fmt.Errorf("must have at most %d decimal places", AlphDecimals)
)

// CheckAmountAlph bounds a requested ALPH amount. It only looks at the digit
// count and exponent before any rescaling, so an input like 1e10000000 is
// rejected without being expanded.
func CheckAmountAlph(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrAmountNotPositive
	}

	digits := amount.NumDigits()
	exp := int(amount.Exponent())
	// amount < 10^(digits+exp)
	if digits+exp > MaxAmountAlphDigits {
		return ErrAmountTooLarge
	}
	// fewer digits than the excess scale means a nonzero digit sits past it
	if -exp-int(AlphDecimals) > digits || !HasPrecision(amount, AlphDecimals) {
		return ErrAmountTooPrecise
	}
	return nil
}

// ToBaseUnits converts a human amount to the integer string used on chain.
// Digits beyond the token precision are truncated.
func ToBaseUnits(amount decimal.Decimal, decimals int32) string {
	return amount.Shift(decimals).Truncate(0).String()
}

// FromBaseUnits converts an on-chain integer amount back to a human amount.
func FromBaseUnits(value string, decimals int32) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid base unit amount %q: %w", value, err)
	}
	if !amount.Equal(amount.Truncate(0)) {
		return decimal.Zero, fmt.Errorf("base unit amount %q is not an integer", value)
	}
	return amount.Shift(-decimals), nil
}

// HasPrecision reports whether amount fits into the given number of decimals.
func HasPrecision(amount decimal.Decimal, decimals int32) bool {
	return amount.Equal(amount.Truncate(decimals))
}

// TargetAmount is the number of target tokens owed for amountAlph at rate,
// truncated to what the token can represent.
func TargetAmount(amountAlph, rate decimal.Decimal, decimals int32) decimal.Decimal {
	return amountAlph.Mul(rate).Truncate(decimals)
}
