package ledger

import "github.com/govalues/money"

// epsilonMinor is the balance check tolerance in minor units (0.01 EUR).
const epsilonMinor = 1

// Zero returns a zero amount in curr.
func Zero(curr string) money.Amount {
    a, err := money.NewAmountFromMinorUnits(curr, 0)
    if err != nil {
        return money.Amount{}
    }
    return a
}

// Epsilon returns 0.01 in curr.
func Epsilon(curr string) money.Amount {
    a, err := money.NewAmountFromMinorUnits(curr, epsilonMinor)
    if err != nil {
        return money.MustNewAmount(curr, 1, 2)
    }
    return a
}

// WithinEpsilon reports whether |a-b| < 0.01.
func WithinEpsilon(a, b money.Amount) bool {
    d, err := a.Sub(b)
    if err != nil {
        return false
    }
    diff, err := d.Abs().Sub(Epsilon(a.Curr().Code()))
    if err != nil {
        return false
    }
    return diff.Sign() < 0
}

// Equal reports whether two amounts have the same value regardless of scale.
func Equal(a, b money.Amount) bool {
    d, err := a.Sub(b)
    return err == nil && d.IsZero()
}

// FitsMinorUnits reports whether a has no digits below the currency's minor unit.
func FitsMinorUnits(a money.Amount) bool {
    units, ok := a.MinorUnits()
    if !ok {
        return false
    }
    back, err := money.NewAmountFromMinorUnits(a.Curr().Code(), units)
    if err != nil {
        return false
    }
    return Equal(a, back)
}

// FormatAmount renders an amount as a plain decimal string ("121.00").
func FormatAmount(a money.Amount) string { return a.Decimal().String() }

// ParseAmount parses a decimal string in curr.
func ParseAmount(curr, s string) (money.Amount, error) { return money.ParseAmount(curr, s) }
