package broker

import (
	"fmt"
	"math"

	"github.com/rustyeddy/daybook/accounting"
	"github.com/shopspring/decimal"
)

// CommissionFunc prices a fill. size is unsigned.
type CommissionFunc func(price, size float64, isBuy bool) float64

// NoCommission is the default policy.
func NoCommission(price, size float64, isBuy bool) float64 { return 0 }

var (
	discountPerShare = decimal.RequireFromString("0.005")
	discountMinimum  = decimal.NewFromInt(1)
	discountCapRate  = decimal.RequireFromString("0.01")
)

// DiscountCommission is a discount-broker schedule: $0.005 per share with a
// $1.00 minimum, capped at 1% of the trade value.
func DiscountCommission(price, size float64, isBuy bool) float64 {
	shares := decimal.NewFromFloat(math.Abs(size))
	fee := decimal.Max(discountMinimum, shares.Mul(discountPerShare))

	limit := shares.Mul(decimal.NewFromFloat(price)).Mul(discountCapRate)
	if limit.LessThan(fee) {
		fee = limit
	}
	f, _ := fee.Float64()
	return f
}

// CommissionByName resolves a configured commission schedule.
func CommissionByName(name string) (CommissionFunc, error) {
	switch name {
	case "", "none":
		return NoCommission, nil
	case "discount":
		return DiscountCommission, nil
	default:
		return nil, fmt.Errorf("unknown commission schedule %q", name)
	}
}

// Commission is the fee charged on one fill.
type Commission struct {
	Trade  accounting.Trade
	Amount float64
}

func (c Commission) Row() accounting.Row {
	t := c.Trade
	t.Commission = c.Amount
	return t.Row()
}
