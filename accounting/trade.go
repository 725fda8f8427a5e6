package accounting

import (
	"math"
	"time"
)

// Trade is a filled auction order. Size is signed: positive buys,
// negative sells. Commission is attached once by the broker.
type Trade struct {
	Price      float64
	Size       float64
	Symbol     string
	Time       time.Time
	Commission float64
	Meta       Meta
}

// WithCommission returns a copy of t carrying the given commission.
func (t Trade) WithCommission(c float64) Trade {
	t.Commission = c
	t.Meta = t.Meta.Clone()
	return t
}

// Notional is price times signed size.
func (t Trade) Notional() float64 {
	return t.Price * t.Size
}

// CashCost is the cash leaving the account for this trade, commission
// included. It is negative for sales.
func (t Trade) CashCost() float64 {
	return t.Notional() + t.Commission
}

// CommissionPerShare spreads the commission over the traded shares.
func (t Trade) CommissionPerShare() float64 {
	if t.Size == 0 {
		return 0
	}
	return math.Abs(t.Commission / t.Size)
}

func (t Trade) IsBuy() bool { return t.Size > 0 }

func (t Trade) Row() Row {
	r := Row{
		NumberField("price", t.Price),
		NumberField("size", t.Size),
		StringField("symbol", t.Symbol),
		TimeField("date", t.Time),
		NumberField("commission", t.Commission),
	}
	return AppendMeta(r, "", t.Meta)
}

// Lot is one open tranche of a position, kept for cost basis.
type Lot struct {
	Price              float64
	Size               float64
	Symbol             string
	Time               time.Time
	CommissionPerShare float64
	Meta               Meta
}

// CostBasisPerShare includes the per-share commission paid on entry.
func (l Lot) CostBasisPerShare() float64 {
	return l.Price + l.CommissionPerShare
}

func (l Lot) CashCost() float64 {
	return l.CostBasisPerShare() * l.Size
}

func (l Lot) Row() Row {
	r := Row{
		NumberField("price", l.Price),
		NumberField("size", l.Size),
		StringField("symbol", l.Symbol),
		TimeField("date", l.Time),
		NumberField("commission_per_share", l.CommissionPerShare),
	}
	return AppendMeta(r, "", l.Meta)
}

// Gain is a realized capital gain or loss from closing all or part of a
// lot. Size is always positive; Short marks a closed short lot.
type Gain struct {
	OpenPrice               float64
	ClosePrice              float64
	Size                    float64
	Short                   bool
	Symbol                  string
	OpenTime                time.Time
	CloseTime               time.Time
	OpenCommissionPerShare  float64
	CloseCommissionPerShare float64
	OpenMeta                Meta
	CloseMeta               Meta
}

// Amount is the realized gain net of commissions on both legs.
func (g Gain) Amount() float64 {
	move := g.ClosePrice - g.OpenPrice
	if g.Short {
		move = -move
	}
	return (move - g.OpenCommissionPerShare - g.CloseCommissionPerShare) * g.Size
}

func (g Gain) Row() Row {
	r := Row{
		NumberField("open_price", g.OpenPrice),
		NumberField("close_price", g.ClosePrice),
		NumberField("size", g.Size),
		StringField("side", side(g.Short)),
		StringField("symbol", g.Symbol),
		TimeField("open_date", g.OpenTime),
		TimeField("close_date", g.CloseTime),
		NumberField("open_commission_per_share", g.OpenCommissionPerShare),
		NumberField("close_commission_per_share", g.CloseCommissionPerShare),
		NumberField("gain", g.Amount()),
	}
	r = AppendMeta(r, "open_", g.OpenMeta)
	return AppendMeta(r, "close_", g.CloseMeta)
}

func side(short bool) string {
	if short {
		return "short"
	}
	return "long"
}
