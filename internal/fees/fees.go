package fees

import "github.com/shopspring/decimal"

// The split applied to every transaction: a flat 2% gateway charge on the
// subtotal plus 18% GST on that charge, folded into one factor, then 18% GST
// on the platform's retained margin net of the gateway fee.
var (
	gatewayFactor = decimal.RequireFromString("0.0236") // 0.02 + 0.18*0.02
	gstRate       = decimal.RequireFromString("0.18")
)

// Breakdown is the canonical monetary split derived from one transaction.
// Values are exact decimals; rounding is a presentation concern.
type Breakdown struct {
	GrossAmount          decimal.Decimal
	RestaurantReceivable decimal.Decimal
	PlatformFee          decimal.Decimal
	GatewayFee           decimal.Decimal
	GST                  decimal.Decimal
	NetEarnings          decimal.Decimal
}

// Derive computes the fee split from a transaction's subtotal and collected
// surcharge. It is a pure projection: same inputs, same outputs, no side
// effects. GST can go negative when the surcharge does not cover the gateway
// fee; the engine does not clamp it.
func Derive(subtotal, surcharge decimal.Decimal) Breakdown {
	gatewayFee := subtotal.Mul(gatewayFactor)
	gst := surcharge.Sub(gatewayFee).Mul(gstRate)
	net := surcharge.Sub(gst)

	return Breakdown{
		GrossAmount:          subtotal.Add(surcharge),
		RestaurantReceivable: subtotal,
		PlatformFee:          surcharge,
		GatewayFee:           gatewayFee,
		GST:                  gst,
		NetEarnings:          net,
	}
}
