package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Numeric backend columns expect JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

// DefaultSimulatedBalance is credited to every newly added card
var DefaultSimulatedBalance = decimal.NewFromInt(500)

// Card brands
const (
	BrandVisa       = "Visa"
	BrandMastercard = "Mastercard"
)

// Card is a simulated payment instrument. The balance is not authoritative.
type Card struct {
	ID      string          `json:"id"`
	OwnerID string          `json:"usuario_id"`
	Number  string          `json:"numero_tarjeta"`
	Holder  string          `json:"titular"`
	Expiry  string          `json:"fecha_vencimiento"`
	Brand   string          `json:"tipo"`
	Balance decimal.Decimal `json:"saldo_simulado"`
}

// Last4 returns the last four digits of the card number
func (c Card) Last4() string {
	if len(c.Number) <= 4 {
		return c.Number
	}
	return c.Number[len(c.Number)-4:]
}

// Masked renders the card for display, e.g. "VISA •••• 4242"
func (c Card) Masked() string {
	brand := c.Brand
	if brand == "" {
		brand = GuessBrand(c.Number)
	}
	return strings.ToUpper(brand) + " •••• " + c.Last4()
}

// Covers reports whether the simulated balance can pay price
func (c Card) Covers(price decimal.Decimal) bool {
	return !c.Balance.LessThan(price)
}

// GuessBrand derives a brand from the leading digit
func GuessBrand(number string) string {
	if strings.HasPrefix(number, "4") {
		return BrandVisa
	}
	return BrandMastercard
}

// NewCard is the insert payload for a simulated card
type NewCard struct {
	OwnerID string          `json:"usuario_id"`
	Number  string          `json:"numero_tarjeta"`
	Holder  string          `json:"titular"`
	Expiry  string          `json:"fecha_vencimiento"`
	CVV     string          `json:"cvv"`
	Brand   string          `json:"tipo"`
	Balance decimal.Decimal `json:"saldo_simulado"`
}
