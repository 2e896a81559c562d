package money

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type moneyJSON struct {
	Number       string `json:"number"`
	CurrencyCode string `json:"currency_code"`
}

// MarshalJSON encodes the amount as a decimal string to keep storage and
// transport exact. An empty Money encodes as null.
func (m Money) MarshalJSON() ([]byte, error) {
	if m.IsEmpty() {
		return []byte("null"), nil
	}
	return json.Marshal(moneyJSON{
		Number:       m.amount.String(),
		CurrencyCode: m.currencyCode,
	})
}

// UnmarshalJSON decodes the wire form produced by MarshalJSON. A null
// value decodes to the empty Money.
func (m *Money) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Money{}
		return nil
	}
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(raw.Number)
	if err != nil {
		return ErrInvalidAmount
	}
	m.amount = amount
	m.currencyCode = raw.CurrencyCode
	return nil
}
