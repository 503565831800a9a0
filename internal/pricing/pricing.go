// Package pricing computes the payable total for a dynamic service form:
// a base fee plus per-field currency-linked and flat-fee contributions.
package pricing

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/navaex/portal/internal/forms"
	"github.com/navaex/portal/internal/schema"
)

// Rate holds the live buy/sell quotes for one currency code.
type Rate struct {
	Buy  float64
	Sell float64
}

// RateTable maps currency codes (e.g. "USD") to their current rates.
type RateTable map[string]Rate

var (
	sellMarkup  = decimal.NewFromFloat(1.1)
	buyDiscount = decimal.NewFromFloat(0.9)
)

// PriceFor resolves a "CODE-SELL" / "CODE-BUY" option value to an
// integer amount. Sell quotes carry a 10% markup, buy quotes a 10%
// discount, both rounded to the nearest whole unit. Malformed input and
// unknown codes resolve to 0.
func PriceFor(value string, table RateTable) int64 {
	parts := strings.Split(value, "-")
	if len(parts) != 2 {
		return 0
	}
	rate, ok := table[parts[0]]
	if !ok {
		return 0
	}
	switch parts[1] {
	case "SELL":
		return decimal.NewFromFloat(rate.Sell).Mul(sellMarkup).Round(0).IntPart()
	case "BUY":
		return decimal.NewFromFloat(rate.Buy).Mul(buyDiscount).Round(0).IntPart()
	}
	return 0
}

// ComputeTotal evaluates the full price of a filled service form. The
// function is pure: identical inputs always yield the identical total.
//
// The total is baseFee + currency subtotal + account-fee subtotal.
// Only select and multiselect fields contribute; a priced field of any
// other type, an unfilled field, and an unknown option key contribute
// nothing.
func ComputeTotal(svc *schema.Service, state forms.FormState, table RateTable) decimal.Decimal {
	base := multiplierBase(svc, state)

	currency := decimal.Zero
	accountFee := decimal.Zero
	for i := range svc.Fields {
		f := &svc.Fields[i]
		v := state[f.Name]
		if forms.IsEmpty(v) {
			continue
		}
		switch f.PriceCondition {
		case schema.PriceCurrency:
			for _, opt := range selectedOptions(f, v) {
				price := decimal.NewFromInt(PriceFor(opt.Value, table))
				currency = currency.Add(price.Mul(multiplierFor(opt, state, base)))
			}
		case schema.PriceAccountFee:
			for _, opt := range selectedOptions(f, v) {
				fee := decimal.NewFromFloat(parseFloatDefault(opt.Value, 0))
				accountFee = accountFee.Add(fee.Mul(multiplierFor(opt, state, base)))
			}
		}
	}

	return decimal.NewFromInt(svc.BaseFee).Add(currency).Add(accountFee)
}

// selectedOptions resolves the option(s) a field's current value points
// at. Only select and multiselect fields are priced.
func selectedOptions(f *schema.Field, v any) []*schema.Option {
	switch f.Type {
	case schema.TypeSelect:
		key, ok := v.(string)
		if !ok {
			return nil
		}
		if opt := f.Option(key); opt != nil {
			return []*schema.Option{opt}
		}
	case schema.TypeMultiselect:
		keys, ok := v.([]string)
		if !ok {
			return nil
		}
		opts := make([]*schema.Option, 0, len(keys))
		for _, key := range keys {
			if opt := f.Option(key); opt != nil {
				opts = append(opts, opt)
			}
		}
		return opts
	}
	return nil
}

// multiplierBase derives the service-level multiplier from the single
// priceCondition=number field: the selected option's value when the
// field is a select, otherwise the raw form value, defaulting to 1.
func multiplierBase(svc *schema.Service, state forms.FormState) decimal.Decimal {
	mf := svc.MultiplierField()
	if mf == nil {
		return decimal.NewFromInt(1)
	}
	v := state[mf.Name]
	if key, ok := v.(string); ok {
		if opt := mf.Option(key); opt != nil {
			return decimal.NewFromFloat(parseFloatDefault(opt.Value, 1))
		}
	}
	return decimal.NewFromFloat(rawFloatDefault(v, 1))
}

// multiplierFor picks the per-option multiplier: the parsed value of the
// option's multiplier field when one is declared, else the service base.
func multiplierFor(opt *schema.Option, state forms.FormState, base decimal.Decimal) decimal.Decimal {
	if opt.MultiplierField == "" {
		return base
	}
	return decimal.NewFromFloat(rawFloatDefault(state[opt.MultiplierField], 1))
}

func parseFloatDefault(s string, def float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}

func rawFloatDefault(v any, def float64) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		return parseFloatDefault(t, def)
	}
	return def
}
