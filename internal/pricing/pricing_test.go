package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navaex/portal/internal/forms"
	"github.com/navaex/portal/internal/schema"
)

var testTable = RateTable{
	"USD": {Buy: 1000, Sell: 1000},
	"EUR": {Buy: 1200, Sell: 1250},
}

func TestPriceFor(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int64
	}{
		{"sell markup", "USD-SELL", 1100},
		{"buy discount", "USD-BUY", 900},
		{"sell rounds to nearest", "EUR-SELL", 1375},
		{"malformed no dash", "USD", 0},
		{"malformed extra part", "USD-SELL-X", 0},
		{"unknown code", "GBP-SELL", 0},
		{"unknown direction", "USD-MID", 0},
		{"empty", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PriceFor(tt.value, testTable))
		})
	}
}

func TestComputeTotalBaseFeeOnly(t *testing.T) {
	svc := &schema.Service{
		BaseFee: 5000,
		Fields: []schema.Field{
			{Name: "cur", Type: schema.TypeSelect, PriceCondition: schema.PriceCurrency,
				Options: []schema.Option{{Key: "USD-SELL", Value: "USD-SELL"}}},
		},
	}
	total := ComputeTotal(svc, forms.FormState{}, testTable)
	assert.True(t, total.Equal(decimal.NewFromInt(5000)), "got %s", total)
}

func TestComputeTotalQuantityTimesCurrency(t *testing.T) {
	// baseFee 5000, qty 3, USD-SELL at 1100 => 5000 + 3300
	svc := &schema.Service{
		BaseFee: 5000,
		Fields: []schema.Field{
			{Name: "qty", Type: schema.TypeNumber, PriceCondition: schema.PriceNumber},
			{Name: "cur", Type: schema.TypeSelect, PriceCondition: schema.PriceCurrency,
				Options: []schema.Option{{Key: "USD-SELL", Value: "USD-SELL"}}},
		},
	}
	state := forms.FormState{"qty": float64(3), "cur": "USD-SELL"}
	total := ComputeTotal(svc, state, testTable)
	assert.True(t, total.Equal(decimal.NewFromInt(8300)), "got %s", total)
}

func TestComputeTotalMultiselectSum(t *testing.T) {
	svc := &schema.Service{
		BaseFee: 0,
		Fields: []schema.Field{
			{Name: "usdAmount", Type: schema.TypeNumber},
			{Name: "curs", Type: schema.TypeMultiselect, PriceCondition: schema.PriceCurrency,
				Options: []schema.Option{
					{Key: "usd", Value: "USD-SELL", MultiplierField: "usdAmount"},
					{Key: "eur", Value: "EUR-BUY"},
				}},
		},
	}
	// usd: 1100 * 5 (own multiplier field), eur: round(1200*0.9)=1080 * 1 (base)
	state := forms.FormState{"curs": []string{"usd", "eur"}, "usdAmount": float64(5)}
	total := ComputeTotal(svc, state, testTable)
	assert.True(t, total.Equal(decimal.NewFromInt(5500+1080)), "got %s", total)
}

func TestComputeTotalAccountFee(t *testing.T) {
	svc := &schema.Service{
		BaseFee: 1000,
		Fields: []schema.Field{
			{Name: "plan", Type: schema.TypeSelect, PriceCondition: schema.PriceAccountFee,
				Options: []schema.Option{
					{Key: "basic", Value: "2500"},
					{Key: "broken", Value: "not-a-number"},
				}},
		},
	}
	total := ComputeTotal(svc, forms.FormState{"plan": "basic"}, testTable)
	assert.True(t, total.Equal(decimal.NewFromInt(3500)), "got %s", total)

	// unparsable fee value contributes 0, not 1
	total = ComputeTotal(svc, forms.FormState{"plan": "broken"}, testTable)
	assert.True(t, total.Equal(decimal.NewFromInt(1000)), "got %s", total)
}

func TestComputeTotalIgnoresNonSelectPricedFields(t *testing.T) {
	svc := &schema.Service{
		BaseFee: 700,
		Fields: []schema.Field{
			{Name: "note", Type: schema.TypeString, PriceCondition: schema.PriceCurrency},
		},
	}
	total := ComputeTotal(svc, forms.FormState{"note": "USD-SELL"}, testTable)
	assert.True(t, total.Equal(decimal.NewFromInt(700)), "got %s", total)
}

func TestComputeTotalUnknownOptionKey(t *testing.T) {
	svc := &schema.Service{
		BaseFee: 100,
		Fields: []schema.Field{
			{Name: "cur", Type: schema.TypeSelect, PriceCondition: schema.PriceCurrency,
				Options: []schema.Option{{Key: "USD-SELL", Value: "USD-SELL"}}},
		},
	}
	total := ComputeTotal(svc, forms.FormState{"cur": "GBP-SELL"}, testTable)
	assert.True(t, total.Equal(decimal.NewFromInt(100)), "got %s", total)
}

func TestComputeTotalMultiplierBaseFromSelectOption(t *testing.T) {
	// The number-tagged field is itself a select; the chosen option's
	// value becomes the multiplier base.
	svc := &schema.Service{
		BaseFee: 0,
		Fields: []schema.Field{
			{Name: "bundle", Type: schema.TypeSelect, PriceCondition: schema.PriceNumber,
				Options: []schema.Option{{Key: "twin", Value: "2"}}},
			{Name: "cur", Type: schema.TypeSelect, PriceCondition: schema.PriceCurrency,
				Options: []schema.Option{{Key: "USD-BUY", Value: "USD-BUY"}}},
		},
	}
	state := forms.FormState{"bundle": "twin", "cur": "USD-BUY"}
	total := ComputeTotal(svc, state, testTable)
	assert.True(t, total.Equal(decimal.NewFromInt(1800)), "got %s", total)
}

func TestComputeTotalMultiplierDefaultsToOne(t *testing.T) {
	svc := &schema.Service{
		BaseFee: 0,
		Fields: []schema.Field{
			{Name: "qty", Type: schema.TypeNumber, PriceCondition: schema.PriceNumber},
			{Name: "cur", Type: schema.TypeSelect, PriceCondition: schema.PriceCurrency,
				Options: []schema.Option{{Key: "USD-SELL", Value: "USD-SELL"}}},
		},
	}
	// qty holds an unparsable string, so the base falls back to 1
	state := forms.FormState{"qty": "lots", "cur": "USD-SELL"}
	total := ComputeTotal(svc, state, testTable)
	assert.True(t, total.Equal(decimal.NewFromInt(1100)), "got %s", total)
}

func TestComputeTotalIsPure(t *testing.T) {
	svc := &schema.Service{
		BaseFee: 5000,
		Fields: []schema.Field{
			{Name: "qty", Type: schema.TypeNumber, PriceCondition: schema.PriceNumber},
			{Name: "cur", Type: schema.TypeSelect, PriceCondition: schema.PriceCurrency,
				Options: []schema.Option{{Key: "USD-SELL", Value: "USD-SELL"}}},
		},
	}
	state := forms.FormState{"qty": float64(3), "cur": "USD-SELL"}
	first := ComputeTotal(svc, state, testTable)
	second := ComputeTotal(svc, state, testTable)
	require.True(t, first.Equal(second))
}

func TestComputeTotalEmptyRateTable(t *testing.T) {
	// A price computed before the first rate fetch resolves uses
	// zero-valued currency contributions.
	svc := &schema.Service{
		BaseFee: 5000,
		Fields: []schema.Field{
			{Name: "cur", Type: schema.TypeSelect, PriceCondition: schema.PriceCurrency,
				Options: []schema.Option{{Key: "USD-SELL", Value: "USD-SELL"}}},
		},
	}
	total := ComputeTotal(svc, forms.FormState{"cur": "USD-SELL"}, RateTable{})
	assert.True(t, total.Equal(decimal.NewFromInt(5000)), "got %s", total)
}
