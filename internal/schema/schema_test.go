package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validService() *Service {
	return &Service{
		Title:   "Currency purchase",
		Slug:    "currency-purchase",
		BaseFee: 5000,
		Status:  StatusActive,
		Fields: []Field{
			{Name: "qty", Type: TypeNumber, PriceCondition: PriceNumber},
			{Name: "cur", Type: TypeSelect, PriceCondition: PriceCurrency,
				Options: []Option{{Key: "USD-SELL", Value: "USD-SELL"}}},
		},
	}
}

func TestValidateOK(t *testing.T) {
	require.NoError(t, validService().Validate())
}

func TestValidateRejectsDuplicateFieldNames(t *testing.T) {
	svc := validService()
	svc.Fields = append(svc.Fields, Field{Name: "qty", Type: TypeString})
	assert.ErrorContains(t, svc.Validate(), "duplicate field name")
}

func TestValidateRejectsUnknownType(t *testing.T) {
	svc := validService()
	svc.Fields[0].Type = "checkbox"
	assert.ErrorContains(t, svc.Validate(), "unknown type")
}

func TestValidateRejectsSecondNumberField(t *testing.T) {
	svc := validService()
	svc.Fields = append(svc.Fields, Field{Name: "qty2", Type: TypeNumber, PriceCondition: PriceNumber})
	assert.ErrorContains(t, svc.Validate(), "at most one field")
}

func TestValidateRejectsPricedSelectWithoutOptions(t *testing.T) {
	svc := validService()
	svc.Fields[1].Options = nil
	assert.ErrorContains(t, svc.Validate(), "needs at least one option")
}

func TestValidateRejectsDanglingShowIf(t *testing.T) {
	svc := validService()
	svc.Fields[1].ShowIf = &ShowIf{Field: "missing", Equals: true}
	assert.ErrorContains(t, svc.Validate(), "unknown field")
}

func TestValidateRejectsShowIfCycle(t *testing.T) {
	svc := validService()
	svc.Fields = []Field{
		{Name: "a", Type: TypeBoolean, ShowIf: &ShowIf{Field: "b", Equals: true}},
		{Name: "b", Type: TypeBoolean, ShowIf: &ShowIf{Field: "a", Equals: true}},
	}
	assert.ErrorContains(t, svc.Validate(), "cycle")
}

func TestValidateAllowsShowIfChain(t *testing.T) {
	svc := validService()
	svc.Fields = []Field{
		{Name: "a", Type: TypeBoolean},
		{Name: "b", Type: TypeBoolean, ShowIf: &ShowIf{Field: "a", Equals: true}},
		{Name: "c", Type: TypeString, ShowIf: &ShowIf{Field: "b", Equals: true}},
	}
	assert.NoError(t, svc.Validate())
}

func TestValidateDefaultsEmptyPriceCondition(t *testing.T) {
	svc := validService()
	svc.Fields = append(svc.Fields, Field{Name: "note", Type: TypeTextarea})
	require.NoError(t, svc.Validate())
	assert.Equal(t, PriceNone, svc.FieldByName("note").PriceCondition)
}

func TestMultiplierField(t *testing.T) {
	svc := validService()
	require.NotNil(t, svc.MultiplierField())
	assert.Equal(t, "qty", svc.MultiplierField().Name)

	svc.Fields[0].PriceCondition = PriceNone
	assert.Nil(t, svc.MultiplierField())
}
