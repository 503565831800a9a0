package forms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navaex/portal/internal/schema"
)

func TestIsVisible(t *testing.T) {
	boolRule := &schema.Field{Name: "email", ShowIf: &schema.ShowIf{Field: "hasEmail", Equals: true}}
	strRule := &schema.Field{Name: "iban", ShowIf: &schema.ShowIf{Field: "payout", Equals: "bank"}}
	noRule := &schema.Field{Name: "fullName"}

	tests := []struct {
		name  string
		field *schema.Field
		state FormState
		want  bool
	}{
		{"no rule is always visible", noRule, FormState{}, true},
		{"bool rule met", boolRule, FormState{"hasEmail": true}, true},
		{"bool rule unmet", boolRule, FormState{"hasEmail": false}, false},
		{"bool rule controlling absent", boolRule, FormState{}, false},
		{"bool rule wrong shape", boolRule, FormState{"hasEmail": "true"}, false},
		{"string rule met", strRule, FormState{"payout": "bank"}, true},
		{"string rule unmet", strRule, FormState{"payout": "cash"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsVisible(tt.field, tt.state))
		})
	}
}

func TestValidateHiddenRequiredFieldIsExempt(t *testing.T) {
	svc := &schema.Service{
		Fields: []schema.Field{
			{Name: "hasEmail", Type: schema.TypeBoolean},
			{Name: "email", Type: schema.TypeEmail, Required: true,
				ShowIf: &schema.ShowIf{Field: "hasEmail", Equals: true}},
		},
	}
	// controlling field false => email hidden => empty email passes
	res := Validate(svc, FormState{"hasEmail": false})
	assert.True(t, res.OK)

	// controlling field true => email required again
	res = Validate(svc, FormState{"hasEmail": true})
	require.False(t, res.OK)
	assert.Equal(t, "email", res.MissingField)
}

func TestValidateReportsLabelOfFirstMissingField(t *testing.T) {
	svc := &schema.Service{
		Fields: []schema.Field{
			{Name: "fullName", Label: "Full name", Type: schema.TypeString, Required: true},
			{Name: "phone", Label: "Phone", Type: schema.TypeTel, Required: true},
		},
	}
	res := Validate(svc, FormState{"phone": "09120000000"})
	require.False(t, res.OK)
	assert.Equal(t, "Full name", res.MissingField)
}

func TestValidateEmptyShapes(t *testing.T) {
	svc := &schema.Service{
		Fields: []schema.Field{
			{Name: "curs", Type: schema.TypeMultiselect, Required: true},
		},
	}
	assert.False(t, Validate(svc, FormState{}).OK)
	assert.False(t, Validate(svc, FormState{"curs": []string{}}).OK)
	assert.True(t, Validate(svc, FormState{"curs": []string{"usd"}}).OK)
}

func TestValidateZeroAndFalseAreValues(t *testing.T) {
	svc := &schema.Service{
		Fields: []schema.Field{
			{Name: "qty", Type: schema.TypeNumber, Required: true},
			{Name: "agree", Type: schema.TypeBoolean, Required: true},
		},
	}
	res := Validate(svc, FormState{"qty": float64(0), "agree": false})
	assert.True(t, res.OK)
}

func TestCoerce(t *testing.T) {
	svc := &schema.Service{
		Fields: []schema.Field{
			{Name: "fullName", Type: schema.TypeString},
			{Name: "qty", Type: schema.TypeNumber},
			{Name: "agree", Type: schema.TypeBoolean},
			{Name: "curs", Type: schema.TypeMultiselect},
			{Name: "receipt", Type: schema.TypeFile},
		},
	}

	state, err := Coerce(svc, map[string]any{
		"fullName": "Sara",
		"qty":      "4",
		"agree":    true,
		"curs":     []any{"usd", "eur"},
		"receipt":  "https://cdn.example/r/1.jpg",
		"ignored":  "dropped silently",
	})
	require.NoError(t, err)
	assert.Equal(t, "Sara", state["fullName"])
	assert.Equal(t, float64(4), state["qty"])
	assert.Equal(t, true, state["agree"])
	assert.Equal(t, []string{"usd", "eur"}, state["curs"])
	assert.NotContains(t, state, "ignored")

	_, err = Coerce(svc, map[string]any{"qty": "not a number"})
	assert.Error(t, err)

	_, err = Coerce(svc, map[string]any{"agree": "yes"})
	assert.Error(t, err)

	_, err = Coerce(svc, map[string]any{"curs": []any{1, 2}})
	assert.Error(t, err)
}
