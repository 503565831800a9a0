package schema

import (
	"fmt"
	"time"
)

// FieldType enumerates the input kinds a service form can declare.
type FieldType string

const (
	TypeString      FieldType = "string"
	TypeEmail       FieldType = "email"
	TypePassword    FieldType = "password"
	TypeTel         FieldType = "tel"
	TypeNumber      FieldType = "number"
	TypeTextarea    FieldType = "textarea"
	TypeSelect      FieldType = "select"
	TypeMultiselect FieldType = "multiselect"
	TypeBoolean     FieldType = "boolean"
	TypeDate        FieldType = "date"
	TypeFile        FieldType = "file"
)

// PriceCondition tags how a field contributes to the computed total.
type PriceCondition string

const (
	PriceNone       PriceCondition = "none"
	PriceCurrency   PriceCondition = "currency"
	PriceAccountFee PriceCondition = "accountFee"
	PriceNumber     PriceCondition = "number"
)

// Service status values.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusDraft    = "draft"
)

// Option is one selectable choice of a select/multiselect field.
// MultiplierField names another form field whose value multiplies this
// option's price contribution; empty means the service-level multiplier
// base applies.
type Option struct {
	Key             string `json:"key"`
	Value           string `json:"value"`
	MultiplierField string `json:"multiplierField,omitempty"`
}

// ShowIf hides a field unless the referenced field holds the given value.
type ShowIf struct {
	Field  string `json:"field"`
	Equals any    `json:"equals"`
}

// Field is one schema-declared input of a service form.
type Field struct {
	Name           string         `json:"name"`
	Label          string         `json:"label"`
	Type           FieldType      `json:"type"`
	Required       bool           `json:"required"`
	Placeholder    string         `json:"placeholder,omitempty"`
	Description    string         `json:"description,omitempty"`
	PriceCondition PriceCondition `json:"priceCondition"`
	Options        []Option       `json:"options,omitempty"`
	ShowIf         *ShowIf        `json:"showIf,omitempty"`
}

// Service is an administrator-defined offering with a dynamic field schema.
type Service struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	Slug                string    `json:"slug"`
	BaseFee             int64     `json:"baseFee"`
	WalletEligible      bool      `json:"walletEligible"`
	RequiresIdentity    bool      `json:"requiresIdentityValidation"`
	Status              string    `json:"status"`
	Fields              []Field   `json:"fields"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// Option returns the option with the given key, or nil.
func (f *Field) Option(key string) *Option {
	for i := range f.Options {
		if f.Options[i].Key == key {
			return &f.Options[i]
		}
	}
	return nil
}

// FieldByName returns the field with the given name, or nil.
func (s *Service) FieldByName(name string) *Field {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}

// MultiplierField returns the single field tagged priceCondition=number,
// or nil when the schema declares none.
func (s *Service) MultiplierField() *Field {
	for i := range s.Fields {
		if s.Fields[i].PriceCondition == PriceNumber {
			return &s.Fields[i]
		}
	}
	return nil
}

func validFieldType(t FieldType) bool {
	switch t {
	case TypeString, TypeEmail, TypePassword, TypeTel, TypeNumber,
		TypeTextarea, TypeSelect, TypeMultiselect, TypeBoolean, TypeDate, TypeFile:
		return true
	}
	return false
}

func validPriceCondition(p PriceCondition) bool {
	switch p {
	case PriceNone, PriceCurrency, PriceAccountFee, PriceNumber:
		return true
	}
	return false
}

// Validate checks a service schema before it is saved by the builder.
// Rules: unique non-empty field names, known type and priceCondition
// values, at most one priceCondition=number field, priced select fields
// must carry options, showIf must reference an existing field and must
// not form a cycle.
func (s *Service) Validate() error {
	if s.Title == "" {
		return fmt.Errorf("schema: title is required")
	}
	if s.Slug == "" {
		return fmt.Errorf("schema: slug is required")
	}
	if s.BaseFee < 0 {
		return fmt.Errorf("schema: baseFee must not be negative")
	}
	switch s.Status {
	case StatusActive, StatusInactive, StatusDraft:
	default:
		return fmt.Errorf("schema: unknown status %q", s.Status)
	}

	names := make(map[string]bool, len(s.Fields))
	numberFields := 0
	for i := range s.Fields {
		f := &s.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("schema: field %d has no name", i)
		}
		if names[f.Name] {
			return fmt.Errorf("schema: duplicate field name %q", f.Name)
		}
		names[f.Name] = true
		if !validFieldType(f.Type) {
			return fmt.Errorf("schema: field %q has unknown type %q", f.Name, f.Type)
		}
		if f.PriceCondition == "" {
			f.PriceCondition = PriceNone
		}
		if !validPriceCondition(f.PriceCondition) {
			return fmt.Errorf("schema: field %q has unknown priceCondition %q", f.Name, f.PriceCondition)
		}
		if f.PriceCondition == PriceNumber {
			numberFields++
		}
		priced := f.PriceCondition == PriceCurrency || f.PriceCondition == PriceAccountFee
		selectable := f.Type == TypeSelect || f.Type == TypeMultiselect
		if priced && selectable && len(f.Options) == 0 {
			return fmt.Errorf("schema: priced field %q needs at least one option", f.Name)
		}
	}
	if numberFields > 1 {
		return fmt.Errorf("schema: at most one field may carry priceCondition %q", PriceNumber)
	}

	for i := range s.Fields {
		f := &s.Fields[i]
		if f.ShowIf == nil {
			continue
		}
		if !names[f.ShowIf.Field] {
			return fmt.Errorf("schema: field %q showIf references unknown field %q", f.Name, f.ShowIf.Field)
		}
		if f.ShowIf.Field == f.Name {
			return fmt.Errorf("schema: field %q showIf references itself", f.Name)
		}
	}
	if cycle := s.showIfCycle(); cycle != "" {
		return fmt.Errorf("schema: showIf cycle through field %q", cycle)
	}
	return nil
}

// showIfCycle walks the showIf reference graph and returns the name of a
// field on a cycle, or "" when the graph is acyclic. Each field has at
// most one outgoing edge, so a plain walk with a visited set suffices.
func (s *Service) showIfCycle() string {
	next := make(map[string]string, len(s.Fields))
	for i := range s.Fields {
		if s.Fields[i].ShowIf != nil {
			next[s.Fields[i].Name] = s.Fields[i].ShowIf.Field
		}
	}
	for start := range next {
		seen := map[string]bool{start: true}
		cur := start
		for {
			n, ok := next[cur]
			if !ok {
				break
			}
			if seen[n] {
				return n
			}
			seen[n] = true
			cur = n
		}
	}
	return ""
}
