package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidNationalID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"valid with small remainder", "1234567891", true},
		{"valid with large remainder", "0068999739", true},
		{"wrong check digit", "1234567890", false},
		{"all identical digits", "1111111111", false},
		{"too short", "123456789", false},
		{"too long", "12345678910", false},
		{"non-digit characters", "12345abc91", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidNationalID(tt.id))
		})
	}
}

func TestValidSheba(t *testing.T) {
	assert.True(t, ValidSheba("IR062960000000100324200001"))
	assert.False(t, ValidSheba("IR06296000000010032420000"))   // 23 digits
	assert.False(t, ValidSheba("IR0629600000001003242000011")) // 25 digits
	assert.False(t, ValidSheba("DE062960000000100324200001"))  // wrong country
	assert.False(t, ValidSheba("IR06296000000010032420000a"))
	assert.False(t, ValidSheba(""))
}
