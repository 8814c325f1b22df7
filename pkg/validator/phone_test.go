package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidPhone(t *testing.T) {
	valid := []string{
		"+11234567890",
		"1234567890",
		"123-456-7890",
		"(123) 456-7890",
		"123.456.7890",
		"+44 123 456 7890",
	}
	for _, v := range valid {
		assert.True(t, IsValidPhone(v), v)
	}

	invalid := []string{
		"",
		"12345",
		"phone",
		"123-45-67890",
		"++11234567890",
	}
	for _, v := range invalid {
		assert.False(t, IsValidPhone(v), v)
	}
}
