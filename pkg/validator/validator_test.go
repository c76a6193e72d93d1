package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("user@example.com"))
	assert.True(t, ValidateEmail("ivan.petrov+tag@mail.ru"))

	assert.False(t, ValidateEmail(""))
	assert.False(t, ValidateEmail("user"))
	assert.False(t, ValidateEmail("user@"))
	assert.False(t, ValidateEmail("@example.com"))
}

func TestValidatePhone(t *testing.T) {
	assert.True(t, ValidatePhone("+79991234567"))
	assert.True(t, ValidatePhone("8 (999) 123-45-67"))

	assert.False(t, ValidatePhone(""))
	assert.False(t, ValidatePhone("123"))
	assert.False(t, ValidatePhone("abc"))
}

func TestFormatPhone(t *testing.T) {
	assert.Equal(t, "+79991234567", FormatPhone("+7 (999) 123-45-67"))
	assert.Equal(t, "+79991234567", FormatPhone("79991234567"))
}

func TestValidateOTPCode(t *testing.T) {
	assert.True(t, ValidateOTPCode("123456"))
	assert.False(t, ValidateOTPCode("12345"))
	assert.False(t, ValidateOTPCode("12345a"))
}

func TestFormatName(t *testing.T) {
	assert.Equal(t, "Иван", FormatName("иван"))
	assert.Equal(t, "Anna Maria", FormatName("  anna   MARIA "))
}
