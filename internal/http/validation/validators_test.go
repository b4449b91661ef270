package validation

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequired(t *testing.T) {
	v := Required("Email", 10)

	assert.Equal(t, "Email is required.", v(""))
	assert.Equal(t, "Email is required.", v("   "))
	assert.Equal(t, "Email cannot exceed 10 characters.", v("12345678901"))
	assert.Empty(t, v("a@b.com"))
}

func TestMinLen(t *testing.T) {
	v := MinLen("Password", 6)

	assert.Equal(t, "Password must be at least 6 characters long.", v("five5"))
	assert.Empty(t, v("sixsix"))
	assert.Empty(t, v("sevense"))
}

func TestEmail(t *testing.T) {
	v := Email("Email")

	tests := []struct {
		input string
		valid bool
	}{
		{"a@b.com", true},
		{"first.last@sub.example.org", true},
		{"", false},
		{"plain", false},
		{"a@b", false},
		{"a b@c.com", false},
		{"a@b c.com", false},
	}
	for _, tt := range tests {
		msg := v(tt.input)
		if tt.valid {
			assert.Empty(t, msg, "input %q", tt.input)
		} else {
			assert.NotEmpty(t, msg, "input %q", tt.input)
		}
	}
}

func TestMatches(t *testing.T) {
	v := Matches("secret1", "Passwords do not match.")

	assert.Empty(t, v("secret1"))
	assert.Equal(t, "Passwords do not match.", v("secret2"))
}

func TestPositiveAmount(t *testing.T) {
	v := PositiveAmount("Amount")

	assert.Empty(t, v("10"))
	assert.Empty(t, v("0.50"))
	assert.Equal(t, "Amount must be greater than zero.", v("0"))
	assert.Equal(t, "Amount must be greater than zero.", v("-3"))
	assert.Equal(t, "Amount must be a number.", v("ten"))
}

func TestPattern(t *testing.T) {
	v := Pattern("Code", regexp.MustCompile(`^\d{4}$`))

	assert.Empty(t, v(""))
	assert.Empty(t, v("1234"))
	assert.Equal(t, "Code has an invalid format.", v("12a4"))
}

func TestValidate_FirstFailurePerField(t *testing.T) {
	errs := Validate(
		Field{Name: "email", Value: "", Checks: []Validator{Email("Email")}},
		Field{Name: "password", Value: "ok1234", Checks: []Validator{MinLen("Password", 6)}},
	)

	assert.Len(t, errs, 1)
	assert.Equal(t, "Email is required.", errs["email"])
}

func TestValidate_EmptyMeansValid(t *testing.T) {
	errs := Validate(
		Field{Name: "email", Value: "a@b.com", Checks: []Validator{Email("Email")}},
	)

	assert.Empty(t, errs)
}
