package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailRejectsMalformedAddresses(t *testing.T) {
	for _, raw := range []string{"", "   ", "plain", "a@b", "a@b.c", "@example.com", "a b@example.com", "a@exa mple.com"} {
		assert.False(t, Email(raw).Valid, "expected %q to be rejected", raw)
	}
	assert.Equal(t, "Email address is required", Email("").Message)
	assert.Equal(t, "Please enter a valid email address", Email("nope").Message)
}

func TestEmailAcceptsCommonAddresses(t *testing.T) {
	for _, raw := range []string{"ada@example.com", " first.last+tag@sub.example.org ", "x_y%z@host.io"} {
		assert.True(t, Email(raw).Valid, "expected %q to be accepted", raw)
	}
}

func TestPasswordLengthBoundary(t *testing.T) {
	assert.False(t, Password("").Valid)
	assert.Equal(t, "Password is required", Password("").Message)
	assert.False(t, Password("1234567").Valid)
	assert.Equal(t, "Password must be at least 8 characters long", Password("short").Message)
	for _, raw := range []string{"12345678", "        ", "ñññññññññ", "!!!!!!!!"} {
		assert.True(t, Password(raw).Valid, "expected %q to be accepted", raw)
	}
}

func TestNameBounds(t *testing.T) {
	assert.Equal(t, "First name is required", Name("First name", "  ").Message)
	assert.True(t, Name("First name", strings.Repeat("a", 100)).Valid)
	assert.Equal(t, "Last name too long (max 100 characters)", Name("Last name", strings.Repeat("b", 101)).Message)
}

func TestIntegralExpressionAllowList(t *testing.T) {
	for _, raw := range []string{"", "x^2", "sin(x) + cos(x)", "sqrt(x)*exp(2x)", "ln(x)/abs(x - 1.5)", "tan(x)^3 - log(x)"} {
		assert.True(t, IntegralExpression(raw).Valid, "expected %q to be accepted", raw)
	}
	for _, raw := range []string{"y^2", "x & 1", "sinh(x)", "import os"} {
		r := IntegralExpression(raw)
		assert.False(t, r.Valid, "expected %q to be rejected", raw)
		assert.Equal(t, integralCharsMessage, r.Message)
	}
}

func TestParametricExpressionRequiresContent(t *testing.T) {
	assert.False(t, ParametricExpression(" ").Valid)
	assert.True(t, ParametricExpression("t^2 + 1").Valid)
	assert.True(t, ParametricExpression("cos(t)").Valid)
	assert.Equal(t, parametricCharsMessage, ParametricExpression("x + t").Message)
}

func TestPolarInnerMayBeBlank(t *testing.T) {
	assert.True(t, PolarExpression("", false).Valid)
	assert.False(t, PolarExpression("", true).Valid)
	assert.True(t, PolarExpression("2 + sin(theta)", true).Valid)
	assert.True(t, PolarExpression("5cos(x)", true).Valid)
	assert.Equal(t, polarCharsMessage, PolarExpression("r + 1", true).Message)
}

func TestExpressionTooLong(t *testing.T) {
	long := strings.Repeat("x+", 300)
	assert.Equal(t, tooLongMessage, IntegralExpression(long).Message)
}

func TestSignupReportsEveryFieldInOrder(t *testing.T) {
	errs := Signup(SignupForm{LastName: strings.Repeat("z", 101), Email: "bad", Password: "123"})
	require.Len(t, errs, 4)
	assert.Equal(t, "first_name", errs.FirstField())
	assert.Equal(t, "First name is required", errs.For("first_name"))
	assert.Equal(t, "Last name too long (max 100 characters)", errs.For("last_name"))
	assert.Equal(t, "Please enter a valid email address", errs.For("email"))
	assert.Equal(t, "Password must be at least 8 characters long", errs.For("password"))
}

func TestLoginFirstInvalidFieldIsPassword(t *testing.T) {
	errs := Login(LoginForm{Email: " ada@example.com ", Password: ""})
	require.Len(t, errs, 1)
	assert.Equal(t, "password", errs.FirstField())
	assert.Equal(t, "Password is required", errs.Map()["password"])
	assert.True(t, Login(LoginForm{Email: "ada@example.com", Password: "hunter22"}).Valid())
}

func TestResetRequiresMatchingConfirmation(t *testing.T) {
	errs := Reset(ResetForm{Password: "longenough"})
	assert.Equal(t, "Please confirm your password", errs.For("confirm"))
	errs = Reset(ResetForm{Password: "longenough", Confirm: "different1"})
	assert.Equal(t, "Passwords do not match", errs.For("confirm"))
	assert.True(t, Reset(ResetForm{Password: "longenough", Confirm: "longenough"}).Valid())
}

func TestPasswordChangeMessages(t *testing.T) {
	errs := PasswordChange(PasswordChangeForm{New: "short", Confirm: "short"})
	assert.Equal(t, "Current password is required", errs.For("current_password"))
	assert.Equal(t, "New password must be at least 8 characters", errs.For("new_password"))
	assert.Empty(t, errs.For("confirm_password"))
}

func TestProfileEmailMessage(t *testing.T) {
	errs := Profile(ProfileForm{FirstName: "Ada", LastName: "Lovelace"})
	assert.Equal(t, "Please enter a valid email address", errs.For("email"))
	assert.Equal(t, "email", errs.FirstField())
}
