package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	integralCharsMessage   = "Invalid characters. Use only numbers, x, and basic operators (+, -, *, /, ^, parentheses) or functions (sin, cos, tan, log, ln, exp, sqrt, abs)"
	parametricCharsMessage = "Invalid characters. Use only numbers, t, and basic operators (+, -, *, /, ^, parentheses)"
	polarCharsMessage      = "Invalid characters. Use only numbers, x (for θ), and basic operators (+, -, *, /, ^, parentheses)"
	requiredMessage        = "Expression is required"
	tooLongMessage         = "Expression too long (max 500 characters)"
)

// Longest names first so "sqrt" is not eaten as "s" + "qrt" by a shorter match.
var functionNames = regexp.MustCompile(`sqrt|sin|cos|tan|log|exp|abs|ln`)

var (
	integralChars   = regexp.MustCompile(`^[0-9x+\-*/^().\s]*$`)
	parametricChars = regexp.MustCompile(`^[0-9t+\-*/^().\s]*$`)
	polarChars      = regexp.MustCompile(`^[0-9x+\-*/^().\s]*$`)
)

// IntegralExpression accepts an empty value; the solve gate reports blank input separately.
func IntegralExpression(raw string) Result {
	expr := strings.TrimSpace(raw)
	if expr == "" {
		return pass()
	}
	if utf8.RuneCountInString(expr) > MaxExpressionLength {
		return fail(tooLongMessage)
	}
	if !integralChars.MatchString(stripFunctions(expr)) {
		return fail(integralCharsMessage)
	}
	return pass()
}

func ParametricExpression(raw string) Result {
	expr := strings.TrimSpace(raw)
	if expr == "" {
		return fail(requiredMessage)
	}
	if utf8.RuneCountInString(expr) > MaxExpressionLength {
		return fail(tooLongMessage)
	}
	if !parametricChars.MatchString(stripFunctions(expr)) {
		return fail(parametricCharsMessage)
	}
	return pass()
}

// PolarExpression validates one polar function. The inner curve may be left
// blank (required=false); the outer one may not.
func PolarExpression(raw string, required bool) Result {
	expr := strings.TrimSpace(raw)
	if expr == "" {
		if required {
			return fail(requiredMessage)
		}
		return pass()
	}
	if utf8.RuneCountInString(expr) > MaxExpressionLength {
		return fail(tooLongMessage)
	}
	expr = strings.NewReplacer("theta", "x", "θ", "x").Replace(expr)
	if !polarChars.MatchString(stripFunctions(expr)) {
		return fail(polarCharsMessage)
	}
	return pass()
}

func stripFunctions(expr string) string {
	return functionNames.ReplaceAllString(expr, " ")
}
