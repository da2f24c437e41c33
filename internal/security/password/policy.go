package password

import (
	"fmt"
	"strings"
	"unicode"
)

// Policy de fortaleza. La usa el CLI al hashear passwords nuevos;
// el login nunca valida política (solo compara hashes).
type Policy struct {
	MinLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool
}

// PolicyError lista los motivos de rechazo ("too_short", "missing_digit", ...).
type PolicyError struct {
	Reasons []string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("password policy: %s", strings.Join(e.Reasons, ", "))
}

// Check retorna nil o un *PolicyError.
func (p Policy) Check(s string) error {
	var reasons []string
	if len([]rune(s)) < p.MinLength {
		reasons = append(reasons, "too_short")
	}
	var upper, lower, digit, symbol bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			symbol = true
		}
	}
	for _, req := range []struct {
		on, has bool
		reason  string
	}{
		{p.RequireUpper, upper, "missing_upper"},
		{p.RequireLower, lower, "missing_lower"},
		{p.RequireDigit, digit, "missing_digit"},
		{p.RequireSymbol, symbol, "missing_symbol"},
	} {
		if req.on && !req.has {
			reasons = append(reasons, req.reason)
		}
	}
	if len(reasons) > 0 {
		return &PolicyError{Reasons: reasons}
	}
	return nil
}
