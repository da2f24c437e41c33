// Package util junta helpers chicos sin dueño claro.
package util

import "strings"

// MaskLogin oculta un login para logs: conserva la primera letra del usuario
// y, si es un email, la primera del dominio y el TLD.
//
//	alice@acme.test -> a…@a….test
//	alice           -> a…e
func MaskLogin(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	user, dom, isEmail := strings.Cut(s, "@")
	if !isEmail || user == "" {
		if len(s) <= 3 {
			return "***"
		}
		return s[:1] + "…" + s[len(s)-1:]
	}
	if len(user) > 1 {
		user = user[:1] + "…"
	}
	parts := strings.Split(dom, ".")
	if len(parts[0]) > 1 {
		parts[0] = parts[0][:1] + "…"
	}
	return user + "@" + strings.Join(parts, ".")
}
