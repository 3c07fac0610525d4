package elf

// Matches reports whether target is among the exported names. Exact, case
// sensitive equality only, no substring or glob semantics, so unrelated
// symbols sharing a prefix can never match. Stops at the first hit.
func Matches(exports []Symbol, target string) bool {
	for _, s := range exports {
		if s.Name == target {
			return true
		}
	}
	return false
}
