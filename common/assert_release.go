//go:build !xiangqidebug

package common

// assertInvariant is a no-op in release builds; see assert_debug.go.
func assertInvariant(cond bool, detail string) {}
