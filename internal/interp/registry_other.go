//go:build !windows

package interp

// SystemRegistry returns a no-op registry on platforms without one.
func SystemRegistry() Registry { return NoRegistry{} }
