//go:build !darwin && !linux

package authctx

// Biometry returns a context that always fails with ErrUnsupported.
func Biometry() Context {
	return Func(func(string) error { return ErrUnsupported })
}
