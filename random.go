package keyward

import "go.step.sm/crypto/randutil"

// Random returns n cryptographically random bytes.
func Random(n int) ([]byte, error) {
	return randutil.Salt(n)
}

// RandomHex returns a random hex string of the given length.
func RandomHex(length int) (string, error) {
	return randutil.Hex(length)
}
