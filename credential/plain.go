// Package credential provides pixo.Credentials implementations.
package credential

import "crypto/subtle"

// Plain stores passwords as given and compares them in constant time.
// Hardening the stored form is out of scope; swap in another
// pixo.Credentials implementation to hash.
type Plain struct{}

// Prepare returns password unchanged.
func (Plain) Prepare(password string) (string, error) {
	return password, nil
}

// Match reports whether supplied equals stored.
func (Plain) Match(stored, supplied string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}
