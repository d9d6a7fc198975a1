package webserver

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Credentials is the static username to bcrypt-hash table the login
// handler checks against. Comparisons are hashed rather than the
// original plaintext equality; observable behavior is unchanged.
type Credentials map[string][]byte

// HashUsers builds a credential table from plaintext passwords.
func HashUsers(users map[string]string) (Credentials, error) {
	creds := make(Credentials, len(users))
	for name, password := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", name, err)
		}
		creds[name] = hash
	}
	return creds, nil
}

// DefaultCredentials returns the demo credential table (admin /
// password123).
func DefaultCredentials() (Credentials, error) {
	return HashUsers(map[string]string{"admin": "password123"})
}

// Verify reports whether the username and password match an entry.
func (c Credentials) Verify(username, password string) bool {
	hash, ok := c[username]
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
