package auth

import "golang.org/x/crypto/bcrypt"

// MinPasswordLength is enforced when registering editor accounts.
const MinPasswordLength = 4

// HashPassword derives a bcrypt hash for storing alongside the user record.
// Editor sessions are long-lived, so DefaultCost is enough here.
func HashPassword(plain string) (string, error) {
	if len(plain) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches the stored bcrypt hash.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
