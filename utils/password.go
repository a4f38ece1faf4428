package utils

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"

	"github.com/cppla/tripjournal/config"
)

// HashPassword returns the bcrypt hash of the password using a cost that balances security and performance.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares the bcrypt hashed password with its possible plaintext equivalent.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// VerifyPasscode checks an admin passcode attempt. A configured bcrypt hash wins over
// the plain passcode; with neither configured every attempt fails.
func VerifyPasscode(cfg config.AppConfig, attempt string) bool {
	if attempt == "" {
		return false
	}
	if cfg.AdminPasscodeHash != "" {
		return CheckPassword(cfg.AdminPasscodeHash, attempt)
	}
	if cfg.AdminPasscode == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cfg.AdminPasscode), []byte(attempt)) == 1
}
