package utils

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var ErrIncorrectPassword = errors.New("incorrect password")

// ComparePass checks password against a stored hash. Besides our own argon2
// format it accepts the bcrypt hashes written by the previous Node server,
// so an existing users collection keeps working.
func ComparePass(password, hashPassword string) error {
	if strings.HasPrefix(hashPassword, "$2") {
		if err := bcrypt.CompareHashAndPassword([]byte(hashPassword), []byte(password)); err != nil {
			return ErrIncorrectPassword
		}
		return nil
	}

	parts := strings.Split(hashPassword, ".")
	if len(parts) != 2 {
		return errors.New("invalid hash format")
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return errors.New("invalid hash salt")
	}
	hash, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return errors.New("invalid hash value")
	}

	computed := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	if len(hash) != len(computed) {
		return ErrIncorrectPassword
	}
	if subtle.ConstantTimeCompare(hash, computed) != 1 {
		return ErrIncorrectPassword
	}
	return nil
}
