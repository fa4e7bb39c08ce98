package service

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CredentialChecker hides how team passcodes are stored and compared
type CredentialChecker interface {
	// Hash turns a passcode into its stored form
	Hash(passcode string) (string, error)
	// Verify reports whether given matches the stored form
	Verify(stored, given string) bool
}

// PlaintextChecker stores passcodes as-is
type PlaintextChecker struct{}

func (PlaintextChecker) Hash(passcode string) (string, error) {
	return passcode, nil
}

func (PlaintextChecker) Verify(stored, given string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

// BcryptChecker stores bcrypt hashes
type BcryptChecker struct {
	Cost int
}

func (c BcryptChecker) Hash(passcode string) (string, error) {
	cost := c.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (BcryptChecker) Verify(stored, given string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
}

// NewCredentialChecker returns the checker for a PASSCODE_HASHING mode
func NewCredentialChecker(mode string) (CredentialChecker, error) {
	switch mode {
	case "", "plain":
		return PlaintextChecker{}, nil
	case "bcrypt":
		return BcryptChecker{}, nil
	default:
		return nil, fmt.Errorf("unknown passcode hashing mode %q", mode)
	}
}
