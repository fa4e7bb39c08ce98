package model

import "github.com/golang-jwt/jwt/v5"

// AdminTier distinguishes the two administrative privilege levels
type AdminTier int

const (
	TierNone AdminTier = iota
	TierAdmin
	TierSuper
)

func (t AdminTier) String() string {
	switch t {
	case TierAdmin:
		return "admin"
	case TierSuper:
		return "super"
	default:
		return "none"
	}
}

// TicketClaims are JWT claims for short-lived admin websocket tickets
type TicketClaims struct {
	Tier string `json:"tier"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for team login
type LoginRequest struct {
	TeamCode string `json:"teamCode"`
	Passcode string `json:"passcode"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Success  bool   `json:"success"`
	Token    string `json:"token"`
	TeamName string `json:"teamName"`
}
