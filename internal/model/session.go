package model

import "time"

// Session binds an opaque token to a team. At most one live session exists per team.
type Session struct {
	Token     string    `json:"token" bson:"token"`
	TeamCode  string    `json:"teamCode" bson:"teamCode"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
