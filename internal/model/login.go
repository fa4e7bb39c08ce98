package model

import "time"

// LoginEvent is one entry of the login audit log
type LoginEvent struct {
	ID       string    `json:"id"`
	TeamCode string    `json:"teamCode"`
	Time     time.Time `json:"time"`
	IP       string    `json:"ip"`
}
