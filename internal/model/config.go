package model

// GlobalConfig is the singleton runtime switchboard
type GlobalConfig struct {
	LoginEnabled bool `json:"loginEnabled" bson:"loginEnabled"`
}

// DefaultGlobalConfig is written when no config snapshot exists yet
func DefaultGlobalConfig() GlobalConfig {
	return GlobalConfig{LoginEnabled: true}
}
