package monitor

import "time"

type Status struct {
	PostgreSQL   bool      `json:"postgresql"`
	Redis        bool      `json:"redis"`
	RedisEnabled bool      `json:"redis_enabled"`
	LastCheck    time.Time `json:"last_check"`
}

// Healthy reports whether every configured dependency answered its last ping.
func (s Status) Healthy() bool {
	return s.PostgreSQL && (!s.RedisEnabled || s.Redis)
}
