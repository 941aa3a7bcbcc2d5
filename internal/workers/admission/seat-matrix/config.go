// internal/workers/admission/seat-matrix/config.go
package seatmatrix

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
