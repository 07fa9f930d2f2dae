package config

import "time"

type Config struct {
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"3s"`
	// пауза вне активного окна
	WindowIdleInterval time.Duration `envconfig:"WINDOW_IDLE_INTERVAL" default:"10s"`
	// зона, в которой задаётся окно HH:MM-HH:MM
	WindowLocation string        `envconfig:"WINDOW_TZ" default:"Local"`
	SaveTimeout    time.Duration `envconfig:"SAVE_TIMEOUT" default:"5s"`
}
