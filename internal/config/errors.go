package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrCommissionRateOutOfRange error if the default commission rate is not within [0, 1).
	ErrCommissionRateOutOfRange = errors.New("toml config commission.defaultrate must be in [0, 1)")
)
