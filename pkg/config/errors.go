package config

import "errors"

var (
	ErrConfigNotFound = errors.New("config: configuration file not found")
	ErrInvalidConfig  = errors.New("config: invalid configuration")
)
