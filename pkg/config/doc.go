// Package config loads application configuration with viper.
//
// Boot reads config/config.yaml (or .json, .toml) under the application
// base directory, merges config/config.local.* and config/config.<env>.*
// over it when present, and finally applies LIGHTMVC_* environment
// variables:
//
//	cfg, err := config.Boot(".")
//	if err != nil {
//		return err
//	}
//	fmt.Println(cfg.Address, cfg.Get("app.title"))
//
// Sections the framework understands decode into typed fields. Anything
// else is available through Get, and ForControllers returns the subset
// controllers are allowed to read.
package config
