// Package config defines the settings shared by the gravity binaries and
// provides helpers to load, validate and save them in YAML format.
//
// Values read from the YAML file can be overridden by GRAVITY_* environment
// variables. Countdown timing is fixed and is not part of the settings.
package config
