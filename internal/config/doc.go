// Package config provides configuration structures and utilities for linkrank.
// It defines the solver parameters, storage locations and report preferences,
// and loads overrides from the .linkrank YAML file and the environment.
package config
