// Package config defines the immutable SheetConfig that drives sheet layout,
// rendering and the directory scan, and loads it from defaults, an optional
// JSON or YAML file and environment overrides.
//
// A SheetConfig is loaded once per run and passed by value to every
// component; nothing mutates it while sheets are being built.
package config
