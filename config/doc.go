// Package config assembles a comparison run's tunables into one validated
// Config, following the teacher's builder.BuilderOption functional-options
// pattern (builder/config.go): New applies defaults, then each Option in
// order, then validates before returning.
package config
