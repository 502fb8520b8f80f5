// Package model contains the format-agnostic domain model for a fabric build:
// per-host input variables, the intermediate structured configuration, and the
// final rendered configuration. The inventory loader translates HCL into these
// types; every later stage consumes them without knowing where they came from.
package model
