// Package tasks owns the redock workflow operations exposed by redockctl.
//
// Ownership boundary:
// - operation catalog and dispatch
// - ordered step sequences with short-circuit failure
// - test, docs, clean, reset and publish procedures
package tasks
