// Package logging provides concrete implementations of the ftmgmt.Logger interface.
//
// ConsoleLogger writes human-readable lines to stderr, NullLogger discards
// everything, and ZapLogger emits structured JSON through go.uber.org/zap for
// runs driven by an orchestration system that collects machine-readable logs.
package logging
