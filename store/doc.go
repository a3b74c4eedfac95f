// Package store provides repository implementations of core.Repository.
//
// InMemory keeps everything in process maps guarded by one mutex, which makes
// every operation (including AppendExchange and cascading deletes) atomic. It
// backs tests and the default CLI configuration. The sqlite subpackage
// provides the durable implementation.
package store
