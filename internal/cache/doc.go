// Package cache provides the least-recently-used cache backends use for
// memory the engine allocates on top of a native font service.
//
// Cache is safe for concurrent use and must not be copied after creation.
// Its bookkeeping can be measured with SizeOf, so backends can include it
// in memory reports.
package cache
