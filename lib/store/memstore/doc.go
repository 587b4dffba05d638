// Package memstore implements store.IStore in memory. It backs the development
// server started with `skv serve`.
//
// Buckets and keys live in nested xsync.MapOf maps. Every write takes a new value
// from a store-wide write index; the index of a key's last write is its vclock.
// A put carrying the current vclock replaces the stored value, a put with a stale
// or missing vclock is treated as concurrent and appended as a sibling.
package memstore
