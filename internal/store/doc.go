// ABOUTME: Package documentation for the store package
// ABOUTME: Explains the persistence layer and its SQLite implementation

// Package store provides persistence for gatekeep's user identity records
// and legacy sessions.
//
// The primary implementation is SQLiteStore, backed by modernc.org/sqlite
// with automatic schema creation. Uniqueness of email and provider ids is
// enforced by the database; violations surface as ErrDuplicateEmail and
// ErrDuplicateProviderID so callers can map them to conflict responses.
//
// MockStore offers an in-memory implementation of the same contracts for
// tests that don't need a real database.
package store
