// Package storage provides durable stores for the profile cache and the log of classified entries.
// SQL stores are built on engine.SQL and keep rows per origin (engine group id) in the same database,
// the redis store keeps cache entries under prefixed keys.
// Each table is represented by a struct with methods working with the table for this data type.
package storage
