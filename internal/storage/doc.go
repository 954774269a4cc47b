// Package storage provides the file-system capability the customization run
// works through: a rooted on-disk implementation with atomic writes, an
// in-memory implementation for tests, and a dry-run decorator.
package storage
