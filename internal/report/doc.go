// Package report defines per-file outcomes of a customization run and
// renders them as a human-readable summary.
package report
