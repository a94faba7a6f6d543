// Package progress keeps per-run task counters derived from run notices.
package progress
