// Package policy decides checkpoints without a human reviewer.
package policy
