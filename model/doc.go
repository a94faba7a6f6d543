// Package model contains the declarative representation of a gated pipeline:
// the ordered task list, the executor profiles tasks refer to and the
// optional terminal handoff. Definitions are typically loaded from YAML by
// the pipeline loader, or assembled programmatically with NewPipeline.
//
// Everything in this package is immutable once the pipeline has been handed
// to a processor.
package model
