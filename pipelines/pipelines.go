// Package pipelines embeds the built-in pipeline definitions.
package pipelines

import "embed"

// FS holds the built-in definitions.
//
//go:embed *.yaml
var FS embed.FS

// ValidationURL locates the startup validation pipeline inside FS.
const ValidationURL = "embed:///validation.yaml"

// Validation is the raw startup validation pipeline document.
//
//go:embed validation.yaml
var Validation []byte

// ValidationInput is the sample intake document the validation pipeline runs
// with when no input is supplied.
//
//go:embed validation_input.json
var ValidationInput []byte
