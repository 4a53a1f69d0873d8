// Package manifest reads and edits a product's pyproject.toml.
//
// Reads go through a strict TOML decode. Edits rewrite only the lines they
// own (the features array, the project name and version) so the rest of the
// file is preserved byte for byte.
package manifest
