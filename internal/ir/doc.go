// Package ir implements an in-memory, typed, control-flow-graph-based
// intermediate representation: construction through a mutator API,
// conversion to SSA form via dominance-frontier phi-insertion, and a
// fixed-point optimisation pipeline.
//
// The package assumes a single external collaborator (a C-like front end)
// that builds functions exclusively through the Mutator API in this
// package; ir itself never parses source text.
package ir
