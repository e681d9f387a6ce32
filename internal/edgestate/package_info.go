// Package edgestate holds the pipeline's shared mutable state: the consent tracker, the
// stored-state manager, and the once-per-process bootstrap that restores both from
// persistence.
package edgestate
