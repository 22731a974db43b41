// Package pipeline fans a fixed number of trials out over worker goroutines
// and folds every finished trial into the shared aggregate state.
//
// The only contract a progress sink has to implement is Reporter
// (MaybeReport). This keeps the pipeline swappable and testable.
package pipeline
