// Package trial contains the simulation core: one trial is a fixed-length run
// of uniform draws over four outcome categories. It never imports pipeline,
// progress, cli or app; keep it domain-only.
package trial
