// Package core defines the shared language of the leapmodel system.
//
// This package contains:
//   - Semantic model entities (Model, Table, Measure, CalculationItem)
//   - The Repository contract the batch operations are written against
//   - Run history entities and the Store interface
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
