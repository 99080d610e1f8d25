// Package quality assesses and repairs residual problems in a normalized
// table.
//
// The Analyzer computes missing-value, duplicate, and outlier statistics
// and a weighted 0-100 quality score. The Cleaner is a linear stage
// pipeline, Raw -> MissingHandled -> Deduplicated -> OutliersHandled ->
// Clean, where every stage takes an immutable table and returns a new one
// plus append-only audit entries. Stages are idempotent and may be
// skipped individually, but they always run in this order because later
// stages depend on earlier output: outlier bounds, for instance, are
// recomputed from the deduplicated state.
//
// Both passes may run any number of times over the same table; nothing in
// this package mutates a table in place.
package quality
