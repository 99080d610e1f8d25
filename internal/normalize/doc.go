// Package normalize turns one raw spreadsheet grid into a clean, leveled
// table.
//
// The source documents are irregular multi-section survey exports:
// bilingual headers preceded by metadata rows, numbered footnotes below
// the data, suppressed-value markers (".." and "-"), parenthesized
// low-reliability values, error-margin rows marked with "±", and nested
// category hierarchies whose section totals already include their
// descendant rows.
//
// The pipeline runs in four steps, leaves first:
//
//   - locator.go: DetectAnchorRow finds the true header row below the
//     leading metadata rows.
//   - cells.go: NormalizeCell parses one raw cell into a typed value plus
//     quality flags.
//   - classifier.go: ClassifyRow decides, per row, whether to keep it and
//     at what hierarchy level. Classification is a pure function of the
//     row's own label and cells.
//   - assembler.go: Assemble combines classified rows into an immutable
//     domain.NormalizedTable, preserving source order and annotating
//     checksum mismatches.
//
// BuildTable wires the steps together for one grid. All heuristics
// consult config.PipelineConfig, so the matching policy stays swappable
// without touching control flow.
package normalize
