// Package extract turns OCR'd pick-list pages into validated medication
// records.
//
// A page runs through a fixed pipeline:
//
//	rows := detection.ClusterRows(tokens, tol)
//	layout := detection.ResolveColumns(rows, ...)  // or line mode on full text
//	candidates := Assembler.Assemble(rows, layout, headerEnd)
//	Disambiguate(candidates, opts)                 // pick = max - current
//	records := Validator.Validate(candidates, fullText)
//	records = Normalizer.Apply(records)
//
// Engine wires the stages together and ExtractBatch runs many pages with
// bounded parallelism before merging them into one pick list. The package
// performs no I/O; OCR and reference lookups live in sibling packages.
package extract
