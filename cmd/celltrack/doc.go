// Command celltrack runs the cell lineage tracker over a segmented time-lapse
// described as YAML (or JSON) and prints a summary of tracks, divisions and eliminations.
//
//	celltrack run --input sequence.yaml --config tracker.toml --algorithm optimal
//	celltrack config
package main
