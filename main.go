// =============================================================================
// CSB 19 Generator - Main Entry Point
// =============================================================================
//
// USAGE:
//   csb19 generate   - Generate CSB 19 files for the input directory
//   csb19 validate   - Validate inputs and configuration without generating
//   csb19 layout     - Print or export the CSB 19 record layout
//   csb19 history    - List generated files recorded in the database
//   csb19 version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Core logic (records, encoder, csb19 generator, input)
//   - pkg/           : Shared file utilities
//   - presenters/    : One YAML configuration per presenting company
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/csb19-generator/cmd"
)

func main() {
	cmd.Execute()
}
