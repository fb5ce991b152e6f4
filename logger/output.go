package logger

// OutputCategory defines a category of output that can be enabled/disabled.
//
// Unlike log levels (which filter by severity), output categories control
// WHAT types of information are displayed.
type OutputCategory int

const (
	// Level 0 (default) - Always shown
	OutputResults    OutputCategory = iota // Generated text, explain results
	OutputErrors                           // Errors with hints
	OutputUserStatus                       // Final success/failure status

	// Level 1 (-v) - Informational
	OutputProgress      // Per-destination write messages
	OutputOperationInfo // Discovery and assembly summaries

	// Level 2 (-vv) - Detailed
	OutputTiming // Operation timing
	OutputConfig // Config values loaded/applied

	// Level 3 (-vvv) - Debug
	OutputInternalOp // Per-symbol translation flow

	// Level 4 (-vvvv) - Full dump
	OutputDataDump // Full descriptor contents
)

var categoryLevels = map[OutputCategory]int{
	OutputResults:    VerbosityUser,
	OutputErrors:     VerbosityUser,
	OutputUserStatus: VerbosityUser,

	OutputProgress:      VerbosityInfo,
	OutputOperationInfo: VerbosityInfo,

	OutputTiming: VerbosityDebug,
	OutputConfig: VerbosityDebug,

	OutputInternalOp: VerbosityTrace,

	OutputDataDump: VerbosityAll,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		// Unknown category, default to highest verbosity required
		return verbosity >= VerbosityAll
	}
	return verbosity >= minLevel
}
