package logger

import (
	"go.uber.org/zap"
)

// Standard field names for structured logging across declgen.
const (
	FieldComponent = "component"
	FieldOperation = "operation"

	FieldPath   = "path"
	FieldFile   = "file"
	FieldSource = "source"
	FieldFormat = "format"

	FieldSymbol     = "symbol"
	FieldKind       = "kind"
	FieldType       = "type"
	FieldRule       = "rule"
	FieldSnapshotID = "snapshot_id"

	FieldCount      = "count"
	FieldDurationMS = "duration_ms"
	FieldError      = "error"
)

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
//	asm := typegen.NewAssembler(dialect, tr, logger.ComponentLogger("typegen"))
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
