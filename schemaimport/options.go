package schemaimport

// Options describes the inputs required to construct a Config instance.
type Options struct {
	// WorkingDir is the base directory used to resolve relative paths.
	WorkingDir string
	// TblsConfigPath is the path to .tbls.yml / tbls.yml resolved from CLI or defaults.
	TblsConfigPath string
	// SchemaJSONPath is the path to the tbls-generated schema.json file.
	SchemaJSONPath string
	// Include patterns to apply after decoding. Same wildcard semantics as the pull command.
	Include []string
	// Exclude patterns to apply after decoding.
	Exclude []string
	// Verbose toggles detailed logging.
	Verbose bool
	// Logger, when non-nil, is used for verbose logging.
	Logger func(format string, args ...any)
}
