package backend

// Config is the optional shell configuration, decoded from YAML. The
// database path itself is positional on the command line.
type Config struct {
	// LogLevel is a logrus level name; empty means warn.
	LogLevel string `yaml:"log_level"`

	// LogFile, when set, sends diagnostics to a rotating file instead of
	// stderr so they never interleave with statement output.
	LogFile string `yaml:"log_file"`

	// LogMaxSizeMB caps the log file size before rotation.
	LogMaxSizeMB int `yaml:"log_max_size_mb"`
}
