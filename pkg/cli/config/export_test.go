package config

// NewLogger builds a Logger with explicit fields for tests
func NewLogger(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}
