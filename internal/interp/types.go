// Package interp implements the statement executor for rewind.
// Statements are JavaScript, evaluated by goja against a plain
// globals environment that the snapshot engine can copy and restore.
package interp

// Config holds configuration for the executor.
type Config struct {
	// Timeout in seconds for a single statement (default: 30).
	// Zero or negative disables the timeout.
	Timeout int

	// MaxOutputChars is the maximum characters of captured output
	// returned per statement (default: 8192)
	MaxOutputChars int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:        30,
		MaxOutputChars: 8192,
	}
}

// Result holds the outcome of one successfully evaluated statement.
type Result struct {
	// Output is everything print() and console.log() wrote during
	// evaluation. It is captured here so the caller can decide who
	// prints it, and print it exactly once.
	Output string

	// Echo is the formatted value of the final expression, empty when
	// the statement produced undefined or null.
	Echo string

	// Truncated indicates the output was cut at MaxOutputChars.
	Truncated bool
}
