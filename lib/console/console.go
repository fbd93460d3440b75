package console

import (
	"fmt"
	"io"
	"os"

	"github.com/TwiN/go-color"
)

var (
	// Destination for regular output.
	Out io.Writer = os.Stdout
	// Destination for warnings and errors.
	Err io.Writer = os.Stderr

	verbose bool
)

// Enable or disable verbose output.
func SetVerbose(v bool) {
	verbose = v
}

// Returns true if verbose output is enabled.
func IsVerbose() bool {
	return verbose
}

// Log verbose message to console.
// Only printed when verbose output is enabled, either with `--verbose` or `VERBOSE=1`.
func Verbose(message string, vars ...any) {
	if !verbose {
		return
	}
	fmt.Fprintf(Out, color.Ize(color.Gray, message+"\n"), vars...)
}

// Log success message to console.
func Success(message string, vars ...any) {
	fmt.Fprintf(Out, color.Ize(color.Green, message+"\n"), vars...)
}

// Log info message to console.
func Info(message string, vars ...any) {
	fmt.Fprintf(Out, color.Ize(color.Cyan, message+"\n"), vars...)
}

// Log warning message to console.
func Warning(message string, vars ...any) {
	fmt.Fprintf(Err, color.Ize(color.Yellow, message+"\n"), vars...)
}

// Returns a red error message.
func Error(message string, vars ...any) error {
	return fmt.Errorf(color.Ize(color.Red, message), vars...)
}

// Log error message to console.
func ErrorPrint(message string, vars ...any) {
	fmt.Fprintf(Err, color.Ize(color.Red, message+"\n"), vars...)
}
