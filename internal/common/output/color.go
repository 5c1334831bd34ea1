// Package output provides colored terminal output helpers.
package output

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

var (
	// Package state colors
	Installed = color.New(color.FgGreen)
	Available = color.New(color.FgBlue)
	Masked    = color.New(color.FgRed)
	Overlay   = color.New(color.FgMagenta)
	Unread    = color.New(color.FgYellow, color.Bold)

	// Message colors
	Success = color.New(color.FgGreen)
	Warning = color.New(color.FgYellow)
	Error   = color.New(color.FgRed)
	Info    = color.New(color.FgCyan)
	Dim     = color.New(color.Faint)

	// Structural colors
	Header  = color.New(color.FgWhite, color.Bold)
	Package = color.New(color.FgBlue, color.Bold)
)

// NoColor disables color output
func NoColor() {
	color.NoColor = true
}

// ForceColor enables color output even when not a TTY
func ForceColor() {
	color.NoColor = false
}

// IsTerminal returns true if stdout is a terminal
func IsTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	Success.Printf("✓ "+format+"\n", args...)
}

// PrintError prints an error message to stderr
func PrintError(format string, args ...interface{}) {
	Error.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...interface{}) {
	Warning.Printf("⚠ "+format+"\n", args...)
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...interface{}) {
	Info.Printf("→ "+format+"\n", args...)
}

// FormatPackage formats a package atom with color
func FormatPackage(category, name string) string {
	if category != "" {
		return Package.Sprintf("%s/%s", category, name)
	}
	return Package.Sprint(name)
}

// FormatInstallState renders the installed/available marker for listings
func FormatInstallState(installed bool) string {
	if installed {
		return Installed.Sprint("[I]")
	}
	return Dim.Sprint("[ ]")
}

// FormatReadState renders the read/unread marker for news and advisories
func FormatReadState(read bool) string {
	if read {
		return Dim.Sprint(" ")
	}
	return Unread.Sprint("N")
}

// Sprintf returns a colored string without printing
func Sprintf(c *color.Color, format string, args ...interface{}) string {
	return c.Sprintf(format, args...)
}

// Printf prints with color
func Printf(c *color.Color, format string, args ...interface{}) {
	c.Printf(format, args...)
}

// Println prints with color and newline
func Println(c *color.Color, a ...interface{}) {
	c.Println(a...)
}

// Plain prints without any color handling
func Plain(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}
