package contract

import (
	"os"

	"github.com/fatih/color"
)

// Match strength labels.
const (
	ExcellentValue = "Excellent" // Near-certain fit
	StrongValue    = "Strong"    // Solid fit
	FairValue      = "Fair"      // Acceptable fit
	WeakValue      = "Weak"      // Marginal fit
)

// Color variables for console output.
var (
	ExcellentColor = color.New(color.FgGreen, color.Bold) // excellentColor signals a top match.
	StrongColor    = color.New(color.FgCyan)              // strongColor signals a solid match.
	FairColor      = color.New(color.FgYellow)            // fairColor signals standard caution.
	WeakColor      = color.New(color.FgRed)               // weakColor signals a marginal match.
)

// GetPlainLabel returns a plain text label for a match score in [0,1].
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(score float64) string {
	switch {
	case score >= 0.8:
		return ExcellentValue
	case score >= 0.6:
		return StrongValue
	case score >= 0.4:
		return FairValue
	default:
		return WeakValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
// It uses GetPlainLabel to determine the string, then applies the color.
func GetColorLabel(score float64) string {
	text := GetPlainLabel(score)

	switch text {
	case ExcellentValue:
		return ExcellentColor.Sprint(text)
	case StrongValue:
		return StrongColor.Sprint(text)
	case FairValue:
		return FairColor.Sprint(text)
	default: // "Weak"
		return WeakColor.Sprint(text)
	}
}

// SelectOutputFile returns the file handle for output based on the provided
// path, falling back to stdout when the path is empty.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// TruncateName truncates a display name to a maximum width with an ellipsis
// suffix. Requires maxWidth > 3 so there is room for the ellipsis.
func TruncateName(name string, maxWidth int) string {
	runes := []rune(name)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return name
}
