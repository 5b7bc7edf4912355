package format

import "fmt"

// Pct renders a [0,1] accuracy as a percentage with one decimal, the
// precision used throughout the paper artifacts.
func Pct(v float64) string {
	return fmt.Sprintf("%.1f", v*100.0)
}

// SignedPP renders a percentage-point delta with an explicit sign.
func SignedPP(v float64) string {
	return fmt.Sprintf("%+.1f", v)
}

// Undefined is the console marker for groups with no samples.
const Undefined = "—"
