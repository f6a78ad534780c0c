package util

import "github.com/fatih/color"

var colorsOptions = map[string]color.Attribute{
	"red":       color.FgHiRed,
	"green":     color.FgGreen,
	"cyan":      color.FgCyan,
	"underline": color.Underline,
	"bold":      color.Bold,
	"faint":     color.Faint,
}

// ColorOutput wraps text in ANSI escape codes for the given options.
// Unknown options are ignored.
func ColorOutput(text string, colorOptions ...string) string {
	attributes := []color.Attribute{}
	for _, option := range colorOptions {
		if o, ok := colorsOptions[option]; ok {
			attributes = append(attributes, o)
		}
	}
	c := color.New(attributes...)
	return c.Sprint(text)
}
