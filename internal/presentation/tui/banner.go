package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"                               __ _",
	"  ___ _   _ _ ____   _____ _  / _| | _____      __",
	" / __| | | | '__\\ \\ / / _ \\ | | |_| |/ _ \\ \\ /\\ / /",
	" \\__ \\ |_| | |   \\ V /  __/ |_|  _| | (_) \\ V  V /",
	" |___/\\__,_|_|    \\_/ \\___|\\__, |_| |_|\\___/ \\_/\\_/",
	"                           |___/",
}

var bannerColors = []string{"#34d399", "#2dd4bf", "#22d3ee", "#38bdf8", "#60a5fa", "#818cf8"}

// PrintBanner writes the surveyflow banner to w, colored when the terminal
// supports it.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, termenv.String(line).Foreground(p.Color(bannerColors[i])))
	}
	fmt.Fprintln(w)
}
