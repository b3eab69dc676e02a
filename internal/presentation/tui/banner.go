package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	`  ___ _____   _____ _ __   __ _ _ __ | |_`,
	` / __/ _ \ \ / / _ \ '_ \ / _' | '_ \| __|`,
	`| (_| (_) \ V /  __/ | | | (_| | | | | |_`,
	` \___\___/ \_/ \___|_| |_|\__,_|_| |_|\__|`,
}

var bannerColors = []string{"#34d399", "#2dd4bf", "#22d3ee", "#38bdf8"}

// PrintBanner writes the covenant banner to w, colored when w supports it.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, out.String(line).Foreground(out.Color(bannerColors[i])))
	}
	fmt.Fprintln(w)
}
