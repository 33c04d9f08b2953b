package console

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the start-up banner.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text, color string
	}{
		{"   ___  __ _  __| | ___ _ __   ___ ___", "#818cf8"},
		{"  / __|/ _` |/ _` |/ _ \\ '_ \\ / __/ _ \\", "#a78bfa"},
		{" | (__| (_| | (_| |  __/ | | | (_|  __/", "#c084fc"},
		{"  \\___|\\__,_|\\__,_|\\___|_| |_|\\___\\___|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
