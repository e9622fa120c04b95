package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the hivemesh banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.EnvColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{` _     _                                _     `, "#fbbf24"},
		{`| |__ (_)_   _____ _ __ ___   ___  ___| |__  `, "#f59e0b"},
		{`| '_ \| \ \ / / _ \ '_ ` + "`" + ` _ \ / _ \/ __| '_ \ `, "#f97316"},
		{`| | | | |\ V /  __/ | | | | |  __/\__ \ | | |`, "#ef4444"},
		{`|_| |_|_| \_/ \___|_| |_| |_|\___||___/_| |_|`, "#e11d48"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
