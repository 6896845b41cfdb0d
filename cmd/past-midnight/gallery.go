package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/past-midnight/pkg/module"
	"github.com/Veraticus/past-midnight/pkg/modules"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#2B2D6E")).
			Padding(0, 1)

	idStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	creditStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	optionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98")).
			PaddingLeft(4)
)

// printGallery writes the bundled modules and their options to w.
func printGallery(w io.Writer, entries []modules.Entry) {
	for i, e := range entries {
		if i > 0 {
			fmt.Fprintln(w)
		}
		md := e.Metadata

		header := titleStyle.Render(md.Icon+" "+md.Name) + " " + idStyle.Render(md.ID)
		fmt.Fprintln(w, header)
		if md.Description != "" {
			fmt.Fprintln(w, "  "+md.Description)
		}
		if credit := formatCredit(md); credit != "" {
			fmt.Fprintln(w, "  "+creditStyle.Render(credit))
		}
		for _, opt := range e.Options {
			fmt.Fprintln(w, optionStyle.Render(formatOption(opt)))
		}
	}
}

func formatCredit(md module.Metadata) string {
	switch {
	case md.Author != "" && md.Year > 0:
		return fmt.Sprintf("%s, %d", md.Author, md.Year)
	case md.Author != "":
		return md.Author
	case md.Year > 0:
		return fmt.Sprint(md.Year)
	}
	return ""
}

func formatOption(opt module.Option) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s): %v", opt.Label(), opt.Name, opt.Default)
	switch opt.Kind {
	case module.KindChoice:
		fmt.Fprintf(&b, " [%s]", strings.Join(opt.Choices, "|"))
	case module.KindNumber:
		if opt.Min < opt.Max {
			fmt.Fprintf(&b, " [%g-%g]", opt.Min, opt.Max)
		}
	}
	return b.String()
}
