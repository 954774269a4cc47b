package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cloud-it/template-app-configurator/internal/config"
)

const statusWidth = len(StatusGenerated)

// Reporter renders a human-readable run summary. It never alters outcomes.
type Reporter struct {
	styles  map[Status]lipgloss.Style
	heading lipgloss.Style
	w       io.Writer
}

// New creates a Reporter writing to w. Styling degrades to plain text when
// w is not a terminal.
func New(w io.Writer) *Reporter {
	r := lipgloss.NewRenderer(w)
	return &Reporter{
		w:       w,
		heading: r.NewStyle().Bold(true),
		styles: map[Status]lipgloss.Style{
			StatusUpdated:   r.NewStyle().Foreground(lipgloss.Color("2")),
			StatusGenerated: r.NewStyle().Foreground(lipgloss.Color("2")),
			StatusUnchanged: r.NewStyle().Faint(true),
			StatusSkipped:   r.NewStyle().Foreground(lipgloss.Color("3")),
			StatusFailed:    r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		},
	}
}

// Render writes the per-phase outcomes followed by the project overview.
func (r *Reporter) Render(cfg config.ProjectConfig, summary Summary) error {
	p := &printer{w: r.w}

	phase := ""
	for _, o := range summary.Outcomes {
		if o.Phase != phase {
			if phase != "" {
				p.println("")
			}
			phase = o.Phase
			p.println(r.heading.Render(phase))
		}
		label := r.styles[o.Status].Render(string(o.Status)) + strings.Repeat(" ", statusWidth-len(o.Status))
		if o.Err != nil {
			p.printf("  %s %s: %v\n", label, o.Path, o.Err)
			continue
		}
		p.printf("  %s %s\n", label, o.Path)
	}

	p.println("")
	p.println(r.heading.Render("Project summary"))
	p.printf("  Name:     %s\n", cfg.Project.DisplayName)
	p.printf("  Domain:   %s\n", cfg.Domain.Base)
	p.printf("  Brand:    %s\n", cfg.Branding.Name)
	p.printf("  Database: %s\n", cfg.DatabaseName())
	p.println("")
	p.printf("%d updated, %d unchanged, %d skipped, %d generated, %d failed\n",
		summary.Counts[StatusUpdated],
		summary.Counts[StatusUnchanged],
		summary.Counts[StatusSkipped],
		summary.Counts[StatusGenerated],
		summary.Counts[StatusFailed],
	)
	if summary.DryRun {
		p.println("dry run: no files were written")
	}
	return p.err
}

// printer remembers the first write error so Render can report it once.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) println(s string) {
	p.printf("%s\n", s)
}
