package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/provost-dev/provost/internal/registry"
	"github.com/provost-dev/provost/internal/workflow"
)

var (
	colorGreen = lipgloss.Color("#22c55e")
	colorRed   = lipgloss.Color("#ef4444")
	colorBlue  = lipgloss.Color("#3b82f6")
	colorDim   = lipgloss.Color("#6b7280")
	colorWhite = lipgloss.Color("#f9fafb")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	okStyle = lipgloss.NewStyle().
		Foreground(colorGreen)

	failStyle = lipgloss.NewStyle().
			Foreground(colorRed)
)

// Render produces the terminal summary for a finished run. With colored
// false (non-TTY output), styles collapse to plain text.
func (r *RunReport) Render(colored bool) string {
	title, section, dim, ok, fail := titleStyle, sectionStyle, dimStyle, okStyle, failStyle
	if !colored {
		plain := lipgloss.NewStyle()
		title, section, dim, ok, fail = plain, plain, plain, plain, plain
	}

	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(title.Render(fmt.Sprintf("  provost run: %s in %v",
		overall(r), r.Duration().Round(time.Millisecond))))
	b.WriteString("\n")
	b.WriteString(dim.Render("  " + strings.Repeat("═", 40)))
	b.WriteString("\n\n")

	b.WriteString(section.Render("  Pipelines"))
	b.WriteString("\n")
	b.WriteString(dim.Render("  " + strings.Repeat("─", 40)))
	b.WriteString("\n")
	for _, pl := range r.Pipelines {
		state := ok.Render(string(pl.State))
		if pl.State != workflow.Completed {
			state = fail.Render(string(pl.State))
		}
		b.WriteString(fmt.Sprintf("    %-12s %s  %s\n",
			pl.Role, state, dim.Render(pl.Finished.Sub(pl.Started).Round(time.Millisecond).String())))

		if f := pl.Failure; f != nil {
			b.WriteString(fail.Render(fmt.Sprintf("      %s", describeFailure(f))))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(section.Render("  Targets"))
	b.WriteString("\n")
	b.WriteString(dim.Render("  " + strings.Repeat("─", 40)))
	b.WriteString("\n")
	for _, name := range sortedTargets(r.Targets) {
		b.WriteString(fmt.Sprintf("    %-20s %s\n", name, r.Targets[name]))
	}
	b.WriteString("\n")

	return b.String()
}

func overall(r *RunReport) string {
	if r.Succeeded() {
		return "completed"
	}
	return fmt.Sprintf("failed (%d pipeline(s))", len(r.FailedPipelines()))
}

// describeFailure renders the first critical failure with the stage and
// action it occurred at.
func describeFailure(f *workflow.Failure) string {
	var parts []string
	parts = append(parts, string(f.Kind))
	if f.Stage != "" {
		parts = append(parts, "stage="+f.Stage)
	}
	if f.Action != "" {
		parts = append(parts, "action="+f.Action)
	}
	if f.Target != "" {
		parts = append(parts, "target="+f.Target)
	}
	if f.Diagnostic != "" {
		parts = append(parts, f.Diagnostic)
	}
	return strings.Join(parts, " ")
}

func sortedTargets(targets map[string]registry.Status) []string {
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
