// Package report renders diagnosis progress and results for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/netinspect/k8s-netinspect/pkg/errkind"
	"github.com/netinspect/k8s-netinspect/pkg/types"
)

const (
	iconOK      = "✓"
	iconWarning = "⚠"
	iconFailed  = "✗"
	iconInfo    = "ℹ"
)

// Printer writes human readable output. It implements diagnose.Observer so steps are printed as
// they complete.
type Printer struct {
	out   io.Writer
	color bool
}

// NewPrinter creates a Printer writing to out. Colors are only emitted when color is true.
func NewPrinter(out io.Writer, color bool) *Printer {
	return &Printer{out: out, color: color}
}

func (p *Printer) paint(colors text.Colors, s string) string {
	if !p.color {
		return s
	}
	return colors.Sprint(s)
}

// Headline prints a bold heading line.
func (p *Printer) Headline(format string, args ...any) {
	fmt.Fprintln(p.out, p.paint(text.Colors{text.FgCyan, text.Bold}, fmt.Sprintf(format, args...)))
}

// Info prints an informational line.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.out, "%s %s\n", p.paint(text.Colors{text.FgBlue, text.Bold}, iconInfo), fmt.Sprintf(format, args...))
}

// StepCompleted prints one line for a finished step.
func (p *Printer) StepCompleted(rec types.StepRecord) {
	icon, colors := p.style(rec)
	msg := ""
	if rec.Result != nil {
		msg = rec.Result.Detail.Message
	}
	if msg == "" {
		msg = rec.Name
	}
	fmt.Fprintf(p.out, "%s %s\n", p.paint(colors, icon), msg)
}

func (p *Printer) style(rec types.StepRecord) (string, text.Colors) {
	switch {
	case rec.Outcome == types.OutcomeFatal:
		return iconFailed, text.Colors{text.FgRed, text.Bold}
	case rec.Outcome == types.OutcomeDegraded:
		return iconWarning, text.Colors{text.FgYellow, text.Bold}
	case rec.Result != nil && rec.Result.Status != types.StatusHealthy:
		return iconWarning, text.Colors{text.FgYellow, text.Bold}
	default:
		return iconOK, text.Colors{text.FgGreen, text.Bold}
	}
}

// Diagnosis prints the summary of a diagnosis.
func (p *Printer) Diagnosis(r *types.DiagnosisReport) {
	t := p.createTable()
	t.AppendHeader(table.Row{"CHECK", "RESULT"})
	t.AppendRow(table.Row{"CNI", r.CNI})
	if r.CNIEvidence != "" {
		t.AppendRow(table.Row{"CNI evidence", r.CNIEvidence})
	}
	t.AppendRow(table.Row{"Nodes", r.NodeCount})
	switch {
	case r.PodCount == nil:
		t.AppendRow(table.Row{"Pods", p.paint(text.Colors{text.FgYellow}, "unavailable")})
	case r.NamespaceScope != nil:
		t.AppendRow(table.Row{fmt.Sprintf("Pods (%s)", *r.NamespaceScope), *r.PodCount})
	default:
		t.AppendRow(table.Row{"Pods (cluster-wide)", *r.PodCount})
	}
	if r.DNS != nil {
		t.AppendRow(table.Row{"Cluster DNS", p.resultText(r.DNS)})
	}
	p.render(t)
	p.steps(r.Steps)

	if r.Degraded() {
		fmt.Fprintln(p.out, p.paint(text.Colors{text.FgYellow, text.Bold}, "Diagnosis completed with warnings"))
		return
	}
	fmt.Fprintln(p.out, p.paint(text.Colors{text.FgGreen, text.Bold}, "Diagnosis completed"))
}

// PodTest prints the summary of a pod test.
func (p *Printer) PodTest(r *types.PodReport) {
	for _, note := range r.Notes {
		p.Info("%s", note)
	}
	t := p.createTable()
	t.AppendHeader(table.Row{"POD", "PHASE", "IP", "CONNECTIVITY"})
	connectivity := "not tested"
	if r.Connectivity != nil {
		connectivity = p.resultText(r.Connectivity)
	}
	t.AppendRow(table.Row{r.Namespace + "/" + r.Pod, r.Phase, r.IP, connectivity})
	p.render(t)
}

// Error prints a classified error with its troubleshooting hints.
func (p *Printer) Error(err error) {
	e := errkind.From(err)
	lines := strings.SplitN(e.DetailedMessage(), "\n", 2)
	fmt.Fprintf(p.out, "%s %s\n", p.paint(text.Colors{text.FgRed, text.Bold}, iconFailed), p.paint(text.Colors{text.FgRed}, lines[0]))
	if len(lines) > 1 {
		fmt.Fprintln(p.out, lines[1])
	}
}

func (p *Printer) steps(steps []types.StepRecord) {
	if len(steps) == 0 {
		return
	}
	t := p.createTable()
	t.AppendHeader(table.Row{"STEP", "OUTCOME", "CODE", "DURATION"})
	for _, s := range steps {
		code := ""
		if s.Result != nil {
			code = s.Result.Detail.Code
		}
		t.AppendRow(table.Row{s.Name, string(s.Outcome), code, s.Duration.Round(time.Millisecond)})
	}
	p.render(t)
}

func (p *Printer) resultText(r *types.Result) string {
	switch r.Status {
	case types.StatusHealthy:
		return p.paint(text.Colors{text.FgGreen}, "PASS")
	case types.StatusUnknown:
		return p.paint(text.Colors{text.FgHiBlack}, "UNKNOWN")
	default:
		msg := "FAIL"
		if r.Detail.Message != "" {
			msg += " - " + r.Detail.Message
		}
		return p.paint(text.Colors{text.FgRed}, msg)
	}
}

func (p *Printer) createTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	return t
}

func (p *Printer) render(t table.Writer) {
	fmt.Fprintln(p.out, t.Render())
}
