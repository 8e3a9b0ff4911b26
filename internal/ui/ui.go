// Package ui prints operator-facing progress to stderr. Stdout is
// reserved for machine-readable output (version reports).
package ui

import (
	"fmt"
	"io"
	"os"
)

// ANSI color codes.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	blue   = "\033[34m"
	yellow = "\033[33m"
	green  = "\033[32m"
	red    = "\033[31m"
	cyan   = "\033[36m"
)

type Printer struct {
	out io.Writer
}

func New() *Printer {
	return &Printer{out: os.Stderr}
}

// NewTo returns a printer writing to w; used by tests.
func NewTo(w io.Writer) *Printer {
	return &Printer{out: w}
}

func (p *Printer) Banner(variantName, version string) {
	fmt.Fprintf(p.out, bold+cyan+"cushion-build"+reset+dim+" %s @ %s"+reset+"\n", variantName, version)
}

func (p *Printer) StageStart(stage string) {
	fmt.Fprintf(p.out, blue+bold+"▶ %s"+reset+"\n", stage)
}

func (p *Printer) StageDone(stage string) {
	fmt.Fprintf(p.out, green+"✓ %s"+reset+"\n", stage)
}

func (p *Printer) StageSkipped(stage, reason string) {
	fmt.Fprintf(p.out, yellow+"⚠ %s skipped"+reset+dim+" — %s"+reset+"\n", stage, reason)
}

func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintf(p.out, yellow+bold+"⚠ "+reset+format+"\n", args...)
}

func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintf(p.out, red+bold+"✗ "+reset+format+"\n", args...)
}

func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.out, dim+format+reset+"\n", args...)
}

func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintf(p.out, green+bold+"✓ "+reset+format+"\n", args...)
}
