package ui

import (
	"fmt"
	"os"
)

// ANSI color codes.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	yellow = "\033[33m"
	green  = "\033[32m"
	red    = "\033[31m"
	cyan   = "\033[36m"
)

type Printer struct{}

func New() *Printer {
	return &Printer{}
}

func (p *Printer) Step(format string, args ...any) {
	fmt.Fprintf(os.Stderr, bold+cyan+"▶ "+reset+format+"\n", args...)
}

func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(os.Stderr, dim+format+reset+"\n", args...)
}

func (p *Printer) Skip(pkg, reason string) {
	fmt.Fprintf(os.Stderr, dim+"- skipped %s (%s)"+reset+"\n", pkg, reason)
}

func (p *Printer) Published(pkg, version string) {
	fmt.Fprintf(os.Stderr, green+bold+"✓ published"+reset+" %s@%s\n", pkg, version)
}

func (p *Printer) Packed(pkg, tarball string) {
	fmt.Fprintf(os.Stderr, green+bold+"✓ packed"+reset+" %s → %s\n", pkg, tarball)
}

func (p *Printer) Tagged(tag string) {
	fmt.Fprintf(os.Stderr, green+"✓ tagged"+reset+" %s\n", tag)
}

func (p *Printer) DryRun(format string, args ...any) {
	fmt.Fprintf(os.Stderr, yellow+"[dry-run] "+reset+format+"\n", args...)
}

func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintf(os.Stderr, yellow+bold+"⚠ "+reset+format+"\n", args...)
}

func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintf(os.Stderr, red+bold+"✗ "+reset+format+"\n", args...)
}
