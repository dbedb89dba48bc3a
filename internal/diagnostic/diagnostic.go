package diagnostic

import (
	"fmt"
	"sort"
	"strings"
)

// Severity represents the severity level of a diagnostic message
type Severity int

const (
	Error Severity = iota
	Warning
	Info
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	default:
		return "unknown"
	}
}

// ansi color per severity, used when formatting for a terminal
func (s Severity) color() string {
	switch s {
	case Error:
		return "\x1b[31m"
	case Warning:
		return "\x1b[33m"
	default:
		return "\x1b[36m"
	}
}

// Diagnostic represents a single problem found while reading or lowering a
// unit.
type Diagnostic struct {
	Severity Severity
	Message  string
	Line     int
	Column   int
	File     string // optional file path
	Unit     string // top-level declaration the problem belongs to
	Hint     string // optional suggestion
}

// String renders the diagnostic on one line, without the hint
func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s:%d:%d]", d.Severity, d.File, d.Line, d.Column)
	if d.Unit != "" {
		fmt.Fprintf(&b, " in %s", d.Unit)
	}
	fmt.Fprintf(&b, ": %s", d.Message)
	return b.String()
}

// Diagnostics collects the diagnostics of one file or one unit. It is not
// safe for concurrent use; concurrent units each fill their own collection
// and the driver merges them.
type Diagnostics struct {
	file  string
	unit  string
	items []Diagnostic
}

// New creates a new empty Diagnostics collection
func New() *Diagnostics {
	return &Diagnostics{
		items: make([]Diagnostic, 0),
	}
}

// ForUnit creates a collection whose entries are attributed to one unit
func ForUnit(file, unit string) *Diagnostics {
	return &Diagnostics{file: file, unit: unit, items: make([]Diagnostic, 0)}
}

// SetUnit attributes entries added from now on to unit
func (d *Diagnostics) SetUnit(file, unit string) {
	d.file, d.unit = file, unit
}

func (d *Diagnostics) add(sev Severity, line, col int, msg, hint string) {
	d.items = append(d.items, Diagnostic{
		Severity: sev,
		Message:  msg,
		Line:     line,
		Column:   col,
		File:     d.file,
		Unit:     d.unit,
		Hint:     hint,
	})
}

// Errorf adds an error diagnostic with formatted message
func (d *Diagnostics) Errorf(line, col int, format string, args ...interface{}) {
	d.add(Error, line, col, fmt.Sprintf(format, args...), "")
}

// Warningf adds a warning diagnostic with formatted message
func (d *Diagnostics) Warningf(line, col int, format string, args ...interface{}) {
	d.add(Warning, line, col, fmt.Sprintf(format, args...), "")
}

// Infof adds an info diagnostic with formatted message
func (d *Diagnostics) Infof(line, col int, format string, args ...interface{}) {
	d.add(Info, line, col, fmt.Sprintf(format, args...), "")
}

// ErrorWithHint adds an error diagnostic with an optional hint
func (d *Diagnostics) ErrorWithHint(line, col int, msg, hint string) {
	d.add(Error, line, col, msg, hint)
}

// WarningWithHint adds a warning diagnostic with an optional hint
func (d *Diagnostics) WarningWithHint(line, col int, msg, hint string) {
	d.add(Warning, line, col, msg, hint)
}

// Merge appends every entry of other
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}
	d.items = append(d.items, other.items...)
}

// Sort orders entries by position, keeping insertion order for ties
func (d *Diagnostics) Sort() {
	sort.SliceStable(d.items, func(i, j int) bool {
		a, b := d.items[i], d.items[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}

// HasErrors returns true if there are any error-level diagnostics
func (d *Diagnostics) HasErrors() bool {
	return d.ErrorCount() > 0
}

// Errors returns only the error-level diagnostics
func (d *Diagnostics) Errors() []Diagnostic {
	errors := make([]Diagnostic, 0)
	for _, item := range d.items {
		if item.Severity == Error {
			errors = append(errors, item)
		}
	}
	return errors
}

// All returns all diagnostics regardless of severity
func (d *Diagnostics) All() []Diagnostic {
	return d.items
}

// Count returns the total number of diagnostics
func (d *Diagnostics) Count() int {
	return len(d.items)
}

// ErrorCount returns the number of error-level diagnostics
func (d *Diagnostics) ErrorCount() int {
	return d.count(Error)
}

// WarningCount returns the number of warning-level diagnostics
func (d *Diagnostics) WarningCount() int {
	return d.count(Warning)
}

func (d *Diagnostics) count(sev Severity) int {
	n := 0
	for _, item := range d.items {
		if item.Severity == sev {
			n++
		}
	}
	return n
}

// Format returns human-readable messages, one per line:
//
//	error[shapes.pat:3:10] in area: duplicate pattern Integer
//	  hint: remove the second case
//	warning[shapes.pat:5:1] in area: default label is unreachable
func (d *Diagnostics) Format() string {
	return d.format(false)
}

// FormatColor is Format with the severity highlighted for a terminal
func (d *Diagnostics) FormatColor() string {
	return d.format(true)
}

func (d *Diagnostics) format(color bool) string {
	var builder strings.Builder
	for i, item := range d.items {
		line := item.String()
		if color {
			sev := item.Severity.String()
			line = item.Severity.color() + sev + "\x1b[0m" + strings.TrimPrefix(line, sev)
		}
		builder.WriteString(line)
		if item.Hint != "" {
			builder.WriteString("\n  hint: " + item.Hint)
		}
		if i < len(d.items)-1 {
			builder.WriteString("\n")
		}
	}
	return builder.String()
}
