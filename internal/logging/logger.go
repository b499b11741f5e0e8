// Package logging pairs a structured logrus logger with a human-readable
// pretty printer, grounded on the teacher's defaultLogger
// (pkg/orchestration/orchestrator.go) which did the same pairing against its
// private grove-core/logging package. Here the pretty half is implemented
// directly with fatih/color instead of that sibling-module dependency.
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// Logger is the interface every kernel component depends on.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	With(keysAndValues ...interface{}) Logger
}

type kernelLogger struct {
	structured *logrus.Entry
	pretty     io.Writer
	prettyOn   bool
}

// New builds a Logger that writes structured JSON lines to structuredOut (a
// file is typical) and, when stdout is a terminal, colorized one-line
// summaries to stdout.
func New(component string, structuredOut io.Writer) Logger {
	base := logrus.New()
	base.SetFormatter(&logrus.JSONFormatter{})
	base.SetOutput(structuredOut)
	entry := base.WithField("component", component)

	return &kernelLogger{
		structured: entry,
		pretty:     os.Stdout,
		prettyOn:   isatty.IsTerminal(os.Stdout.Fd()),
	}
}

func fieldsFrom(kv []interface{}) logrus.Fields {
	fields := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}

func renderPretty(fields logrus.Fields) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return strings.Join(parts, " ")
}

func (l *kernelLogger) Info(msg string, kv ...interface{}) {
	fields := fieldsFrom(kv)
	l.structured.WithFields(fields).Info(msg)
	if l.prettyOn {
		line := color.New(color.FgCyan).Sprint("info")
		fmt.Fprintf(l.pretty, "%s %s %s\n", line, msg, renderPretty(fields))
	}
}

func (l *kernelLogger) Warn(msg string, kv ...interface{}) {
	fields := fieldsFrom(kv)
	l.structured.WithFields(fields).Warn(msg)
	if l.prettyOn {
		line := color.New(color.FgYellow).Sprint("warn")
		fmt.Fprintf(l.pretty, "%s %s %s\n", line, msg, renderPretty(fields))
	}
}

func (l *kernelLogger) Error(msg string, kv ...interface{}) {
	fields := fieldsFrom(kv)
	l.structured.WithFields(fields).Error(msg)
	if l.prettyOn {
		line := color.New(color.FgRed, color.Bold).Sprint("error")
		fmt.Fprintf(l.pretty, "%s %s %s\n", line, msg, renderPretty(fields))
	}
}

func (l *kernelLogger) Debug(msg string, kv ...interface{}) {
	fields := fieldsFrom(kv)
	l.structured.WithFields(fields).Debug(msg)
}

func (l *kernelLogger) With(kv ...interface{}) Logger {
	return &kernelLogger{
		structured: l.structured.WithFields(fieldsFrom(kv)),
		pretty:     l.pretty,
		prettyOn:   l.prettyOn,
	}
}

// Discard is a Logger that drops everything, used by tests.
func Discard() Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return &kernelLogger{structured: logrus.NewEntry(base), pretty: io.Discard, prettyOn: false}
}
