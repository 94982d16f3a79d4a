package appeal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Output defines methods for writing user-facing output.
type Output interface {
	// Writes the provided text to stdout.
	Stdout(string)
	// Writes a formatted string to stdout.
	Stdoutf(string, ...interface{})
	// Writes the provided text to stderr and returns an error with the same message.
	Stderr(string) error
	// Writes a formatted string to stderr and returns an error with the same message.
	Stderrf(string, ...interface{}) error
	// Writes the provided error to stderr and returns the provided error.
	Err(err error) error
}

type output struct {
	stdout io.Writer
	stderr io.Writer
}

// NewOutput returns an `Output` over the process streams.
func NewOutput() Output {
	return &output{os.Stdout, os.Stderr}
}

// NewCustomOutput returns an `Output` over the provided writers.
func NewCustomOutput(stdout, stderr io.Writer) Output {
	return &output{stdout, stderr}
}

func (o *output) Stdout(s string) {
	fmt.Fprint(o.stdout, s)
}

func (o *output) Stdoutf(format string, args ...interface{}) {
	fmt.Fprintf(o.stdout, format, args...)
}

func (o *output) Stderr(s string) error {
	fmt.Fprint(o.stderr, s)
	return errors.New(strings.TrimSuffix(s, "\n"))
}

func (o *output) Stderrf(format string, args ...interface{}) error {
	s := fmt.Sprintf(format, args...)
	fmt.Fprint(o.stderr, s)
	return errors.New(strings.TrimSuffix(s, "\n"))
}

func (o *output) Err(err error) error {
	if err != nil {
		fmt.Fprintf(o.stderr, "%v\n", err)
	}
	return err
}

// FakeOutput captures output for tests.
type FakeOutput struct {
	Output
	stdout strings.Builder
	stderr strings.Builder
}

// NewFakeOutput returns an `Output` whose streams can be read back.
func NewFakeOutput() *FakeOutput {
	f := &FakeOutput{}
	f.Output = NewCustomOutput(&f.stdout, &f.stderr)
	return f
}

// GetStdout returns everything written to stdout so far.
func (f *FakeOutput) GetStdout() string {
	return f.stdout.String()
}

// GetStderr returns everything written to stderr so far.
func (f *FakeOutput) GetStderr() string {
	return f.stderr.String()
}
