// Command rakedesign designs, applies and inspects rake beamformer filters.
//
// Usage:
//
//	rakedesign <command> [flags]
//
// Commands:
//
//	design    compute filters for a JSON scenario and write them as JSON
//	apply     filter a multichannel WAV recording into a mono WAV file
//	response  print the far-field response of a filter set
//	sweep     run a Monte-Carlo SINR sweep over the number of images
//
// Examples:
//
//	rakedesign design -scenario room.json -out taps.json
//	rakedesign apply -taps taps.json -in mics.wav -out out.wav
//	rakedesign response -taps taps.json -angles 0,45,90 -freqs 500,1000
//	rakedesign sweep -scenario room.json -images 15 -trials 10
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/algo-rake/internal/logging"
)

// errUsage marks errors that should print usage and exit with status 2.
var errUsage = errors.New("usage")

type command struct {
	name    string
	summary string
	run     func(args []string, stdout, stderr io.Writer) error
}

var commands = []command{
	{"design", "compute filters for a JSON scenario", runDesign},
	{"apply", "filter a multichannel WAV recording", runApply},
	{"response", "print the far-field response of a filter set", runResponse},
	{"sweep", "run a Monte-Carlo SINR sweep", runSweep},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	for _, c := range commands {
		if c.name != args[0] {
			continue
		}
		err := c.run(args[1:], stdout, stderr)
		switch {
		case err == nil:
			return 0
		case errors.Is(err, flag.ErrHelp):
			return 0
		case errors.Is(err, errUsage):
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 2
		default:
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
	}

	if args[0] == "-h" || args[0] == "-help" || args[0] == "help" {
		usage(stdout)
		return 0
	}
	fmt.Fprintf(stderr, "error: unknown command %q\n\n", args[0])
	usage(stderr)
	return 2
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: rakedesign <command> [flags]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-9s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(w, "\nRun 'rakedesign <command> -h' for the flags of a command.\n")
}

// logFlags are shared by every command.
type logFlags struct {
	level  string
	format string
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *logFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	lf := &logFlags{}
	fs.StringVar(&lf.level, "log-level", "info", "log level: debug, info, warn, error")
	fs.StringVar(&lf.format, "log-format", "text", "log format: text or json")
	return fs, lf
}

func (lf *logFlags) logger(stderr io.Writer) logging.Logger {
	return logging.New(logging.Config{Level: lf.level, Format: lf.format, Output: stderr})
}

func usageErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}
