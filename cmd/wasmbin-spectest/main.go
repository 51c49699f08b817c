package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/sunjito/wasmbin/internal/spectest"
	"github.com/sunjito/wasmbin/internal/wasm"
	"github.com/sunjito/wasmbin/internal/wat"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitError  = 2
)

func main() {
	doMain(os.Args[1:], os.Stdout, os.Stderr, os.Exit)
}

// doMain is separated out for the purpose of unit testing.
func doMain(args []string, stdOut, stdErr io.Writer, exit func(code int)) {
	exit(run(args, stdOut, stdErr))
}

func run(args []string, stdOut, stdErr io.Writer) int {
	flags := pflag.NewFlagSet("wasmbin-spectest", pflag.ContinueOnError)
	flags.SetOutput(stdErr)
	flags.Usage = func() { printUsage(stdErr, flags) }

	var help, list, verbose bool
	flags.BoolVarP(&help, "help", "h", false, "print usage")
	flags.BoolVar(&list, "list", false, "list the test cases without running them")
	flags.BoolVarP(&verbose, "verbose", "v", false, "print the count of test cases loaded per script")

	configPath := flags.String("config", "", "path of a .json, .jsonc, .yaml or .yml configuration file")
	format := flags.String("format", "", `format of the scripts: "wast" or "wast2json"`)
	extensionsDir := flags.String("extensions-dir", "", "directory under the root with a directory per extension suite")
	extensions := flags.StringArray("extension", nil, "extension suite to load, enabling its feature. "+
		"This may be specified multiple times.")
	features := flags.StringArray("feature", nil, "codec feature to enable. This may be specified multiple times.")
	jobs := flags.IntP("jobs", "j", 0, "count of test cases run concurrently")
	watEncoder := flags.String("wat-encoder", "", fmt.Sprintf("encoder of text modules, one of %v", wat.Names()))
	includeIgnored := flags.Bool("include-ignored", false, "also run ignored test cases, without failing on them")
	exact := flags.Bool("exact", false, "only run the test case named by the filter")
	strict := flags.Bool("strict-roundtrip", false, "fail when re-encoding changes the order of sections")
	reportPath := flags.String("report", "", "path to write a JSON report to")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stdErr, err)
		printUsage(stdErr, flags)
		return exitError
	}
	if help {
		printUsage(stdErr, flags)
		return exitOK
	}
	if flags.NArg() > 2 {
		fmt.Fprintln(stdErr, "too many arguments")
		printUsage(stdErr, flags)
		return exitError
	}

	cfg := spectest.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = spectest.LoadConfig(*configPath); err != nil {
			fmt.Fprintln(stdErr, err)
			return exitError
		}
	}

	// Flags override the configuration file only when set.
	if flags.NArg() > 0 {
		cfg.Root = flags.Arg(0)
	}
	if flags.NArg() > 1 {
		cfg.Filter = flags.Arg(1)
	}
	if flags.Changed("format") {
		cfg.Format = spectest.Format(*format)
	}
	if flags.Changed("extensions-dir") {
		cfg.ExtensionsDir = *extensionsDir
	}
	if flags.Changed("extension") {
		cfg.Extensions = *extensions
	}
	if flags.Changed("feature") {
		cfg.Features = *features
	}
	if flags.Changed("jobs") {
		cfg.Jobs = *jobs
	}
	if flags.Changed("wat-encoder") {
		cfg.WatEncoder = *watEncoder
	}
	if flags.Changed("include-ignored") {
		cfg.RunIgnored = *includeIgnored
	}
	if flags.Changed("exact") {
		cfg.Exact = *exact
	}
	if flags.Changed("strict-roundtrip") {
		cfg.StrictRoundtrip = *strict
	}
	if flags.Changed("report") {
		cfg.Report = *reportPath
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stdErr, err)
		return exitError
	}

	encoder, err := wat.New(cfg.WatEncoder)
	if err != nil {
		fmt.Fprintf(stdErr, "%v: %v\n", spectest.ErrConfig, err)
		return exitError
	}

	var loadLog io.Writer
	if verbose {
		loadLog = stdErr
	}
	corpus, err := spectest.LoadCorpus(&cfg, encoder, loadLog)
	if err != nil {
		if errors.Is(err, wat.ErrUnavailable) {
			fmt.Fprintln(stdErr, "hint: text modules need a build with cgo enabled")
		}
		fmt.Fprintln(stdErr, err)
		return exitError
	}

	if list {
		spectest.WriteList(stdOut, corpus.Cases)
		return exitOK
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	codec := &spectest.WasmbinCodec{Features: cfg.CodecFeatures()}
	report, runErr := spectest.Run[*wasm.Module](ctx, codec, corpus.Cases, cfg.RunOptions())
	report.Suppression = corpus.Suppression
	report.WriteText(stdOut, spectest.UseColor(stdOut))

	if cfg.Report != "" {
		if err := report.WriteJSON(cfg.Report); err != nil {
			fmt.Fprintln(stdErr, err)
			return exitError
		}
	}
	if report.Suppression {
		fmt.Fprintln(stdErr, spectest.SuppressionNote)
	}

	if runErr != nil {
		fmt.Fprintf(stdErr, "run interrupted: %v\n", runErr)
		return exitFailed
	}
	if report.Failed() {
		return exitFailed
	}
	return exitOK
}

func printUsage(stdErr io.Writer, flags *pflag.FlagSet) {
	fmt.Fprintln(stdErr, "wasmbin-spectest")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Checks the WebAssembly binary codec against the official test suite.")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Usage:\n  wasmbin-spectest <options> [root] [filter]")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Options:")
	fmt.Fprint(stdErr, flags.FlagUsages())
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Exit status is 0 when every test case passed or was ignored, 1 when any failed and 2 on")
	fmt.Fprintln(stdErr, "configuration or script errors.")
}
