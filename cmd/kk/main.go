// Kkipple CLI - runs Kkipple programs, a REPL, or the language server
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/tliron/commonlog"

	"github.com/chazu/kkipple/manifest"
	"github.com/chazu/kkipple/server"
	"github.com/chazu/kkipple/trace"
	"github.com/chazu/kkipple/vm"
	"github.com/chazu/kkipple/vm/snapshot"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("kkipple.cmd")

// options is the merged result of flags and kkipple.toml.
type options struct {
	code        string // -e
	file        string
	input       string
	interactive bool
	traceDB     string
	dump        string
	verbosity   int
	logFile     string
}

func main() {
	code := flag.String("e", "", "Run `code` instead of a file")
	interactive := flag.Bool("i", false, "Start interactive REPL (after running the program, if any)")
	configPath := flag.String("config", "", "Read configuration from `path` instead of searching for kkipple.toml")
	traceDB := flag.String("trace", "", "Record every step into the SQLite database at `path`")
	dump := flag.String("dump", "", "Write the final stacks to `file` (.yaml/.yml for YAML, CBOR otherwise)")
	verbosity := flag.Int("v", 0, "Log verbosity (1 info, 2 debug)")
	lspMode := flag.Bool("lsp", false, "Start language server on stdio")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: kk [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Runs a Kkipple program. Without a program, starts the REPL.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  kk hello.kk                    # Run a file\n")
		fmt.Fprintf(os.Stderr, "  kk -e '\"hi\">o o*'              # Run inline code\n")
		fmt.Fprintf(os.Stderr, "  kk -dump stacks.yaml prog.kk   # Run, then dump the stacks\n")
		fmt.Fprintf(os.Stderr, "  kk -trace run.db prog.kk       # Run, recording every step\n")
		fmt.Fprintf(os.Stderr, "  kk --lsp                       # Start language server\n")
	}
	flag.Parse()

	if flag.NArg() > 1 {
		flag.Usage()
		os.Exit(2)
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	m, err := loadConfig(*configPath)
	if err != nil {
		fail(err)
	}

	opts := options{
		code:        *code,
		file:        flag.Arg(0),
		interactive: *interactive,
		traceDB:     *traceDB,
		dump:        *dump,
		verbosity:   *verbosity,
	}
	if m != nil {
		opts.merge(m, set)
	}

	if opts.logFile != "" {
		commonlog.Configure(opts.verbosity, &opts.logFile)
	} else {
		commonlog.Configure(opts.verbosity, nil)
	}

	if *lspMode {
		if err := server.NewLSP().Run(); err != nil {
			fail(fmt.Errorf("language server: %w", err))
		}
		os.Exit(0)
	}

	if err := run(opts, os.Stdin, os.Stdout, isatty.IsTerminal(os.Stdin.Fd())); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func loadConfig(path string) (*manifest.Manifest, error) {
	if path != "" {
		return manifest.LoadFile(path)
	}
	return manifest.FindAndLoad(".")
}

// merge fills options the command line left unset from the manifest.
func (o *options) merge(m *manifest.Manifest, set map[string]bool) {
	if o.code == "" && o.file == "" {
		o.file = m.EntryPath()
	}
	o.input = m.InputPath()
	if !set["trace"] {
		o.traceDB = m.TraceDBPath()
	}
	if !set["dump"] {
		o.dump = m.SnapshotPath()
	}
	if !set["v"] {
		o.verbosity = m.Log.Verbosity
	}
	o.logFile = m.LogPath()
}

// ---------------------------------------------------------------------------
// Running
// ---------------------------------------------------------------------------

// run executes the configured program and then, if asked or if there was
// no program, the REPL. prompt controls whether the REPL prints prompts.
func run(opts options, stdin io.Reader, stdout io.Writer, prompt bool) error {
	src, hasProgram, err := opts.source()
	if err != nil {
		return err
	}

	in := stdin
	if opts.input != "" {
		f, err := os.Open(opts.input)
		if err != nil {
			return fmt.Errorf("cannot open input: %w", err)
		}
		defer f.Close()
		in = f
	}
	reader := bufio.NewReader(in)
	interp := vm.NewInterpreter(reader, stdout)

	var runID string
	if hasProgram {
		runID, err = execute(interp, src, opts.traceDB)
		if err != nil {
			return err
		}
	}

	if opts.interactive || !hasProgram {
		if err := repl(interp, reader, stdout, prompt); err != nil {
			return err
		}
	}

	if opts.dump != "" {
		snap := snapshot.Capture(interp)
		snap.RunID = runID
		if err := snapshot.WriteFile(opts.dump, snap); err != nil {
			return err
		}
		log.Infof("wrote %d stacks to %s", len(snap.Stacks), opts.dump)
	}
	return nil
}

// source returns the program text and whether there is one.
func (o *options) source() (string, bool, error) {
	if o.code != "" {
		return o.code, true, nil
	}
	if o.file == "" {
		return "", false, nil
	}
	data, err := os.ReadFile(o.file)
	if err != nil {
		return "", false, fmt.Errorf("cannot read program: %w", err)
	}
	return string(data), true, nil
}

// execute runs src, recording it into traceDB when one is given. It
// returns the trace run id.
func execute(interp *vm.Interpreter, src, traceDB string) (string, error) {
	if traceDB == "" {
		return "", interp.Eval(src)
	}

	store, err := trace.Open(traceDB)
	if err != nil {
		return "", err
	}
	defer store.Close()

	rec, err := store.Begin(src)
	if err != nil {
		return "", err
	}
	interp.SetTracer(rec)
	defer interp.SetTracer(nil)

	runErr := interp.Eval(src)
	if err := rec.Finish(runErr); err != nil {
		return "", errors.Join(runErr, err)
	}
	return rec.RunID(), runErr
}
