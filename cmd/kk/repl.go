package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chazu/kkipple/vm"
)

// repl evaluates one line at a time against interp. It shares in with the
// interpreter, so a line that reads input consumes the lines after it.
func repl(interp *vm.Interpreter, in *bufio.Reader, out io.Writer, prompt bool) error {
	if prompt {
		fmt.Fprintln(out, "Kkipple REPL (':stacks' shows stacks, ':quit' exits)")
	}

	for {
		if prompt {
			fmt.Fprint(out, ">> ")
		}

		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading input: %w", err)
		}
		eof := err != nil

		cmd := strings.TrimSpace(line)
		switch cmd {
		case "":
		case ":quit", ":q":
			return nil
		case ":stacks":
			printStacks(interp, out)
		default:
			if strings.HasPrefix(cmd, ":") {
				fmt.Fprintf(out, "unknown command %s\n", cmd)
				break
			}
			if err := interp.Eval(line); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		}

		if eof {
			if prompt {
				fmt.Fprintln(out)
			}
			return nil
		}
	}
}

// printStacks lists every non-empty stack, bottom first.
func printStacks(interp *vm.Interpreter, out io.Writer) {
	for _, s := range interp.Stacks() {
		if len(s.Values) == 0 {
			continue
		}
		vals := make([]string, len(s.Values))
		for i, v := range s.Values {
			vals[i] = fmt.Sprint(v)
		}
		fmt.Fprintf(out, "%s (%s): %s\n", s.Name, s.Variant, strings.Join(vals, " "))
	}
}
