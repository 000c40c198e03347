package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/born-ml/carray/internal/carray"
)

func (a *app[T]) shell() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "carray> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	a.out = rl.Stdout()
	a.printHelp()

	for {
		line, err := rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			return nil
		}
		if a.execute(line) {
			return nil
		}
	}
}

// execute runs one shell line and reports whether the session should end.
func (a *app[T]) execute(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd, args := strings.ToLower(parts[0]), parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		a.printHelp()
	case "quit", "exit", "q":
		return true
	case "layout", "l":
		fmt.Fprint(a.out, a.net.Params())
	case "get", "g":
		err = a.cmdGet(args)
	case "set", "s":
		err = a.cmdSet(args)
	case "eval", "e":
		err = a.evaluate(args)
	case "norm", "n":
		err = a.cmdNorm(args)
	case "train":
		err = a.cmdTrain(args)
	case "state":
		err = a.cmdState(args)
	case "save":
		err = a.cmdSave(args)
	case "snapshot":
		err = a.withPath(args, a.writeSnapshot)
	case "restore":
		err = a.withPath(args, a.restore)
	default:
		err = fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
	}
	return false
}

func (a *app[T]) printHelp() {
	fmt.Fprint(a.out, `Commands:
  layout                  Show the parameter layout
  get <path>              Print the values at a key path
  set <path> <v>...       Overwrite the values at a key path
  eval <x1,x2,...>...     Evaluate at points
  norm [p]                p-norm of all parameters (default 2)
  train on|off            Switch dropout on or off
  state <var>             Show the recorded state of a variable
  save <file>             Write the parameters as SafeTensors
  snapshot <file>         Write a snapshot
  restore <file>          Restore a snapshot
  quit                    Leave the shell
`)
}

func (a *app[T]) withPath(args []string, fn func(string) error) error {
	if len(args) != 1 {
		return fmt.Errorf("want a file path")
	}
	return fn(args[0])
}

func (a *app[T]) cmdGet(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: get <path>")
	}
	vals, err := a.net.Params().Get(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, vals)
	return nil
}

func (a *app[T]) cmdSet(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: set <path> <v>...")
	}
	vals := make([]T, len(args)-1)
	for i, s := range args[1:] {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		vals[i] = T(v)
	}
	return a.net.Params().Set(args[0], vals)
}

func (a *app[T]) cmdNorm(args []string) error {
	p := 2.0
	if len(args) == 1 {
		switch args[0] {
		case "inf":
			p = math.Inf(1)
		case "-inf":
			p = math.Inf(-1)
		default:
			v, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return err
			}
			p = v
		}
	}
	n, err := carray.Norm(a.net.Params(), p)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%g\n", n)
	return nil
}

func (a *app[T]) cmdTrain(args []string) error {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		return fmt.Errorf("usage: train on|off")
	}
	a.net.SetTraining(args[0] == "on")
	return nil
}

func (a *app[T]) cmdState(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: state <var>")
	}
	st, ok := a.net.State(args[0])
	if !ok {
		return fmt.Errorf("no dependent variable %q", args[0])
	}
	fmt.Fprintln(a.out, describeState(st))
	return nil
}

func (a *app[T]) cmdSave(args []string) error {
	return a.withPath(args, func(path string) error {
		return carray.SaveFile(path, a.net.Params(), map[string]string{"pinn": a.net.ID().String()})
	})
}
