// Kappa
// Copyright (C) the kappa project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package cli handles all of the core command line parsing. It's the main
// entry point into the program, and it shells out to the interpreter.
package cli

import (
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
)

// Args is the main struct of the command line arguments.
type Args struct {
	// Debug represents if we're running in debug mode or not.
	Debug bool `arg:"--debug" help:"enable debug logging"`

	// AST prints the parsed syntax tree before interpreting.
	AST bool `arg:"--ast" help:"dump the parsed syntax tree"`

	// RunCmd runs a program file.
	RunCmd *RunArgs `arg:"subcommand:run" help:"run a program file"`

	// ReplCmd starts the interactive loop. It is the default.
	ReplCmd *ReplArgs `arg:"subcommand:repl" help:"start an interactive session"`

	version string `arg:"-"`
}

// Version returns the version string, it is used by the arg parser.
func (obj *Args) Version() string {
	return obj.version
}

// CLI is the entry point for the command line. The program name and version
// end up in the help output.
func CLI(program, version string) error {
	args := &Args{version: fmt.Sprintf("%s %s", program, version)}
	config := arg.Config{Program: program}
	p, err := arg.NewParser(config, args)
	if err != nil {
		return err
	}
	switch err := p.Parse(os.Args[1:]); err {
	case nil:
		// let's continue below
	case arg.ErrHelp:
		p.WriteHelp(os.Stdout)
		return nil
	case arg.ErrVersion:
		fmt.Println(args.Version())
		return nil
	default:
		return err
	}

	switch {
	case args.RunCmd != nil:
		return run(args, args.RunCmd)
	case args.ReplCmd != nil:
		return repl(args, args.ReplCmd)
	}
	return repl(args, &ReplArgs{})
}
