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

package cli

import (
	"fmt"
	"log"

	"github.com/sanity-io/litter"
	"github.com/spf13/afero"

	"github.com/kappa-lang/kappa/interp"
	"github.com/kappa-lang/kappa/parser"
	"github.com/kappa-lang/kappa/util/errwrap"
)

// RunArgs is the set of flags of the run subcommand.
type RunArgs struct {
	// File is the program file to run.
	File string `arg:"positional,required" help:"program file to run"`
}

// run reads, parses and interprets one program file, and prints the result
// as `value : type`.
func run(args *Args, runArgs *RunArgs) error {
	fs := afero.NewOsFs()
	b, err := afero.ReadFile(fs, runArgs.File)
	if err != nil {
		return errwrap.Wrapf(err, "could not read %s", runArgs.File)
	}
	expr, err := parser.ParseProgram(string(b))
	if err != nil {
		return errwrap.Wrapf(err, "could not parse %s", runArgs.File)
	}
	if args.AST {
		fmt.Println(litter.Sdump(expr))
	}

	interpreter := &interp.Interpreter{
		Debug: args.Debug,
		Logf: func(format string, v ...interface{}) {
			log.Printf("interp: "+format, v...)
		},
	}
	if err := interpreter.Init(); err != nil {
		return err
	}
	value, typ, err := interpreter.Interpret(expr)
	if err != nil {
		return err
	}
	fmt.Println(interpreter.Display(value, typ))
	return nil
}
