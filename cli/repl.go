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
	"io"
	"log"
	"strings"

	"github.com/peterh/liner"
	"github.com/sanity-io/litter"

	"github.com/kappa-lang/kappa/interp"
	"github.com/kappa-lang/kappa/parser"
	"github.com/kappa-lang/kappa/util/errwrap"
)

// ReplArgs is the set of flags of the repl subcommand.
type ReplArgs struct {
}

// repl runs the interactive loop: one expression per line, the result
// printed as `value : type`. A braced block is an expression, so whole
// procedures fit on a line.
func repl(args *Args, replArgs *ReplArgs) (reterr error) {
	prompt := liner.NewLiner()
	defer func() {
		reterr = errwrap.Append(reterr, prompt.Close())
	}()
	prompt.SetCtrlCAborts(true)

	interpreter := &interp.Interpreter{
		Debug: args.Debug,
		Logf: func(format string, v ...interface{}) {
			log.Printf("interp: "+format, v...)
		},
	}
	if err := interpreter.Init(); err != nil {
		return err
	}

	for {
		input, err := prompt.Prompt("kappa> ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		prompt.AppendHistory(input)

		expr, err := parser.ParseExpression(input)
		if err != nil {
			fmt.Printf("parse error: %v\n", err)
			continue
		}
		if args.AST {
			fmt.Println(litter.Sdump(expr))
		}
		value, typ, err := interpreter.Interpret(expr)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		fmt.Println(interpreter.Display(value, typ))
	}
}
