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

// Package parser turns source text into unprepared ast nodes: names are left
// unresolved and nothing is typed. The grammar is small and word-based; the
// operator characters are word characters, so `+` or `=` lex as ordinary
// words and the operators resolve through the scope like any variable. The
// parser only contributes their precedence.
package parser

import (
	"fmt"
	"strconv"

	"github.com/kappa-lang/kappa/ast"
	"github.com/kappa-lang/kappa/interfaces"
	"github.com/kappa-lang/kappa/util/errwrap"
)

// keywords are reserved and never parse as variable names. Some are reserved
// for forms the language does not have yet.
var keywords = map[string]struct{}{
	"function": {},
	"return":   {},
	"struct":   {},
	"variant":  {},
	"if":       {},
	"while":    {},
	"else":     {},
	"const":    {},
}

// operators maps the binary operator words to their precedence. Higher binds
// tighter; all are left associative.
var operators = map[string]int{
	"+": 9,
	"-": 9,
	"*": 10,
	"/": 10,
}

// breakArgName is the synthesized name of a multi-parameter lambda's tuple
// argument. It contains characters the lexer would never put in a word, so a
// program cannot shadow or reference it.
const breakArgName = "(args)"

// ParseExpression parses a single expression spanning the whole input.
func ParseExpression(input string) (interfaces.Expr, error) {
	obj := &parser{input: input}
	expr, err := obj.expression()
	if err != nil {
		return nil, err
	}
	if err := obj.eof(); err != nil {
		return nil, err
	}
	return expr, nil
}

// ParseProgram parses a sequence of statements, as if the whole input were
// one procedure block. The result is a procedure expression.
func ParseProgram(input string) (interfaces.Expr, error) {
	obj := &parser{input: input}
	var stmts []interfaces.Stmt
	for {
		obj.whitespace()
		if obj.pos >= len(obj.input) {
			break
		}
		stmt, err := obj.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return &ast.ExprProc{Body: &ast.StmtCompound{Stmts: stmts}}, nil
}

type parser struct {
	input string
	pos   int
}

// isWordChar matches the original lexer's generous word alphabet: letters,
// digits and most operator punctuation. Parentheses, braces, comma, dot and
// semicolon stay structural.
func isWordChar(c byte) bool {
	if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
		return true
	}
	switch c {
	case '_', '^', '`', '!', '#', '$', '%', '&', '\'', '*', '+', '-', '=', '?', '~', '/', ':':
		return true
	}
	return false
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// errorf reports a parse error with the offset it happened at.
func (obj *parser) errorf(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s (at offset %d)", msg, obj.pos)
}

// whitespace skips blanks and both comment styles. A single slash is a word
// character, so only `//` and `/*` start comments.
func (obj *parser) whitespace() {
	for obj.pos < len(obj.input) {
		c := obj.input[obj.pos]
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			obj.pos++
			continue
		}
		if c == '/' && obj.pos+1 < len(obj.input) && obj.input[obj.pos+1] == '/' {
			for obj.pos < len(obj.input) && obj.input[obj.pos] != '\n' {
				obj.pos++
			}
			continue
		}
		if c == '/' && obj.pos+1 < len(obj.input) && obj.input[obj.pos+1] == '*' {
			obj.pos += 2
			for obj.pos < len(obj.input) {
				if obj.input[obj.pos] == '*' && obj.pos+1 < len(obj.input) && obj.input[obj.pos+1] == '/' {
					obj.pos += 2
					break
				}
				obj.pos++
			}
			continue
		}
		break
	}
}

// eof errors unless only whitespace remains.
func (obj *parser) eof() error {
	obj.whitespace()
	if obj.pos < len(obj.input) {
		return obj.errorf("trailing input")
	}
	return nil
}

// word accepts the next word, if there is one. Words never start with a
// digit; those are number literals.
func (obj *parser) word() (string, bool) {
	obj.whitespace()
	start := obj.pos
	if start >= len(obj.input) {
		return "", false
	}
	if !isWordChar(obj.input[start]) || isDigit(obj.input[start]) {
		return "", false
	}
	end := start
	for end < len(obj.input) && isWordChar(obj.input[end]) {
		end++
	}
	obj.pos = end
	return obj.input[start:end], true
}

// number accepts the next integer literal, if there is one.
func (obj *parser) number() (int64, bool, error) {
	obj.whitespace()
	start := obj.pos
	end := start
	for end < len(obj.input) && isDigit(obj.input[end]) {
		end++
	}
	if end == start {
		return 0, false, nil
	}
	v, err := strconv.ParseInt(obj.input[start:end], 10, 64)
	if err != nil {
		return 0, false, errwrap.Wrapf(err, "bad integer literal")
	}
	obj.pos = end
	return v, true, nil
}

// accept consumes the given structural byte, if it is next.
func (obj *parser) accept(c byte) bool {
	obj.whitespace()
	if obj.pos < len(obj.input) && obj.input[obj.pos] == c {
		obj.pos++
		return true
	}
	return false
}

// expect consumes the given structural byte or errors.
func (obj *parser) expect(c byte) error {
	if !obj.accept(c) {
		return obj.errorf("expected `%c`", c)
	}
	return nil
}

// expectWord consumes the given exact word or errors.
func (obj *parser) expectWord(w string) error {
	save := obj.pos
	word, ok := obj.word()
	if !ok || word != w {
		obj.pos = save
		return obj.errorf("expected `%s`", w)
	}
	return nil
}

// expression parses a full expression with binary operators.
func (obj *parser) expression() (interfaces.Expr, error) {
	return obj.binary(0)
}

// binary is standard precedence climbing over the operator words. An
// operator turns into a call of the operator's binding with the operands
// tupled up.
func (obj *parser) binary(min int) (interfaces.Expr, error) {
	left, err := obj.tight()
	if err != nil {
		return nil, err
	}
	for {
		save := obj.pos
		word, ok := obj.word()
		if !ok {
			break
		}
		prec, isOp := operators[word]
		if !isOp || prec < min {
			obj.pos = save
			break
		}
		right, err := obj.binary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.ExprCall{
			Fn:  &ast.ExprVar{Name: word},
			Arg: &ast.ExprTuple{Parts: []interfaces.Expr{left, right}},
		}
	}
	return left, nil
}

// tight parses an atom and its postfix chain of calls and accessors.
func (obj *parser) tight() (interfaces.Expr, error) {
	expr, err := obj.atom()
	if err != nil {
		return nil, err
	}
	for {
		if obj.accept('(') {
			args, err := obj.arguments()
			if err != nil {
				return nil, err
			}
			var arg interfaces.Expr
			if len(args) == 1 {
				arg = args[0]
			} else {
				arg = &ast.ExprTuple{Parts: args}
			}
			expr = &ast.ExprCall{Fn: expr, Arg: arg}
			continue
		}
		if obj.accept('.') {
			field, ok := obj.word()
			if !ok {
				return nil, obj.errorf("expected a form name after `.`")
			}
			expr = &ast.ExprAccessor{Expr: expr, Field: field}
			continue
		}
		return expr, nil
	}
}

// arguments parses a comma-separated expression list up to the closing
// parenthesis, which is consumed.
func (obj *parser) arguments() ([]interfaces.Expr, error) {
	var args []interfaces.Expr
	if obj.accept(')') {
		return args, nil
	}
	for {
		arg, err := obj.expression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if obj.accept(',') {
			continue
		}
		if err := obj.expect(')'); err != nil {
			return nil, err
		}
		return args, nil
	}
}

func (obj *parser) atom() (interfaces.Expr, error) {
	if v, ok, err := obj.number(); err != nil {
		return nil, err
	} else if ok {
		return &ast.ExprInt{V: v}, nil
	}

	if obj.accept('(') {
		args, err := obj.arguments()
		if err != nil {
			return nil, err
		}
		if len(args) == 1 {
			return args[0], nil
		}
		return &ast.ExprTuple{Parts: args}, nil
	}

	obj.whitespace()
	if obj.pos < len(obj.input) && obj.input[obj.pos] == '{' {
		return obj.block()
	}

	save := obj.pos
	word, ok := obj.word()
	if !ok {
		return nil, obj.errorf("expected an expression")
	}
	if word == "function" {
		return obj.lambda()
	}
	if _, reserved := keywords[word]; reserved {
		obj.pos = save
		return nil, obj.errorf("reserved keyword `%s`", word)
	}
	return &ast.ExprVar{Name: word}, nil
}

// lambda parses the parameter list and block of a function literal, with the
// `function` keyword already consumed. Several parameters become a tuple
// argument broken apart at the top of the body.
func (obj *parser) lambda() (interfaces.Expr, error) {
	if err := obj.expect('('); err != nil {
		return nil, err
	}
	var typs []interfaces.Expr
	var names []string
	if !obj.accept(')') {
		for {
			typ, err := obj.expression()
			if err != nil {
				return nil, err
			}
			name, ok := obj.word()
			if !ok {
				return nil, obj.errorf("expected a parameter name")
			}
			if _, reserved := keywords[name]; reserved {
				return nil, obj.errorf("reserved keyword `%s`", name)
			}
			typs = append(typs, typ)
			names = append(names, name)
			if obj.accept(',') {
				continue
			}
			if err := obj.expect(')'); err != nil {
				return nil, err
			}
			break
		}
	}
	body, err := obj.block()
	if err != nil {
		return nil, err
	}

	switch len(names) {
	case 0:
		return &ast.ExprFuncDefine{
			ArgName: breakArgName,
			ArgType: &ast.ExprTuple{},
			Body:    body,
		}, nil
	case 1:
		return &ast.ExprFuncDefine{
			ArgName: names[0],
			ArgType: typs[0],
			Body:    body,
		}, nil
	}
	return &ast.ExprFuncDefine{
		ArgName: breakArgName,
		ArgType: &ast.ExprTuple{Parts: typs},
		Body: &ast.ExprTupleBreak{
			Source: &ast.ExprVar{Name: breakArgName},
			Names:  names,
			Body:   body,
		},
	}, nil
}

// block parses a braced statement sequence into a procedure expression.
func (obj *parser) block() (interfaces.Expr, error) {
	stmt, err := obj.compound()
	if err != nil {
		return nil, err
	}
	return &ast.ExprProc{Body: stmt}, nil
}

// compound parses `{ statements }`.
func (obj *parser) compound() (*ast.StmtCompound, error) {
	if err := obj.expect('{'); err != nil {
		return nil, err
	}
	var stmts []interfaces.Stmt
	for {
		if obj.accept('}') {
			return &ast.StmtCompound{Stmts: stmts}, nil
		}
		obj.whitespace()
		if obj.pos >= len(obj.input) {
			return nil, obj.errorf("unterminated block")
		}
		stmt, err := obj.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
}

// statement parses one statement: a nested block, return, const define,
// typed define, or assignment.
func (obj *parser) statement() (interfaces.Stmt, error) {
	obj.whitespace()
	if obj.pos < len(obj.input) && obj.input[obj.pos] == '{' {
		return obj.compound()
	}

	save := obj.pos
	if word, ok := obj.word(); ok {
		switch word {
		case "return":
			value, err := obj.expression()
			if err != nil {
				return nil, err
			}
			if err := obj.expect(';'); err != nil {
				return nil, err
			}
			return &ast.StmtReturn{Value: value}, nil

		case "const":
			name, ok := obj.word()
			if !ok {
				return nil, obj.errorf("expected a name after `const`")
			}
			if err := obj.expectWord("="); err != nil {
				return nil, err
			}
			value, err := obj.expression()
			if err != nil {
				return nil, err
			}
			if err := obj.expect(';'); err != nil {
				return nil, err
			}
			return &ast.StmtDefine{Name: name, Value: value}, nil
		}
		obj.pos = save
	}

	// either `T name = e;` or `name = e;`; parse an expression and let the
	// next word decide. `=` is a word, but never an operator, so the
	// expression stops in front of it.
	expr, err := obj.expression()
	if err != nil {
		return nil, err
	}
	word, ok := obj.word()
	if !ok {
		return nil, obj.errorf("expected a statement")
	}
	if word == "=" {
		v, ok := expr.(*ast.ExprVar)
		if !ok {
			return nil, obj.errorf("assignment target must be a name, not %s", expr)
		}
		value, err := obj.expression()
		if err != nil {
			return nil, err
		}
		if err := obj.expect(';'); err != nil {
			return nil, err
		}
		return &ast.StmtAssign{Name: v.Name, Value: value}, nil
	}
	if _, reserved := keywords[word]; reserved {
		return nil, obj.errorf("reserved keyword `%s`", word)
	}
	if err := obj.expectWord("="); err != nil {
		return nil, err
	}
	value, err := obj.expression()
	if err != nil {
		return nil, err
	}
	if err := obj.expect(';'); err != nil {
		return nil, err
	}
	return &ast.StmtDefine{TypeExpr: expr, Name: word, Value: value}, nil
}
