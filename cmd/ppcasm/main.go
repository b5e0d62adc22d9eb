// Command ppcasm is a thin driver around the ppcasm library: it reads a
// text file with one instruction or directive per line, encodes it into a
// compilation unit, and writes the generated host source fragments to the
// output. The real host embeds the library directly; this front end exists
// for inspection and testing of the generated stream.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/participle"
	"github.com/alecthomas/participle/lexer"
	"github.com/davecgh/go-spew/spew"
	"github.com/logrusorgru/aurora"
	"github.com/mileusna/conditional"

	"github.com/dyngen/ppcasm"
)

const lexerRegex = `([ \t]+)|` +
	`(?P<Punct>[:,])|` +
	`(?P<Atom>[^\s:,]+)`

// srcLine is one parsed input line: an optional label definition followed
// by an optional mnemonic/directive with comma-separated operands.
type srcLine struct {
	Pos lexer.Position

	Label    *string    `parser:"( @Atom \":\" )?"`
	Mnemonic *string    `parser:"( @Atom"`
	Operands []*operand `parser:"  ( @@ ( \",\" @@ )* )? )?"`
}

// operand covers the operand micro-syntax the library understands: a head
// token, an optional ":reg" override, and trailing atoms (e.g. the member
// of a type-alias displacement, or a multi-word C type in .type).
type operand struct {
	Head string   `parser:"@Atom"`
	Reg  *string  `parser:"( \":\" @Atom )?"`
	Tail []string `parser:"( @Atom )*"`
}

func (o *operand) text() string {
	s := o.Head
	if o.Reg != nil {
		s += ":" + *o.Reg
	}
	if len(o.Tail) > 0 {
		s += " " + strings.Join(o.Tail, " ")
	}
	return s
}

func main() {
	doMain(os.Stdout, os.Stderr, os.Exit)
}

// doMain is separated out for the purpose of unit testing.
func doMain(stdOut, stdErr io.Writer, exit func(code int)) {
	flags := flag.NewFlagSet("ppcasm", flag.ExitOnError)
	flags.SetOutput(stdErr)
	outPath := flags.String("o", "", "output file (default stdout)")
	debug := flags.Bool("debug", false, "dump the derived opcode-template table to stderr")
	_ = flags.Parse(os.Args[1:])

	if flags.NArg() != 1 {
		fmt.Fprintln(stdErr, "usage: ppcasm [-o out.c] [-debug] input.s")
		exit(1)
		return
	}

	host := &textHost{stdErr: stdErr}
	unit, err := ppcasm.NewUnit(ppcasm.NewConfig().WithHost(host))
	if err != nil {
		fmt.Fprintln(stdErr, aurora.Red(err.Error()))
		exit(1)
		return
	}

	if *debug {
		spew.Fdump(stdErr, unit.Templates())
	}

	in, err := os.Open(flags.Arg(0))
	if err != nil {
		fmt.Fprintln(stdErr, aurora.Red(err.Error()))
		exit(1)
		return
	}
	defer in.Close()

	if err := assemble(unit, host, flags.Arg(0), in); err != nil {
		exit(1)
		return
	}
	unit.Finish()

	out := stdOut
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintln(stdErr, aurora.Red(err.Error()))
			exit(1)
			return
		}
		defer f.Close()
		out = f
	}
	if err := host.render(out); err != nil {
		fmt.Fprintln(stdErr, aurora.Red(err.Error()))
		exit(1)
		return
	}
	fmt.Fprintf(stdErr, "ppcasm: wrote %s\n",
		conditional.String(*outPath == "", "stdout", *outPath))
	exit(0)
}

// assemble feeds the input to the unit line by line. The first error aborts
// the unit, matching its fail-fast contract. Errors raised by the unit are
// reported through the host; errors raised here are handed to it.
func assemble(unit *ppcasm.Unit, host *textHost, name string, in io.Reader) error {
	parser := participle.MustBuild(&srcLine{},
		participle.Lexer(lexer.Must(lexer.Regexp(lexerRegex))),
		participle.UseLookahead(2))

	scanner := bufio.NewScanner(in)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		host.at(name, lineNo)
		text := stripComment(scanner.Text())
		if strings.TrimSpace(text) == "" {
			continue
		}
		line := &srcLine{}
		if err := parser.ParseString(text, line); err != nil {
			host.Report(err)
			return err
		}
		if line.Label != nil {
			if err := unit.DefineLabel(*line.Label); err != nil {
				return err
			}
		}
		if line.Mnemonic == nil {
			continue
		}
		operands := make([]string, len(line.Operands))
		for i, o := range line.Operands {
			operands[i] = o.text()
		}
		if err := dispatch(unit, host, *line.Mnemonic, operands); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// dispatch routes directives (leading '.') to the pseudo-operations and
// everything else to the encoder. Directive-level errors are reported here;
// the unit reports its own through the host.
func dispatch(unit *ppcasm.Unit, host *textHost, mnemonic string, operands []string) error {
	if !strings.HasPrefix(mnemonic, ".") {
		return unit.Encode(mnemonic, operands...)
	}
	switch mnemonic {
	case ".stream":
		unit.MarkStreamOutput()
	case ".enum":
		unit.MarkGlobalEnumOutput()
	case ".names":
		unit.MarkGlobalNamesOutput()
	case ".externs":
		unit.MarkExternNamesOutput()
	case ".flush":
		unit.Flush()
	case ".pc":
		if len(operands) != 1 {
			return host.errorf(".pc takes one label operand")
		}
		return unit.DefinePC(operands[0])
	case ".align":
		if len(operands) != 1 {
			return host.errorf(".align takes one operand")
		}
		n, err := strconv.ParseUint(operands[0], 0, 32)
		if err != nil {
			return host.errorf("bad alignment %q", operands[0])
		}
		return unit.Align(uint32(n))
	case ".section":
		if len(operands) != 1 {
			return host.errorf(".section takes one operand")
		}
		n, err := strconv.ParseUint(operands[0], 0, 16)
		if err != nil {
			return host.errorf("bad section number %q", operands[0])
		}
		unit.SwitchSection(uint16(n))
	case ".word":
		words := make([]uint32, len(operands))
		for i, o := range operands {
			w, err := strconv.ParseUint(o, 0, 32)
			if err != nil {
				return host.errorf("bad data word %q", o)
			}
			words[i] = uint32(w)
		}
		unit.RawWords(words...)
	case ".type":
		switch len(operands) {
		case 2:
			return unit.DefineType(operands[0], operands[1], "")
		case 3:
			return unit.DefineType(operands[0], operands[1], operands[2])
		default:
			return host.errorf(".type takes a name, a native type and an optional default register")
		}
	default:
		return host.errorf("unknown directive %q", mnemonic)
	}
	return nil
}

func stripComment(line string) string {
	if i := strings.IndexAny(line, "#;"); i >= 0 {
		return line[:i]
	}
	return line
}
