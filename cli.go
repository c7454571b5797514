package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

func showUsage(w io.Writer) {
	fmt.Fprintf(w, `kiraz - A small language that compiles to WebAssembly text

Usage:
    kiraz <command> [arguments]

Commands:
    build <file>    Compile a .ki file to WebAssembly text
    check <file>    Parse and type-check a .ki file
    eval <code>     Compile inline kiraz code and print the WAT
    help            Show this help message

Examples:
    kiraz build -o program.wat hello.ki
    kiraz build -I lib main.ki
    kiraz check myfile.ki
    kiraz eval 'func f(a: Integer64) : Integer64 { return a; };'

Module search path: the importing file's directory, each -I directory,
then the entries of KIRAZ_PATH.

Use "kiraz <command> -h" for more information about a command.
`)
}

// pathList is a repeatable -I flag.
type pathList []string

func (p *pathList) String() string {
	return strings.Join(*p, string(os.PathListSeparator))
}

func (p *pathList) Set(value string) error {
	*p = append(*p, value)
	return nil
}

// newConfig builds a Config from command flags and the environment.
func newConfig(includes pathList, verbose bool, stderr io.Writer) *Config {
	cfg := DefaultConfig()
	cfg.ModulePaths = append(splitPathList(includes.String()), cfg.ModulePaths...)
	cfg.Logger = log.New(stderr, "kiraz: ", 0)
	cfg.Verbose = verbose
	return cfg
}

func buildCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fs.SetOutput(stderr)
	output := fs.String("o", "", "Output file path (default: <filename>.wat)")
	verbose := fs.Bool("v", false, "Show verbose compilation details")
	var includes pathList
	fs.Var(&includes, "I", "Add a directory to the module search path (repeatable)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: kiraz build [-o output] [-I dir]... [-v] <file>\n")
		fmt.Fprintf(stderr, "Compile a .ki file to WebAssembly text\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(stderr, "Error: expected exactly one file argument\n")
		fs.Usage()
		return 1
	}

	filename := fs.Arg(0)

	outputFile := *output
	if outputFile == "" {
		outputFile = strings.TrimSuffix(filename, ".ki") + ".wat"
	}

	if *verbose {
		fmt.Fprintf(stdout, "Compiling %s to %s...\n", filename, outputFile)
	}

	c := NewCompiler(newConfig(includes, *verbose, stderr))
	var wat bytes.Buffer
	if status := c.CompileFile(filename, &wat); status != StatusOK {
		fmt.Fprintf(stderr, "%s\n", c.Err())
		return int(status)
	}

	if err := os.WriteFile(outputFile, wat.Bytes(), 0644); err != nil {
		fmt.Fprintf(stderr, "Error writing WAT file %s: %v\n", outputFile, err)
		return 1
	}

	fmt.Fprintf(stdout, "Generated %s (%d bytes, %d bytes of static memory)\n", outputFile, wat.Len(), len(c.Memory()))
	return 0
}

func evalCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "Show verbose compilation details")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: kiraz eval [-v] <code>\n")
		fmt.Fprintf(stderr, "Compile inline kiraz code and print the WAT\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(stderr, "Error: expected exactly one code argument\n")
		fs.Usage()
		return 1
	}

	code := fs.Arg(0)

	if *verbose {
		fmt.Fprintf(stdout, "Evaluating: %s\n", code)
	}

	c := NewCompiler(newConfig(nil, *verbose, stderr))
	if status := c.CompileString(code, stdout); status != StatusOK {
		fmt.Fprintf(stderr, "%s\n", c.Err())
		return int(status)
	}
	return 0
}

func checkCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "Show verbose checking details")
	var includes pathList
	fs.Var(&includes, "I", "Add a directory to the module search path (repeatable)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: kiraz check [-I dir]... [-v] <file>\n")
		fmt.Fprintf(stderr, "Parse and type-check a .ki file\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(stderr, "Error: expected exactly one file argument\n")
		fs.Usage()
		return 1
	}

	filename := fs.Arg(0)

	if *verbose {
		fmt.Fprintf(stdout, "Checking %s...\n", filename)
	}

	c := NewCompiler(newConfig(includes, *verbose, stderr))
	if status := c.CheckFile(filename); status != StatusOK {
		fmt.Fprintf(stderr, "%s: %s\n", filename, c.Err())
		return int(status)
	}

	fmt.Fprintf(stdout, "%s: no errors found\n", filename)

	if *verbose {
		fmt.Fprintf(stdout, "AST: %s\n", ToSExpr(c.Module()))
		if module := c.Module(); module != nil && module.Symtab != nil {
			module.Symtab.Print(stdout)
		}
	}
	return 0
}

// run dispatches a command line and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		showUsage(stderr)
		return 1
	}

	command := args[0]
	rest := args[1:]

	switch command {
	case "build":
		return buildCommand(rest, stdout, stderr)
	case "eval":
		return evalCommand(rest, stdout, stderr)
	case "check":
		return checkCommand(rest, stdout, stderr)
	case "help", "-h", "--help":
		showUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", command)
		showUsage(stderr)
		return 1
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
