package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"fugue/types"
	"fugue/vm"
)

func main() {
	expr := flag.String("expr", "", "Compile an expression instead of a macro body")
	optimize := flag.Int("O", 1, "Optimization level (0-2)")
	verbosity := flag.Int("v", 0, "Log verbosity")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: fuguec [flags] [file ...]\n")
		fmt.Fprintf(os.Stderr, "Compiles macro bodies (stdin when no file is given) and prints the program.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	commonlog.Configure(*verbosity, nil)

	it := vm.New(nil, nil)
	if _, err := it.Globals().Set("optimize", types.NewInt(int64(*optimize))); err != nil {
		fmt.Fprintf(os.Stderr, "Error: -O: %v\n", err)
		os.Exit(1)
	}

	if *expr != "" {
		prog, err := it.CompileExpr(*expr)
		if err != nil {
			report(err)
			os.Exit(1)
		}
		fmt.Print(prog.Disassemble())
		return
	}

	status := 0
	files := flag.Args()
	if len(files) == 0 {
		files = []string{"-"}
	}
	for _, name := range files {
		src, err := readSource(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			status = 1
			continue
		}
		prog, err := it.Compile(src)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: ", name)
			report(err)
			status = 1
			continue
		}
		if len(files) > 1 {
			fmt.Printf("== %s\n", name)
		}
		fmt.Print(prog.Disassemble())
	}
	os.Exit(status)
}

// readSource reads a macro body, joining backslash-continued lines
func readSource(name string) (string, error) {
	var data []byte
	var err error
	if name == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return "", err
	}
	src := strings.ReplaceAll(string(data), "\\\n", "")
	return strings.TrimRight(src, "\n"), nil
}

func report(err error) {
	var se *vm.SyntaxError
	if errors.As(err, &se) {
		fmt.Fprintf(os.Stderr, "%% %s: %s\n", se.Code.Category(), se.Msg)
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
