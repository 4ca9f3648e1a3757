// Command binpaccc is a thin CLI harness around the compilation
// pipeline (§6: the command-line tool itself is an external
// collaborator; this wires the pipeline the way a real driver would,
// trimmed to what the core spec covers).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/binpac-go/binpac"
)

const defaultWritePermission = 0644 // -rw-r--r--

type args struct {
	sourcePath *string

	astOnly     *bool
	grammarOnly *bool

	debugHooks *bool
	color      *bool

	outputPath *string
}

func readArgs() *args {
	a := &args{
		sourcePath: flag.String("source", "", "Path to the BinPAC++ source module"),

		astOnly:     flag.Bool("ast-only", false, "Stop after AST construction and scope resolution"),
		grammarOnly: flag.Bool("grammar-only", false, "Stop after grammar building and FIRST/FOLLOW analysis"),

		debugHooks: flag.Bool("emit-debug-hooks", false, "Emit debug-only hooks in generated code"),
		color:      flag.Bool("color", false, "Colorize diagnostics"),

		outputPath: flag.String("output", "/dev/stdout", "Path to write emitted HILTI to"),
	}
	flag.Parse()
	return a
}

func main() {
	a := readArgs()
	if *a.sourcePath == "" {
		log.Fatal("no source module informed (-source)")
	}

	source, err := os.ReadFile(*a.sourcePath)
	if err != nil {
		log.Fatal(err)
	}

	cfg := binpac.NewConfig()
	cfg.SetBool("codegen.emit_debug_hooks", *a.debugHooks)
	cfg.SetBool("diagnostics.color", *a.color)

	result, diags, err := binpac.Compile(*a.sourcePath, source, cfg)
	if diags.HasErrors() {
		fmt.Fprint(os.Stderr, diags.String())
	}
	if err != nil {
		log.Fatal("compilation failed")
	}

	if *a.astOnly {
		fmt.Printf("module %s: %d declarations\n", result.Module.Name, len(result.Module.Decls))
		return
	}

	if *a.grammarOnly {
		for name, g := range result.Grammars {
			fmt.Printf("grammar %s: %d productions, analyzed=%v\n", name, len(g.Symbols()), g.IsAnalyzed())
		}
		return
	}

	if result.HILTI == nil {
		log.Fatal("no HILTI module emitted (diagnostics prevented code generation)")
	}

	out := result.HILTI.String()
	if *a.outputPath == "/dev/stdout" {
		fmt.Print(out)
		return
	}
	if err := os.WriteFile(*a.outputPath, []byte(out), defaultWritePermission); err != nil {
		log.Fatal(err)
	}
}
