package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/polyglot/bridge"
	"github.com/wippyai/polyglot/inspect"
	wasmoracle "github.com/wippyai/polyglot/oracle/wasm"
	"github.com/wippyai/polyglot/traits"
)

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to core wasm module")
		demo        = flag.Bool("demo", false, "Inspect a built-in demo module")
		name        = flag.String("name", "main", "Module instance name")
		path        = flag.String("path", "", "Dotted path to the value to describe (e.g. memory.data)")
		call        = flag.Bool("call", false, "Execute the value at -path")
		args        = flag.String("args", "", "Call arguments (comma-separated)")
		list        = flag.Bool("list", false, "List exports and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Log bridge activity to stderr")
	)
	flag.Parse()

	if *wasmFile == "" && !*demo {
		fmt.Fprintln(os.Stderr, "Usage: inspect -wasm <file.wasm> [-path a.b] [-call -args 1,2] [-v]")
		fmt.Fprintln(os.Stderr, "       inspect -wasm <file.wasm> -list")
		fmt.Fprintln(os.Stderr, "       inspect -wasm <file.wasm> -i  (interactive mode)")
		fmt.Fprintln(os.Stderr, "       inspect -demo ...")
		os.Exit(1)
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	bin, err := readModule(*wasmFile, *demo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *list {
		if err := listExports(bin); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *interactive {
		if err := runInteractive(bin, *name, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(bin, *name, *path, *call, *args, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger returns a development logger when verbose and installs it in
// every package that logs.
func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	traits.SetLogger(logger.Named("traits"))
	inspect.SetLogger(logger.Named("inspect"))
	wasmoracle.SetLogger(logger.Named("wasm"))
	return logger, nil
}

func readModule(path string, demo bool) ([]byte, error) {
	if demo {
		return demoModule(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

func listExports(bin []byte) error {
	exports, err := wasmoracle.ScanExports(bin)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	fmt.Printf("Exports: %d\n", len(exports))
	for _, e := range exports {
		switch e.Kind {
		case wasmoracle.ExternGlobal:
			mut := ""
			if e.Mutable {
				mut = "mut "
			}
			fmt.Printf("  %-7s %s: %s%s\n", e.Kind, e.Name, mut, api.ValueTypeName(e.ValType))
		default:
			fmt.Printf("  %-7s %s\n", e.Kind, e.Name)
		}
	}
	return nil
}

func run(bin []byte, name, path string, call bool, argStr string, logger *zap.Logger) error {
	ctx := context.Background()

	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	inst, err := wasmoracle.Load(ctx, rt, bin, name)
	if err != nil {
		return err
	}
	defer inst.Close(ctx)

	b := bridge.New(wasmoracle.New(wasmoracle.Options{Context: ctx}), bridge.Options{Logger: logger})

	v, err := resolve(b, inst, path)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", path, err)
	}

	if call {
		v, err = b.Oracle().Execute(v, parseArgs(argStr)...)
		if err != nil {
			return fmt.Errorf("call %s: %w", path, err)
		}
	}

	desc, err := b.Describe(v)
	if err != nil {
		return fmt.Errorf("describe: %w", err)
	}
	fmt.Println(desc)

	if call {
		return nil
	}
	p, err := b.Wrap(v)
	if err != nil {
		return err
	}
	fmt.Printf("Class: %s\n", p.Class().Name())
	fmt.Printf("Methods: %v\n", p.Class().Methods())
	return nil
}
