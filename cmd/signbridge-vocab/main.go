package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/signbridge/signbridge-core/internal/translation"
	"github.com/signbridge/signbridge-core/internal/vocabulary"
	"gopkg.in/yaml.v3"
)

var version = "0.1.0-dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintln(stderr, "expected 'validate', 'dump', 'translate' or 'version'")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(stderr)
		path := fs.String("file", "vocabulary.yaml", "Path to vocabulary file")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		vocab, err := vocabulary.Load(*path)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		fmt.Fprintf(stdout, "vocabulary valid (%d gestures)\n", vocab.Len())
	case "dump":
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(vocabulary.Builtin()); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		_ = enc.Close()
	case "translate":
		fs := flag.NewFlagSet("translate", flag.ContinueOnError)
		fs.SetOutput(stderr)
		path := fs.String("file", "", "Path to vocabulary file (builtin when empty)")
		text := fs.String("text", "", "Text to translate to sign")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		vocab := vocabulary.Default()
		if *path != "" {
			var err error
			if vocab, err = vocabulary.Load(*path); err != nil {
				fmt.Fprintln(stderr, err)
				return 1
			}
		}
		seq, ok := translation.NewEngine(vocab).TextToSign(*text)
		if !ok {
			fmt.Fprintln(stderr, "nothing to translate")
			return 1
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(seq)
	case "version":
		fmt.Fprintln(stdout, version)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		return 2
	}
	return 0
}
