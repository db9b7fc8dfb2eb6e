// Command formstate validates value files against YAML form schemas.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reoring/formstate"
	"github.com/reoring/formstate/i18n"
	"github.com/reoring/formstate/internal/config"
	"github.com/reoring/formstate/internal/logger"
	"github.com/reoring/formstate/schemafile"
	"github.com/reoring/formstate/snapshot"
)

// Exit codes.
const (
	exitOK      = 0
	exitInvalid = 1
	exitUsage   = 2
	exitError   = 3
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "formstate CLI\n\nUsage:\n  formstate validate -schema form.yaml -values values.json [-lang en] [-indent]\n  formstate jsonschema -schema form.yaml\n  formstate rules\n\nEnvironment: FORMSTATE_LANG, FORMSTATE_LOG_LEVEL, FORMSTATE_LOG_FORMAT (also read from .env).")
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return exitUsage
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return exitError
	}
	log, err := newLogger(cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return exitError
	}

	switch args[0] {
	case "validate":
		return validateCmd(args[1:], cfg, log, stdout, stderr)
	case "jsonschema":
		return jsonSchemaCmd(args[1:], stdout, stderr)
	case "rules":
		for _, name := range schemafile.RuleNames() {
			fmt.Fprintln(stdout, name)
		}
		return exitOK
	default:
		usage(stderr)
		return exitUsage
	}
}

func newLogger(cfg config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	format, err := logger.ParseFormat(cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return logger.New(logger.WithOutput(w), logger.WithLevel(level), logger.WithFormat(format)), nil
}

func validateCmd(args []string, cfg config.Config, log *slog.Logger, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var schemaPath, valuesPath, lang string
	var indent bool
	fs.StringVar(&schemaPath, "schema", "", "YAML schema file")
	fs.StringVar(&valuesPath, "values", "", "JSON or YAML values file")
	fs.StringVar(&lang, "lang", cfg.Lang, "message language")
	fs.BoolVar(&indent, "indent", false, "indent JSON output")
	if err := fs.Parse(args); err != nil || schemaPath == "" || valuesPath == "" {
		fs.Usage()
		return exitUsage
	}

	i18n.SetLanguage(lang)
	schema, err := schemafile.LoadFile(schemaPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	values, err := readValues(valuesPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	f, err := formstate.New(schema, formstate.WithInitialValues(values), formstate.WithLogger(log))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	valid := f.ValidateAll()
	log.Info("validated", slog.String("schema", schemaPath), slog.String("values", valuesPath), slog.Bool("valid", valid))
	if err := snapshot.Write(stdout, snapshot.Capture(f), indent); err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	if !valid {
		return exitInvalid
	}
	return exitOK
}

func readValues(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var v map[string]any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		if v == nil {
			v = map[string]any{}
		}
		return v, nil
	default:
		return snapshot.DecodeValues(data)
	}
}

func jsonSchemaCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("jsonschema", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var schemaPath string
	fs.StringVar(&schemaPath, "schema", "", "YAML schema file")
	if err := fs.Parse(args); err != nil || schemaPath == "" {
		fs.Usage()
		return exitUsage
	}
	schema, err := schemafile.LoadFile(schemaPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	js, err := schema.JSONSchema()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	out, err := json.MarshalIndent(js, "", "  ")
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	fmt.Fprintln(stdout, string(out))
	return exitOK
}
