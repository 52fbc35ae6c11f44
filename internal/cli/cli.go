package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/drgo/bibtex"
	"github.com/drgo/bibtex/internal/app"
	"github.com/drgo/bibtex/internal/config"
)

// ExitError is an error carrying the process exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns the run configuration,
// whether the program should exit cleanly (help was printed), or an
// *ExitError. Settings from -config apply unless the matching flag is set.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("bibsin", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
bibsin - parse, merge, deduplicate and rewrite BibTeX databases.

Usage:
  bibsin [options] FILE.bib...

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to an HCL settings file.")
	strictFlag := flagSet.Bool("strict", false, "Fail on grammar errors, undefined macros and missing crossrefs.")
	encodingFlag := flagSet.String("encoding", "", "Source encoding, e.g. 'latin1' or 'windows-1252'. Default UTF-8.")
	monthsFlag := flagSet.Bool("months", true, "Predefine the month macros jan ... dec.")
	dedupFlag := flagSet.String("dedup", "", "Comma-separated fields identifying duplicates; 'citekey' adds the key.")
	actionFlag := flagSet.String("action", "none", "Set operation: 'none', 'intersect', 'union' or 'concat'.")
	fixKeysFlag := flagSet.Bool("fix-keys", false, "Give entries without a key a new one and make keys unique.")
	sortFlag := flagSet.String("sort", "", "Sort by comma-separated fields, '-' for descending, e.g. 'type,-year'.")
	splitFlag := flagSet.String("split", "", "Write one file per entry type into this directory.")
	namesFlag := flagSet.Bool("names", false, "Write decomposed author and editor names instead of entries.")
	formatFlag := flagSet.String("format", "bibtex", "Output format. Options: 'bibtex' or 'json'.")
	outputFlag := flagSet.String("o", "", "Output file. Default stdout.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() == 0 {
		slog.Debug("No input files provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	set := make(map[string]bool)
	flagSet.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg := app.Config{
		Paths:     flagSet.Args(),
		Strict:    *strictFlag,
		Encoding:  *encodingFlag,
		Months:    *monthsFlag,
		FixKeys:   *fixKeysFlag,
		Sort:      *sortFlag,
		SplitDir:  *splitFlag,
		Names:     *namesFlag,
		Format:    strings.ToLower(*formatFlag),
		Output:    *outputFlag,
		LogFormat: strings.ToLower(*logFormatFlag),
		LogLevel:  strings.ToLower(*logLevelFlag),
	}
	action := *actionFlag
	if *dedupFlag != "" {
		cfg.DedupFields = splitList(*dedupFlag)
	}

	if *configFlag != "" {
		settings, err := config.Load(*configFlag)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		apply(&cfg, &action, settings, set)
		slog.Debug("Settings file applied.", "file", *configFlag)
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	var err error
	if cfg.Action, err = bibtex.ParseSetAction(action); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("CLI parameter validation complete.")

	appConfig, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("CLI parser finished successfully.", "config", appConfig)
	return appConfig, false, nil
}

// apply copies the settings that no flag overrides into cfg.
func apply(cfg *app.Config, action *string, s *config.Settings, set map[string]bool) {
	if s.Strict != nil && !set["strict"] {
		cfg.Strict = *s.Strict
	}
	if s.Encoding != nil && !set["encoding"] {
		cfg.Encoding = *s.Encoding
	}
	if s.Months != nil && !set["months"] {
		cfg.Months = *s.Months
	}
	if s.LogLevel != nil && !set["log-level"] {
		cfg.LogLevel = strings.ToLower(*s.LogLevel)
	}
	if s.LogFormat != nil && !set["log-format"] {
		cfg.LogFormat = strings.ToLower(*s.LogFormat)
	}
	if s.Sort != nil && !set["sort"] {
		cfg.Sort = *s.Sort
	}
	if s.FixKeys != nil && !set["fix-keys"] {
		cfg.FixKeys = *s.FixKeys
	}
	if s.Format != nil && !set["format"] {
		cfg.Format = strings.ToLower(*s.Format)
	}
	if len(s.DedupFields) > 0 && !set["dedup"] {
		cfg.DedupFields = s.DedupFields
	}
	if s.DedupAction != nil && !set["action"] {
		*action = *s.DedupAction
	}
	cfg.Macros = s.Macros
}

func splitList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}
