package app

import (
	"errors"
	"fmt"
	"maps"

	"github.com/drgo/bibtex"
)

// Config holds everything a run needs, after flags and the settings file
// have been merged.
type Config struct {
	Paths    []string // .bib files, read in order
	Strict   bool
	Encoding string
	Months   bool              // predefine jan ... dec
	Macros   map[string]string // predefined @string macros

	DedupFields []string
	Action      bibtex.SetActionType
	FixKeys     bool
	Sort        string
	SplitDir    string

	Names  bool   // write decomposed author and editor names instead of entries
	Format string // bibtex or json
	Output string // file name; stdout if empty

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.Paths) == 0 {
		return nil, errors.New("at least one .bib file is required")
	}
	switch cfg.Format {
	case "":
		cfg.Format = "bibtex"
	case "bibtex", "json":
	default:
		return nil, fmt.Errorf("invalid format %q: must be 'bibtex' or 'json'", cfg.Format)
	}
	if cfg.SplitDir != "" && (cfg.Names || cfg.Format != "bibtex") {
		return nil, errors.New("-split writes BibTeX entries only")
	}
	return &cfg, nil
}

// options returns the parser options for one source.
func (c *Config) options() bibtex.Options {
	macros := make(map[string]string, len(c.Macros)+12)
	if c.Months {
		maps.Copy(macros, bibtex.MonthMacros())
	}
	maps.Copy(macros, c.Macros)
	return bibtex.Options{Strict: c.Strict, Encoding: c.Encoding, Macros: macros}
}
