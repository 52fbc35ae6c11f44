package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/drgo/bibtex"
)

// App runs one invocation of bibsin.
type App struct {
	outW   io.Writer
	errW   io.Writer
	logger *slog.Logger
	config *Config
}

// NewApp returns an App writing results to outW and logs and reports to
// errW.
func NewApp(outW, errW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, errW)
	logger.Debug("Logger configured.", "level", cfg.LogLevel, "format", cfg.LogFormat)
	return &App{outW: outW, errW: errW, logger: logger, config: cfg}
}

// Run parses every input, applies the requested set operation, key fixing
// and sorting, then writes the result.
func (a *App) Run(ctx context.Context) error {
	cfg := a.config
	opts := cfg.options()
	opts.Logger = a.logger

	var files []*bibtex.File
	for _, path := range cfg.Paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		db, err := bibtex.OpenFile(path, opts)
		if err != nil {
			return err
		}
		f, err := db.File()
		if err != nil {
			return err
		}
		a.logger.Info("Parsed source.", "file", path, "entries", db.Len(),
			"macros", db.Macros().Len(), "warnings", len(db.Warnings()))
		files = append(files, f)
	}

	result, err := a.combine(files)
	if err != nil {
		return err
	}
	if cfg.FixKeys {
		dr, err := bibtex.FixKeys(result, nil, false)
		if err != nil {
			return err
		}
		a.logger.Info("Keys fixed.", "duplicate_sets", dr.DuplicateSetCount)
	}
	if cfg.Sort != "" {
		if err := bibtex.Sort(result, cfg.Sort); err != nil {
			return err
		}
	}

	if cfg.SplitDir != "" {
		written, err := bibtex.ExportSplit(result, cfg.SplitDir)
		for _, name := range written {
			a.logger.Info("Wrote file.", "file", name)
		}
		return err
	}
	return a.output(result)
}

// combine applies the configured set operation. Several inputs without one
// are concatenated.
func (a *App) combine(files []*bibtex.File) (*bibtex.File, error) {
	cfg := a.config
	action := cfg.Action
	if action == bibtex.SetNoAction {
		if len(cfg.DedupFields) == 0 && len(files) == 1 {
			return files[0], nil
		}
		if len(cfg.DedupFields) > 0 {
			// report only
			_, dr, err := bibtex.Deduplicate(files, cfg.DedupFields, bibtex.SetNoAction)
			if err != nil {
				return nil, err
			}
			if err := dr.Print(a.errW); err != nil {
				return nil, err
			}
		}
		if len(files) == 1 {
			return files[0], nil
		}
		action = bibtex.SetConcat
	}
	res, dr, err := bibtex.Deduplicate(files, cfg.DedupFields, action)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Set operation done.", "action", action.String(),
		"duplicate_sets", dr.DuplicateSetCount, "result", dr.ResultSetCount)
	return res, nil
}

func (a *App) output(f *bibtex.File) (err error) {
	w := a.outW
	if a.config.Output != "" {
		out, err := os.Create(a.config.Output)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := out.Close(); err == nil {
				err = cerr
			}
		}()
		w = out
	}
	switch {
	case a.config.Names && a.config.Format == "json":
		return writeJSON(w, nameLists(f))
	case a.config.Names:
		return writeNames(w, f)
	case a.config.Format == "json":
		return writeJSON(w, f.Entries)
	}
	return bibtex.Write(w, f)
}

// nameList is the decomposition of one author or editor field.
type nameList struct {
	Key   string              `json:"key"`
	Role  string              `json:"role"`
	Names []bibtex.PersonName `json:"names"`
}

func nameLists(f *bibtex.File) []nameList {
	var out []nameList
	for _, e := range f.Entries {
		for _, role := range []string{"author", "editor"} {
			if v, ok := e.Lookup(role); ok {
				out = append(out, nameList{Key: e.Key, Role: role, Names: bibtex.ParseNames(v)})
			}
		}
	}
	return out
}

func writeNames(w io.Writer, f *bibtex.File) error {
	for _, l := range nameLists(f) {
		for _, n := range l.Names {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", l.Key, l.Role, n); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
