// Package config loads the optional bibsin.hcl settings file. File values
// are defaults; command-line flags override them.
package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// fileRoot is the HCL layout of a settings file.
type fileRoot struct {
	Strict    *bool     `hcl:"strict,optional"`
	Encoding  *string   `hcl:"encoding,optional"`
	Months    *bool     `hcl:"months,optional"`
	LogLevel  *string   `hcl:"log_level,optional"`
	LogFormat *string   `hcl:"log_format,optional"`
	Sort      *string   `hcl:"sort,optional"`
	FixKeys   *bool     `hcl:"fix_keys,optional"`
	Format    *string   `hcl:"format,optional"`
	Macros    cty.Value `hcl:"macros,optional"`
	Dedup     *dedup    `hcl:"dedup,block"`
}

type dedup struct {
	Fields []string `hcl:"fields,optional"`
	Action *string  `hcl:"action,optional"`
}

// Settings is the content of a settings file. Pointer fields are nil when
// the file leaves the setting out.
type Settings struct {
	Strict      *bool
	Encoding    *string
	Months      *bool
	LogLevel    *string
	LogFormat   *string
	Sort        *string
	FixKeys     *bool
	Format      *string
	Macros      map[string]string
	DedupFields []string
	DedupAction *string
}

// Load parses the named HCL file.
func Load(fileName string) (*Settings, error) {
	f, diags := hclparse.NewParser().ParseHCLFile(fileName)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %w", fileName, diags)
	}
	return decode(fileName, f)
}

// Parse parses HCL source; fileName is used in messages.
func Parse(src []byte, fileName string) (*Settings, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, fileName)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %w", fileName, diags)
	}
	return decode(fileName, f)
}

func decode(fileName string, f *hcl.File) (*Settings, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(f.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config file %s: %w", fileName, diags)
	}
	macros, err := macroMap(root.Macros)
	if err != nil {
		return nil, fmt.Errorf("config file %s: macros: %w", fileName, err)
	}
	s := &Settings{
		Strict:    root.Strict,
		Encoding:  root.Encoding,
		Months:    root.Months,
		LogLevel:  root.LogLevel,
		LogFormat: root.LogFormat,
		Sort:      root.Sort,
		FixKeys:   root.FixKeys,
		Format:    root.Format,
		Macros:    macros,
	}
	if root.Dedup != nil {
		s.DedupFields = root.Dedup.Fields
		s.DedupAction = root.Dedup.Action
	}
	return s, nil
}

// macroMap converts the macros attribute, an object or map of strings,
// to a Go map. Numbers are accepted and converted to their decimal text.
func macroMap(v cty.Value) (map[string]string, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("value must be known")
	}
	ty := v.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("expected an object of strings, found %s", ty.FriendlyName())
	}
	mv, err := convert.Convert(v, cty.Map(cty.String))
	if err != nil {
		return nil, err
	}
	var out map[string]string
	if err := gocty.FromCtyValue(mv, &out); err != nil {
		return nil, err
	}
	return out, nil
}
