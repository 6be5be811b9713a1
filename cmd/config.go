package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/clems4ever/saxstream/sax"
)

// fileOptions is the YAML shape of a parser options file, shared by all
// commands that accept --config.
type fileOptions struct {
	Strict           bool   `yaml:"strict"`
	CaseTransform    string `yaml:"caseTransform"`
	Trim             bool   `yaml:"trim"`
	Normalize        bool   `yaml:"normalize"`
	Namespaces       bool   `yaml:"namespaces"`
	TrackPosition    bool   `yaml:"trackPosition"`
	StrictEntities   bool   `yaml:"strictEntities"`
	UnquotedValues   *bool  `yaml:"unquotedAttributeValues"`
	UnparsedEntities bool   `yaml:"unparsedEntities"`
	AllowScript      bool   `yaml:"allowScript"`
	MaxBufferLength  int    `yaml:"maxBufferLength"`
}

func loadOptions(path string) (sax.Options, error) {
	var opts sax.Options
	if path == "" {
		return opts, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("failed to read options file: %w", err)
	}
	var fo fileOptions
	if err := yaml.Unmarshal(data, &fo); err != nil {
		return opts, fmt.Errorf("failed to decode options file: %w", err)
	}
	opts = sax.Options{
		Strict:                  fo.Strict,
		Trim:                    fo.Trim,
		Normalize:               fo.Normalize,
		Namespaces:              fo.Namespaces,
		TrackPosition:           fo.TrackPosition,
		StrictEntities:          fo.StrictEntities,
		UnquotedAttributeValues: fo.UnquotedValues,
		UnparsedEntities:        fo.UnparsedEntities,
		AllowScript:             fo.AllowScript,
		MaxBufferLength:         fo.MaxBufferLength,
	}
	switch fo.CaseTransform {
	case "", "preserve":
	case "lowercase":
		opts.CaseTransform = sax.CaseLower
	case "uppercase":
		opts.CaseTransform = sax.CaseUpper
	default:
		return opts, fmt.Errorf("unknown caseTransform %q", fo.CaseTransform)
	}
	return opts, nil
}
