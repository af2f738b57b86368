package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceFile    SourceKind = "file"
)

// Source is where an effective value came from.
type Source struct {
	Kind   SourceKind
	Name   string // for default
	File   string
	Line   int
	Column int
}

func (s Source) String() string {
	if s.Kind == SourceFile && s.File != "" {
		return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
	}
	if s.Name != "" {
		return string(s.Kind) + " (" + s.Name + ")"
	}
	return string(s.Kind)
}

type LoadResult struct {
	Config  *Config
	Path    string            // requested config path
	Sources map[string]Source // YAML path -> file position of the last writer
	Files   []string          // loaded files, includes first
}

// Load reads the merged configuration from the standard location.
func Load() (*Config, error) {
	res, err := LoadWithSources()
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadWithSources loads config and returns file-level sources for introspection.
func LoadWithSources() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads path and its includes. A missing file yields the
// defaults.
func LoadFromPath(path string) (*LoadResult, error) {
	res := &LoadResult{Path: path, Sources: map[string]Source{}}

	var raw RawConfig
	switch _, err := os.Stat(path); {
	case err == nil:
		l := &loader{seen: map[string]bool{}}
		ly, err := l.load(path)
		if err != nil {
			return nil, err
		}
		raw, res.Sources, res.Files = ly.raw, ly.sources, ly.files
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	cfg, err := BuildEffectiveConfig(raw)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		return nil, withSource(err, res.Sources)
	}
	res.Config = cfg
	return res, nil
}

// layer is one file merged over everything it includes.
type layer struct {
	raw     RawConfig
	sources map[string]Source
	files   []string
}

func (ly *layer) add(o layer) {
	ly.raw = ly.raw.merge(o.raw)
	maps.Copy(ly.sources, o.sources)
	ly.files = append(ly.files, o.files...)
}

// loader walks a file and its includes depth first. chain is the include
// path currently being loaded; seen files are merged only once.
type loader struct {
	seen  map[string]bool
	chain []string
}

func (l *loader) load(path string) (layer, error) {
	file := canonicalPath(path)
	if i := slices.Index(l.chain, file); i >= 0 {
		return layer{}, fmt.Errorf("include cycle: %s -> %s", strings.Join(l.chain[i:], " -> "), file)
	}
	out := layer{sources: map[string]Source{}}
	if l.seen[file] {
		return out, nil
	}
	l.seen[file] = true

	data, err := os.ReadFile(file)
	if err != nil {
		return layer{}, fmt.Errorf("read %s: %w", file, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return layer{}, fmt.Errorf("%s: %w", file, err)
	}
	var raw RawConfig
	if err := decodeStrict(data, &raw); err != nil {
		return layer{}, fmt.Errorf("%s: %w", file, err)
	}
	own := nodeSources(&doc, file)

	l.chain = append(l.chain, file)
	defer func() { l.chain = l.chain[:len(l.chain)-1] }()

	for i, inc := range raw.Include {
		paths, err := expandInclude(file, inc)
		if err != nil {
			return layer{}, fmt.Errorf("%s: include %q: %w", includeSource(own, i), inc, err)
		}
		for _, p := range paths {
			sub, err := l.load(p)
			if err != nil {
				return layer{}, err
			}
			out.add(sub)
		}
	}

	// The including file wins over everything it pulls in.
	out.add(layer{raw: raw, sources: own, files: []string{file}})
	return out, nil
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func canonicalPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if real, err := filepath.EvalSymlinks(path); err == nil {
		return real
	}
	return path
}

// expandInclude resolves an include entry relative to the including file.
// Globs expand to their sorted matches and a directory to its *.yaml and
// *.yml files.
func expandInclude(from, include string) ([]string, error) {
	if include == "" {
		return nil, fmt.Errorf("path is empty")
	}
	if include == "~" || strings.HasPrefix(include, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		include = filepath.Join(home, strings.TrimPrefix(include[1:], "/"))
	}
	if !filepath.IsAbs(include) {
		include = filepath.Join(filepath.Dir(from), include)
	}

	if strings.ContainsAny(include, "*?[") {
		matches, err := filepath.Glob(include)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match")
		}
		slices.Sort(matches)
		return matches, nil
	}

	info, err := os.Stat(include)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{include}, nil
	}
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(include, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	slices.Sort(files)
	return files, nil
}

// nodeSources records the position of every value in doc under its YAML
// path: mapping keys are dotted, sequence items indexed, as in
// screens.rules[2].role.
func nodeSources(doc *yaml.Node, file string) map[string]Source {
	out := map[string]Source{}
	at := func(n *yaml.Node) Source {
		return Source{Kind: SourceFile, File: file, Line: n.Line, Column: n.Column}
	}

	var walk func(n *yaml.Node, prefix string)
	walk = func(n *yaml.Node, prefix string) {
		switch n.Kind {
		case yaml.DocumentNode:
			for _, c := range n.Content {
				walk(c, prefix)
			}
		case yaml.MappingNode:
			for i := 0; i+1 < len(n.Content); i += 2 {
				key := n.Content[i].Value
				if prefix != "" {
					key = prefix + "." + key
				}
				out[key] = at(n.Content[i+1])
				walk(n.Content[i+1], key)
			}
		case yaml.SequenceNode:
			for i, item := range n.Content {
				key := fmt.Sprintf("%s[%d]", prefix, i)
				out[key] = at(item)
				walk(item, key)
			}
		}
	}
	walk(doc, "")
	return out
}

// includeSource locates the i-th include entry, written either as a list
// item or as a single scalar.
func includeSource(sources map[string]Source, i int) Source {
	if src, ok := sources[fmt.Sprintf("include[%d]", i)]; ok {
		return src
	}
	return sources["include"]
}

// withSource attaches the file position of a validation error's path, or of
// its closest enclosing path.
func withSource(err error, sources map[string]Source) error {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	for p := verr.Path; p != ""; {
		if src, ok := sources[p]; ok {
			verr.Source = src
			break
		}
		i := strings.LastIndexAny(p, ".[")
		if i <= 0 {
			break
		}
		p = p[:i]
	}
	return err
}
