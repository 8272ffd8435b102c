// Package scripted provides fetchers declared in YAML files. It serves as the
// fallback source of a fetcher selector: names the in-process pool does not
// know are looked up here.
//
// A script file looks like this:
//
//	fetchers:
//	  - name: custom/motd
//	    kind: value
//	    value: "Hello"
//	  - name: custom/arg
//	    kind: argument
//	    key: id
//	  - name: custom/title
//	    kind: parent
//	    key: title
//
// An empty key on argument and parent fetchers means the key is taken from
// the "options" argument of the @fetcher directive. Parent fetchers read map
// keys and struct fields alike, as fetcher.Env.Property does.
package scripted

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/bmatcuk/doublestar"
	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"

	"github.com/Protocol-Lattice/slingql/fetcher"
)

// OriginPrefix starts the origin of every scripted fetcher. The file path follows it.
const OriginPrefix = "script:"

// Kind selects what a scripted fetcher returns.
type Kind string

const (
	// KindValue returns the definition's constant value.
	KindValue Kind = "value"
	// KindArgument returns a field argument.
	KindArgument Kind = "argument"
	// KindParent returns a property of the parent object.
	KindParent Kind = "parent"
)

// ErrDuplicate is returned when two definitions share a name.
var ErrDuplicate = errors.New("duplicate scripted fetcher")

// File is the layout of a script file.
type File struct {
	Fetchers []Definition `yaml:"fetchers"`
}

// Definition declares one scripted fetcher.
type Definition struct {
	Name  string      `yaml:"name"`
	Kind  Kind        `yaml:"kind"`
	Value interface{} `yaml:"value,omitempty"`
	Key   string      `yaml:"key,omitempty"`
}

// Fetcher builds the fetcher described by d.
func (d Definition) Fetcher() (fetcher.Fetcher, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("scripted fetcher has no name")
	}
	switch d.Kind {
	case KindValue, "":
		v := d.Value
		return fetcher.Func(func(*fetcher.Env) (interface{}, error) { return v, nil }), nil
	case KindArgument:
		key := d.Key
		return fetcher.Func(func(env *fetcher.Env) (interface{}, error) {
			return env.Arg(keyFor(key, env)), nil
		}), nil
	case KindParent:
		key := d.Key
		return fetcher.Func(func(env *fetcher.Env) (interface{}, error) {
			return env.Property(keyFor(key, env))
		}), nil
	}
	return nil, fmt.Errorf("scripted fetcher %s: unknown kind %q", d.Name, d.Kind)
}

func keyFor(key string, env *fetcher.Env) string {
	if key != "" {
		return key
	}
	return env.Options
}

// Parse decodes a script file. origin is recorded on every binding.
func Parse(data []byte, origin string) ([]fetcher.Binding, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse script YAML: %w", err)
	}
	bindings := make([]fetcher.Binding, 0, len(f.Fetchers))
	for _, d := range f.Fetchers {
		impl, err := d.Fetcher()
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, fetcher.Binding{Name: d.Name, Origin: origin, Impl: impl})
	}
	return bindings, nil
}

// Provider holds the scripted fetchers loaded from a set of files. Lookups
// read an immutable snapshot; loading replaces the snapshot in one step.
type Provider struct {
	logger   hclog.Logger
	fetchers atomic.Pointer[map[string]fetcher.Binding]

	mu       sync.Mutex
	patterns []string
	globbed  bool
}

// New creates an empty Provider. logger may be nil.
func New(logger hclog.Logger) *Provider {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	p := &Provider{logger: logger}
	empty := map[string]fetcher.Binding{}
	p.fetchers.Store(&empty)
	return p
}

// Load replaces the provider's fetchers with those defined in files. On
// error the previous fetchers stay in place.
func (p *Provider) Load(files ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.load(files); err != nil {
		return err
	}
	p.patterns, p.globbed = append([]string(nil), files...), false
	return nil
}

// LoadGlob is Load for the files matching the given doublestar patterns,
// e.g. "fetchers/**/*.yaml".
func (p *Provider) LoadGlob(patterns ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	files, err := expand(patterns)
	if err != nil {
		return err
	}
	if err := p.load(files); err != nil {
		return err
	}
	p.patterns, p.globbed = append([]string(nil), patterns...), true
	return nil
}

// Reload reads the files or patterns of the last successful load again.
func (p *Provider) Reload() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	files := p.patterns
	if p.globbed {
		var err error
		if files, err = expand(p.patterns); err != nil {
			return err
		}
	}
	return p.load(files)
}

func expand(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad script pattern %q: %w", pattern, err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

func (p *Provider) load(files []string) error {
	next := make(map[string]fetcher.Binding)
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read script file %s: %w", file, err)
		}
		bindings, err := Parse(data, OriginPrefix+file)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		for _, b := range bindings {
			if prev, ok := next[b.Name]; ok {
				return fmt.Errorf("%w %q in %s and %s", ErrDuplicate, b.Name,
					prev.Origin[len(OriginPrefix):], file)
			}
			next[b.Name] = b
		}
		p.logger.Debug("loaded script file", "file", file, "fetchers", len(bindings))
	}
	p.fetchers.Store(&next)
	p.logger.Info("scripted fetchers loaded", "files", len(files), "fetchers", len(next))
	return nil
}

// GetByName returns the scripted fetcher registered under name.
func (p *Provider) GetByName(name string) (fetcher.Binding, bool) {
	b, ok := (*p.fetchers.Load())[name]
	return b, ok
}

// Names returns the scripted fetcher names in sorted order.
func (p *Provider) Names() []string {
	m := *p.fetchers.Load()
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
