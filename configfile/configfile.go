// Package configfile loads a context and a set of named sockets from a
// YAML, JSON (with comments) or CBOR file.
//
// A YAML file looks like this:
//
//	context:
//	  engine: zmq4
//	  io_threads: 2
//	servers:
//	  api:
//	    bind: [tcp://*:5555]
//	    recv_timeout: 1s
//	clients:
//	  pinger:
//	    connect: [tcp://127.0.0.1:5555]
//	    send_hwm: unlimited
package configfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/tidwall/jsonc"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/workspace-9/zsock"
)

// Format of a config file.
type Format int

const (
	YAML Format = iota + 1
	JSON
	CBOR
)

func (f Format) String() string {
	switch f {
	case YAML:
		return "yaml"
	case JSON:
		return "json"
	case CBOR:
		return "cbor"
	}
	return "unknown"
}

// FormatOf picks the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".json", ".jsonc":
		return JSON, nil
	case ".cbor":
		return CBOR, nil
	}
	return 0, fmt.Errorf("unknown config format for %s", path)
}

// File is the content of a config file. Socket names are free form and
// only used to find the built sockets again.
type File struct {
	Context zsock.CtxConfig               `yaml:"context,omitempty" json:"context,omitempty" cbor:"context,omitempty"`
	Clients map[string]zsock.ClientConfig `yaml:"clients,omitempty" json:"clients,omitempty" cbor:"clients,omitempty"`
	Servers map[string]zsock.ServerConfig `yaml:"servers,omitempty" json:"servers,omitempty" cbor:"servers,omitempty"`
	Radios  map[string]zsock.RadioConfig  `yaml:"radios,omitempty" json:"radios,omitempty" cbor:"radios,omitempty"`
	Dishes  map[string]zsock.DishConfig   `yaml:"dishes,omitempty" json:"dishes,omitempty" cbor:"dishes,omitempty"`
}

// Load reads and parses the file at path.
func Load(path string) (*File, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	f, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes data in the given format. JSON may carry comments and
// trailing commas.
func Parse(data []byte, format Format) (*File, error) {
	var (
		f   File
		err error
	)
	switch format {
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&f)
	case JSON:
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.DisallowUnknownFields()
		err = dec.Decode(&f)
	case CBOR:
		err = cbor.Unmarshal(data, &f)
	default:
		err = fmt.Errorf("unknown config format %d", format)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Marshal encodes the file in the given format.
func (f *File) Marshal(format Format) ([]byte, error) {
	switch format {
	case YAML:
		return yaml.Marshal(f)
	case JSON:
		return json.MarshalIndent(f, "", "  ")
	case CBOR:
		return cbor.Marshal(f)
	}
	return nil, fmt.Errorf("unknown config format %d", format)
}

// NewContext creates the context the file describes.
func (f *File) NewContext(opts ...zsock.ContextOption) (*zsock.Context, error) {
	return f.Context.Build(opts...)
}

// Sockets holds the sockets built from a File, by name.
type Sockets struct {
	Clients map[string]*zsock.Client
	Servers map[string]*zsock.Server
	Radios  map[string]*zsock.Radio
	Dishes  map[string]*zsock.Dish
}

// Close closes every socket and combines the errors.
func (s *Sockets) Close() error {
	var err error
	for _, name := range sortedKeys(s.Clients) {
		err = multierr.Append(err, s.Clients[name].Close())
	}
	for _, name := range sortedKeys(s.Servers) {
		err = multierr.Append(err, s.Servers[name].Close())
	}
	for _, name := range sortedKeys(s.Radios) {
		err = multierr.Append(err, s.Radios[name].Close())
	}
	for _, name := range sortedKeys(s.Dishes) {
		err = multierr.Append(err, s.Dishes[name].Close())
	}
	return err
}

// BuildAll builds every socket of the file on ctx. Servers and radios are
// built first, then dishes and clients, each group in name order. If one
// socket fails, the ones already built are closed and nothing is returned.
func (f *File) BuildAll(ctx *zsock.Context) (*Sockets, error) {
	s := &Sockets{
		Clients: make(map[string]*zsock.Client, len(f.Clients)),
		Servers: make(map[string]*zsock.Server, len(f.Servers)),
		Radios:  make(map[string]*zsock.Radio, len(f.Radios)),
		Dishes:  make(map[string]*zsock.Dish, len(f.Dishes)),
	}

	err := buildGroup("server", f.Servers, s.Servers, func(c zsock.ServerConfig) (*zsock.Server, error) {
		return c.BuildWithContext(ctx)
	})
	if err == nil {
		err = buildGroup("radio", f.Radios, s.Radios, func(c zsock.RadioConfig) (*zsock.Radio, error) {
			return c.BuildWithContext(ctx)
		})
	}
	if err == nil {
		err = buildGroup("dish", f.Dishes, s.Dishes, func(c zsock.DishConfig) (*zsock.Dish, error) {
			return c.BuildWithContext(ctx)
		})
	}
	if err == nil {
		err = buildGroup("client", f.Clients, s.Clients, func(c zsock.ClientConfig) (*zsock.Client, error) {
			return c.BuildWithContext(ctx)
		})
	}

	if err != nil {
		return nil, multierr.Append(err, s.Close())
	}
	return s, nil
}

func buildGroup[C any, S any](role string, confs map[string]C, out map[string]S, build func(C) (S, error)) error {
	for _, name := range sortedKeys(confs) {
		sock, err := build(confs[name])
		if err != nil {
			return fmt.Errorf("building %s %q: %w", role, name, err)
		}
		out[name] = sock
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
