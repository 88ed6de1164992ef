package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads path over the defaults without the environment, so the
// result can be edited and saved back without leaking secrets from the
// environment into the file. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.mergeFile(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return cfg, nil
}

// Keys lists every settable key in dotted form, in file order.
func (c *Config) Keys() []string {
	tree, err := c.tree()
	if err != nil {
		return nil
	}
	var keys []string
	var walk func(prefix string, n *yaml.Node)
	walk = func(prefix string, n *yaml.Node) {
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i].Value, n.Content[i+1]
			if prefix != "" {
				k = prefix + "." + k
			}
			if v.Kind == yaml.MappingNode {
				walk(k, v)
				continue
			}
			keys = append(keys, k)
		}
	}
	walk("", tree)
	return keys
}

// Get returns the value stored at a dotted key such as "server.origin".
func (c *Config) Get(key string) (string, error) {
	tree, err := c.tree()
	if err != nil {
		return "", err
	}
	n, err := lookup(tree, key)
	if err != nil {
		return "", err
	}
	return n.Value, nil
}

// Set stores value at a dotted key. The value is decoded like any value in
// the file; the result must still be a valid configuration.
func (c *Config) Set(key, value string) error {
	tree, err := c.tree()
	if err != nil {
		return err
	}
	n, err := lookup(tree, key)
	if err != nil {
		return err
	}
	n.Value = value
	if n.Tag == "!!str" || strings.TrimSpace(value) == "" {
		n.Style = yaml.DoubleQuotedStyle
	} else {
		n.Tag = ""
	}

	data, err := yaml.Marshal(tree)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	next := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(next); err != nil {
		return fmt.Errorf("invalid value %q for %s: %w", value, key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = *next
	return nil
}

// tree is the mapping node of c as it would be written.
func (c *Config) tree() (*yaml.Node, error) {
	var doc yaml.Node
	if err := doc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return &doc, nil
}

func lookup(n *yaml.Node, key string) (*yaml.Node, error) {
	for _, part := range strings.Split(key, ".") {
		if n.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("unknown configuration key %q", key)
		}
		var next *yaml.Node
		for i := 0; i+1 < len(n.Content); i += 2 {
			if n.Content[i].Value == part {
				next = n.Content[i+1]
				break
			}
		}
		if next == nil {
			return nil, fmt.Errorf("unknown configuration key %q", key)
		}
		n = next
	}
	if n.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("%q is a section, not a value", key)
	}
	return n, nil
}
