package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/km-arc/go-container/framework/container"
)

// Manifest declares bindings in YAML, so deployments can rewire services
// without recompiling. Types still have to be defined in code.
//
//	bindings:
//	  - abstract: mailer
//	    type: example.com/app.SMTPMailer
//	    shared: true
//	    aliases: [mail]
//	  - abstract: app.name
//	    value: Billing
//	aliases:
//	  log: logger
type Manifest struct {
	Bindings []ManifestBinding `yaml:"bindings"`
	Aliases  map[string]string `yaml:"aliases"`
}

// ManifestBinding is one entry of a Manifest. Type and Value are exclusive;
// with neither, the abstract is bound to itself as a type name.
type ManifestBinding struct {
	Abstract string    `yaml:"abstract"`
	Type     string    `yaml:"type"`
	Value    yaml.Node `yaml:"value"`
	Shared   bool      `yaml:"shared"`
	Aliases  []string  `yaml:"aliases"`
}

var ErrInvalidManifest = errors.New("invalid manifest")

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes and validates manifest YAML. Unknown keys are rejected.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: %w: %v", ErrInvalidManifest, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	seen := make(map[string]bool, len(m.Bindings))
	for i, b := range m.Bindings {
		if b.Abstract == "" {
			return fmt.Errorf("config: %w: binding #%d has no abstract", ErrInvalidManifest, i+1)
		}
		if seen[b.Abstract] {
			return fmt.Errorf("config: %w: [%s] bound twice", ErrInvalidManifest, b.Abstract)
		}
		seen[b.Abstract] = true
		if b.Type != "" && b.hasValue() {
			return fmt.Errorf("config: %w: [%s] sets both type and value", ErrInvalidManifest, b.Abstract)
		}
	}
	for alias, abstract := range m.Aliases {
		if alias == "" || abstract == "" {
			return fmt.Errorf("config: %w: empty alias entry", ErrInvalidManifest)
		}
	}
	return nil
}

func (b *ManifestBinding) hasValue() bool {
	return b.Value.Kind != 0
}

// Apply installs the manifest into r: bindings in file order, then aliases.
func (m *Manifest) Apply(r container.Registrar) error {
	for _, b := range m.Bindings {
		var concrete container.Concrete
		switch {
		case b.hasValue():
			var v any
			if err := b.Value.Decode(&v); err != nil {
				return fmt.Errorf("config: decoding value of [%s]: %w", b.Abstract, err)
			}
			concrete = container.Instance(v)
		case b.Type != "":
			concrete = container.Type(b.Type)
		}

		binding := r.Bind(b.Abstract, concrete)
		if b.Shared {
			binding.Share()
		}
		for _, alias := range b.Aliases {
			binding.Alias(alias)
		}
	}
	for alias, abstract := range m.Aliases {
		r.Alias(abstract, alias)
	}
	return nil
}
