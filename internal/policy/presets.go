package policy

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var presetsYAML []byte

var presets map[string]ToricPolicy

func init() {
	var err error
	presets, err = parsePresets(presetsYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded presets.yaml is invalid: %v", err))
	}
}

func parsePresets(data []byte) (map[string]ToricPolicy, error) {
	var doc struct {
		Policies map[string]ToricPolicy `yaml:"policies"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing presets: %w", err)
	}
	out := make(map[string]ToricPolicy, len(doc.Policies))
	for name, p := range doc.Policies {
		p.Name = name
		if err := p.Validate(); err != nil {
			return nil, err
		}
		out[name] = p
	}
	return out, nil
}

// Get returns a preset by name.
func Get(name string) (ToricPolicy, error) {
	if name == "" {
		name = DefaultName
	}
	p, ok := presets[name]
	if !ok {
		return ToricPolicy{}, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
	return p, nil
}

// Names returns the preset names in sorted order.
func Names() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Load reads a custom policy file: a preset name plus a partial overrides
// map. Only the keys present in overrides replace the preset values, so a
// file can tweak one threshold without restating the rest.
//
//	preset: balanced
//	overrides:
//	  postop_max: 0.75
//	  thresholds:
//	    ATR: {recommend: 0.40, border_low: 0.25, border_high: 0.50, prebias_floor: 0.20}
func Load(path string) (ToricPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ToricPolicy{}, fmt.Errorf("reading policy file: %w", err)
	}

	var doc struct {
		Preset    string         `yaml:"preset"`
		Overrides map[string]any `yaml:"overrides"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return ToricPolicy{}, fmt.Errorf("parsing policy file: %w", err)
	}

	base, err := Get(doc.Preset)
	if err != nil {
		return ToricPolicy{}, err
	}
	if len(doc.Overrides) > 0 {
		if err := mapstructure.Decode(doc.Overrides, &base); err != nil {
			return ToricPolicy{}, fmt.Errorf("applying policy overrides: %w", err)
		}
		base.Name = doc.Preset + " (custom)"
	}
	if err := base.Validate(); err != nil {
		return ToricPolicy{}, err
	}
	return base, nil
}
