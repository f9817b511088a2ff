// Package registry loads per-site selector overrides from a YAML file. The
// overrides feed the plugin-markup strategy extra CSS selectors for sites
// whose themes rename the stock classes, keeping the DOM heuristics tunable
// without code changes.
package registry

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// SiteOverride maps one host (suffix-matched) to custom selectors.
type SiteOverride struct {
	Host                string `yaml:"host"`
	TitleSelector       string `yaml:"title_selector"`
	IngredientSelector  string `yaml:"ingredient_selector"`
	InstructionSelector string `yaml:"instruction_selector"`
}

// Overrides holds all loaded site overrides.
type Overrides struct {
	Sites []SiteOverride `yaml:"sites"`
}

// Load reads an overrides file. A missing path is not an error; it returns
// an empty set so callers can treat the file as optional.
func Load(path string) (*Overrides, error) {
	if path == "" {
		return &Overrides{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Overrides{}, nil
		}
		return nil, eris.Wrapf(err, "registry: read %s", path)
	}
	var o Overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, eris.Wrapf(err, "registry: parse %s", path)
	}
	return &o, nil
}

// ForHost returns the override whose host is a suffix of the given host, or
// nil when none matches.
func (o *Overrides) ForHost(host string) *SiteOverride {
	if o == nil {
		return nil
	}
	host = strings.ToLower(host)
	for i := range o.Sites {
		oh := strings.ToLower(o.Sites[i].Host)
		if oh != "" && (host == oh || strings.HasSuffix(host, "."+oh)) {
			return &o.Sites[i]
		}
	}
	return nil
}
