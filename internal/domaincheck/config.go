package domaincheck

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Config extends the built-in bad-domain list.
type Config struct {
	// Categories maps a category name to the domains it contains. Listed
	// domains are added to the built-in set; an existing category is extended.
	Categories map[string][]string `yaml:"categories"`
	// Allow lists domains that are never flagged, even when built in.
	Allow []string `yaml:"allow"`
}

// LoadConfig reads a bad-domain extension file.
//
//	bad_domains:
//	  categories:
//	    placeholder: [example.net]
//	  allow: [sites.google.com]
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "domaincheck: read config %s", path)
	}

	var wrapper struct {
		BadDomains Config `yaml:"bad_domains"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "domaincheck: parse config")
	}

	cfg := &wrapper.BadDomains
	for cat, domains := range cfg.Categories {
		cfg.Categories[cat] = normalizeAll(domains)
	}
	cfg.Allow = normalizeAll(cfg.Allow)
	return cfg, nil
}

func normalizeAll(domains []string) []string {
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(d)), ".")
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}
