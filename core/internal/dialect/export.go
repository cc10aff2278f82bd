package dialect

import (
	"gopkg.in/yaml.v3"
)

type ruleDoc struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
	Replace string `yaml:"replace"`
}

type profileDoc struct {
	Name        string            `yaml:"name"`
	DisplayName string            `yaml:"display_name"`
	Note        string            `yaml:"note"`
	Quote       string            `yaml:"quote"`
	ForeignKeys string            `yaml:"foreign_keys"`
	Rules       []ruleDoc         `yaml:"rules"`
	PostRules   []ruleDoc         `yaml:"post_rules,omitempty"`
	Types       map[string]string `yaml:"types,omitempty"`
	Functions   map[string]string `yaml:"functions,omitempty"`
}

func docRules(rules []Rule) []ruleDoc {
	docs := make([]ruleDoc, 0, len(rules))
	for _, r := range rules {
		docs = append(docs, ruleDoc{Name: r.Name, Pattern: r.Pattern.String(), Replace: r.Replace})
	}
	return docs
}

// ExportYAML renders the given profiles, or all of them when none are
// named, as a YAML document
func ExportYAML(ids ...ID) ([]byte, error) {
	if len(ids) == 0 {
		ids = All()
	}

	docs := make([]profileDoc, 0, len(ids))
	for _, id := range ids {
		p := Get(id)
		if p == nil {
			continue
		}
		docs = append(docs, profileDoc{
			Name:        string(p.ID),
			DisplayName: p.DisplayName,
			Note:        p.Note,
			Quote:       p.Quote.Quote("name"),
			ForeignKeys: p.ForeignKeys.String(),
			Rules:       docRules(p.Rules),
			PostRules:   docRules(p.PostRules),
			Types:       p.TypeMap,
			Functions:   p.FuncMap,
		})
	}
	return yaml.Marshal(docs)
}

