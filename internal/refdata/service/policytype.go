package service

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

//go:embed policy_aliases.yaml
var policyAliasesYAML []byte

type aliasFile struct {
	PolicyTypes []struct {
		Name    string   `yaml:"name"`
		Aliases []string `yaml:"aliases"`
	} `yaml:"policyTypes"`
	Tiers   map[string]string `yaml:"tiers"`
	Lengths map[string]string `yaml:"lengths"`
}

// PolicyTypeNormalizer maps provider policy-type spellings to catalog keys.
type PolicyTypeNormalizer struct {
	aliases    map[string]string
	canonical  map[string]bool
	tierKeys   []string
	tiers      map[string]string
	lengthKeys []string
	lengths    map[string]string
}

// NewPolicyTypeNormalizer parses an alias table in the policy_aliases.yaml format.
func NewPolicyTypeNormalizer(raw []byte) (*PolicyTypeNormalizer, error) {
	var file aliasFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse policy aliases: %w", err)
	}

	n := &PolicyTypeNormalizer{
		aliases:   make(map[string]string),
		canonical: make(map[string]bool),
		tiers:     make(map[string]string),
		lengths:   make(map[string]string),
	}
	for _, pt := range file.PolicyTypes {
		n.canonical[pt.Name] = true
		n.aliases[n.key(pt.Name)] = pt.Name
		for _, alias := range pt.Aliases {
			n.aliases[n.key(alias)] = pt.Name
		}
	}
	for k, v := range file.Tiers {
		n.tiers[n.key(k)] = v
		n.tierKeys = append(n.tierKeys, n.key(k))
	}
	for k, v := range file.Lengths {
		n.lengths[n.key(k)] = v
		n.lengthKeys = append(n.lengthKeys, n.key(k))
	}
	sort.Strings(n.tierKeys)
	sort.Strings(n.lengthKeys)
	return n, nil
}

// DefaultPolicyTypeNormalizer uses the embedded alias table.
func DefaultPolicyTypeNormalizer() *PolicyTypeNormalizer {
	n, err := NewPolicyTypeNormalizer(policyAliasesYAML)
	if err != nil {
		panic(err)
	}
	return n
}

// Normalize returns the catalog key for a provider policy-type name. When
// neither an alias nor the tier/length keywords match, raw is returned with
// matched=false.
func (n *PolicyTypeNormalizer) Normalize(raw string) (string, bool) {
	key := n.key(raw)
	if key == "" {
		return raw, false
	}
	if name, ok := n.aliases[key]; ok {
		return name, true
	}

	compact := strings.ReplaceAll(key, " ", "")
	tier := n.findKeyword(compact, n.tierKeys, n.tiers)
	length := n.findKeyword(compact, n.lengthKeys, n.lengths)
	if tier != "" && length != "" {
		candidate := tier + " " + length
		if n.canonical[candidate] {
			return candidate, true
		}
	}
	return raw, false
}

// findKeyword returns the mapped value of the keyword occurring earliest in
// s, preferring the longer keyword at the same position.
func (n *PolicyTypeNormalizer) findKeyword(s string, keys []string, values map[string]string) string {
	best, bestAt := "", -1
	for _, k := range keys {
		at := strings.Index(s, k)
		if at < 0 {
			continue
		}
		if bestAt < 0 || at < bestAt || (at == bestAt && len(k) > len(best)) {
			best, bestAt = k, at
		}
	}
	if bestAt < 0 {
		return ""
	}
	return values[best]
}

// key folds case and turns every run of punctuation or spaces into one space.
func (n *PolicyTypeNormalizer) key(s string) string {
	s = cases.Fold().String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
