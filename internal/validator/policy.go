package validator

import (
	"fmt"
	"slices"
	"strings"

	"jurisgate/internal/model"
)

// DefaultMinJustification is the shortest accepted link justification.
const DefaultMinJustification = 10

// Policy holds the tunable parts of the rule set. The zero value is not
// usable; start from DefaultPolicy.
type Policy struct {
	MinLinkJustification int                                       `yaml:"min_link_justification"`
	DefaultIsolation     model.IsolationLevel                      `yaml:"default_isolation"`
	Isolation            map[model.BranchCode]model.IsolationLevel `yaml:"isolation"`
	CrossBranchLinks     map[model.IsolationLevel][]model.LinkType `yaml:"cross_branch_links"`
	StorageSchemes       []string                                  `yaml:"storage_schemes"`
}

// DefaultPolicy returns the built-in policy: strategy and medical branches are
// STRICT, everything else admits reference links.
func DefaultPolicy() *Policy {
	return &Policy{
		MinLinkJustification: DefaultMinJustification,
		DefaultIsolation:     model.IsolationStrictWithReferences,
		Isolation: map[model.BranchCode]model.IsolationLevel{
			model.BranchSTR: model.IsolationStrict,
			model.BranchMED: model.IsolationStrict,
		},
		CrossBranchLinks: map[model.IsolationLevel][]model.LinkType{
			model.IsolationStrict:               {model.LinkCrossBranchReference},
			model.IsolationStrictWithReferences: {model.LinkCrossBranchReference, model.LinkRelatesToSameEvent},
		},
		StorageSchemes: []string{"s3", "minio", "local"},
	}
}

// IsolationFor returns the isolation level a new branch with code c receives.
func (p *Policy) IsolationFor(c model.BranchCode) model.IsolationLevel {
	if lvl, ok := p.Isolation[c]; ok {
		return lvl
	}
	return p.DefaultIsolation
}

// PermitsCrossing reports whether a link of type t may leave or enter a branch at level lvl.
func (p *Policy) PermitsCrossing(lvl model.IsolationLevel, t model.LinkType) bool {
	return slices.Contains(p.CrossBranchLinks[lvl], t)
}

func (p *Policy) SchemeAllowed(scheme string) bool {
	return slices.Contains(p.StorageSchemes, strings.ToLower(scheme))
}

// Validate checks the policy for unknown codes and levels.
func (p *Policy) Validate() error {
	if p.MinLinkJustification < 1 {
		return fmt.Errorf("min_link_justification must be positive, got %d", p.MinLinkJustification)
	}
	if !p.DefaultIsolation.Valid() {
		return fmt.Errorf("unknown default_isolation %q", p.DefaultIsolation)
	}
	for code, lvl := range p.Isolation {
		if !code.Valid() {
			return fmt.Errorf("unknown branch code %q in isolation", code)
		}
		if !lvl.Valid() {
			return fmt.Errorf("unknown isolation level %q for branch %s", lvl, code)
		}
	}
	for lvl, types := range p.CrossBranchLinks {
		if !lvl.Valid() {
			return fmt.Errorf("unknown isolation level %q in cross_branch_links", lvl)
		}
		for _, t := range types {
			if !t.Valid() {
				return fmt.Errorf("unknown link type %q in cross_branch_links", t)
			}
		}
	}
	if len(p.StorageSchemes) == 0 {
		return fmt.Errorf("storage_schemes must not be empty")
	}
	return nil
}
