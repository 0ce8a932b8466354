package workflow

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Policy is an explicit status adjacency table keyed by project.
//
//	projects:
//	  <project-id>:
//	    <from-status-id>: [<to-status-id>, ...]
//
// Projects absent from the table are unconstrained. Inside a configured
// project a status with no entry has no outgoing transitions.
type Policy struct {
	Projects map[string]map[string][]string `yaml:"projects"`
}

// Unconstrained returns a policy that allows every move.
func Unconstrained() *Policy {
	return &Policy{Projects: map[string]map[string][]string{}}
}

// LoadPolicy reads the table from a YAML file. An empty path yields an
// unconstrained policy.
func LoadPolicy(path string) (*Policy, error) {
	if path == "" {
		return Unconstrained(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow policy: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes and validates a policy document.
func ParsePolicy(data []byte) (*Policy, error) {
	var policy Policy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("failed to parse workflow policy: %w", err)
	}
	if policy.Projects == nil {
		policy.Projects = map[string]map[string][]string{}
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &policy, nil
}

// Validate checks that the table has no empty identifiers.
func (p *Policy) Validate() error {
	for project, edges := range p.Projects {
		if project == "" {
			return fmt.Errorf("workflow policy: empty project id")
		}
		for from, targets := range edges {
			if from == "" {
				return fmt.Errorf("workflow policy: project %q has an empty from-status", project)
			}
			if slices.Contains(targets, "") {
				return fmt.Errorf("workflow policy: project %q status %q lists an empty target", project, from)
			}
		}
	}
	return nil
}

// Allows reports whether a ticket in projectID may move from one status to another.
// Staying in the same status is always allowed.
func (p *Policy) Allows(projectID, from, to string) bool {
	if p == nil || from == to {
		return true
	}
	edges, ok := p.Projects[projectID]
	if !ok {
		return true
	}
	return slices.Contains(edges[from], to)
}

// Constrains reports whether projectID has an adjacency table.
func (p *Policy) Constrains(projectID string) bool {
	if p == nil {
		return false
	}
	_, ok := p.Projects[projectID]
	return ok
}
