package assistant

import (
	_ "embed"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

// Answer types
const (
	TypeRevenue    = "revenue"
	TypeTraffic    = "traffic"
	TypeConversion = "conversion"
	TypeSearch     = "search"
	TypePages      = "pages"
	TypeDashboard  = "dashboard"
)

//go:embed intents.yaml
var intentsYAML []byte

// Intent maps question keywords to an answer type.
type Intent struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

type intentFile struct {
	Intents  []Intent `yaml:"intents"`
	Fallback string   `yaml:"fallback"`
}

// Router picks the answer type of a question by keyword.
type Router struct {
	intents  []Intent
	fallback string
}

// DefaultRouter returns the router for the embedded intents.
func DefaultRouter() (*Router, error) {
	return ParseRouter(intentsYAML)
}

// ParseRouter reads intents from YAML.
func ParseRouter(data []byte) (*Router, error) {
	var f intentFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse intents: %w", err)
	}
	if f.Fallback == "" {
		f.Fallback = TypeDashboard
	}
	fold := cases.Fold()
	for i, intent := range f.Intents {
		if intent.Name == "" {
			return nil, fmt.Errorf("intent %d has no name", i)
		}
		for j, k := range intent.Keywords {
			f.Intents[i].Keywords[j] = fold.String(strings.TrimSpace(k))
		}
	}
	return &Router{intents: f.Intents, fallback: f.Fallback}, nil
}

// Route returns the answer type for question.
func (r *Router) Route(question string) string {
	q := cases.Fold().String(question)
	for _, intent := range r.intents {
		for _, k := range intent.Keywords {
			if k != "" && strings.Contains(q, k) {
				return intent.Name
			}
		}
	}
	return r.fallback
}
