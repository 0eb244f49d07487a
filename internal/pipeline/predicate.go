package pipeline

import (
	"strings"

	"github.com/gobwas/glob"

	"github.com/conveyorci/conveyor/internal/event"
)

// Predicate gates a pipeline or a step against the current event.
// Predicates are pure values built at load time so condition logic can be
// tested without executing anything.
type Predicate interface {
	Match(ev event.Event) bool
}

// Always matches every event. Used when a document declares no condition.
type Always struct{}

func (Always) Match(event.Event) bool { return true }

// BranchIn matches when the event branch is in the declared set.
type BranchIn struct {
	Branches []string
}

func (p BranchIn) Match(ev event.Event) bool {
	for _, b := range p.Branches {
		if b == ev.Branch {
			return true
		}
	}
	return false
}

// EventEquals matches a single event kind.
type EventEquals struct {
	Kind event.Kind
}

func (p EventEquals) Match(ev event.Event) bool { return p.Kind == ev.Kind }

// RefGlob matches the full ref against any of the compiled glob patterns,
// e.g. refs/tags/* or refs/heads/release-*.
type RefGlob struct {
	patterns []glob.Glob
	sources  []string
}

// NewRefGlob compiles the given patterns. A compile failure is a
// PredicateError at load time, never at match time.
func NewRefGlob(patterns []string) (RefGlob, error) {
	p := RefGlob{sources: patterns}
	for _, src := range patterns {
		g, err := glob.Compile(src, '/')
		if err != nil {
			return RefGlob{}, &PredicateError{Reason: "invalid ref pattern " + src}
		}
		p.patterns = append(p.patterns, g)
	}
	return p, nil
}

func (p RefGlob) Match(ev event.Event) bool {
	for _, g := range p.patterns {
		if g.Match(ev.Ref) {
			return true
		}
	}
	return false
}

// Sources returns the original pattern strings, for reporting.
func (p RefGlob) Sources() []string { return p.sources }

// And matches only when every child predicate matches. An empty conjunction
// matches everything.
type And struct {
	Clauses []Predicate
}

func (p And) Match(ev event.Event) bool {
	for _, c := range p.Clauses {
		if !c.Match(ev) {
			return false
		}
	}
	return true
}

// whenDoc is the YAML shape of a when: or trigger: clause.
type whenDoc struct {
	Branch []string `yaml:"branch"`
	Event  string   `yaml:"event"`
	Ref    []string `yaml:"ref"`
}

// compile turns a when clause into a predicate. A nil clause (no when: key)
// compiles to Always, matching how unconditional steps behave in practice.
func (w *whenDoc) compile(step string) (Predicate, error) {
	if w == nil {
		return Always{}, nil
	}

	var clauses []Predicate
	if len(w.Branch) > 0 {
		clauses = append(clauses, BranchIn{Branches: w.Branch})
	}
	if w.Event != "" {
		kind := event.Kind(strings.ToLower(w.Event))
		if !event.ValidKind(kind) {
			return nil, &PredicateError{Step: step, Reason: "unknown event kind " + w.Event}
		}
		clauses = append(clauses, EventEquals{Kind: kind})
	}
	if len(w.Ref) > 0 {
		rg, err := NewRefGlob(w.Ref)
		if err != nil {
			pe := err.(*PredicateError)
			pe.Step = step
			return nil, pe
		}
		clauses = append(clauses, rg)
	}
	if len(clauses) == 0 {
		return Always{}, nil
	}
	if len(clauses) == 1 {
		return clauses[0], nil
	}
	return And{Clauses: clauses}, nil
}
