package alloy

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Builtin signatures declared by the preamble.
const (
	// SigOccurrence is the root signature of every behavior.
	SigOccurrence = "Occurrence"

	// SigTransfer is the type of transfer fields.
	SigTransfer = "Transfer"

	// SigTransferBefore is the type of transfer fields with ordering.
	SigTransferBefore = "TransferBefore"
)

// Base relations and accessors.
const (
	// Steps relates an occurrence to the occurrences of its steps.
	Steps = "steps"

	// Inputs relates an occurrence to the items it accepts.
	Inputs = "inputs"

	// Outputs relates an occurrence to the items it provides.
	Outputs = "outputs"

	// HappensBefore is the temporal precedence relation.
	HappensBefore = "happensBefore"

	// HappensDuring is the concurrency/containment relation.
	HappensDuring = "happensDuring"

	// Sources relates a transfer to the occurrences it takes items from.
	Sources = "sources"

	// Targets relates a transfer to the occurrences it delivers items to.
	Targets = "targets"

	// Items relates a transfer to the items it carries.
	Items = "items"
)

// Predicates of the preamble.
const (
	// BijectionFiltered constrains a relation to be one-to-one between two sets.
	BijectionFiltered = "bijectionFiltered"

	// FunctionFiltered constrains every left element to exactly one right element.
	FunctionFiltered = "functionFiltered"

	// InverseFunctionFiltered constrains every right element to exactly one left element.
	InverseFunctionFiltered = "inverseFunctionFiltered"

	// SubsettingItemRuleForSources keeps transfer items within source outputs.
	SubsettingItemRuleForSources = "subsettingItemRuleForSources"

	// SubsettingItemRuleForTargets keeps transfer items within target inputs.
	SubsettingItemRuleForTargets = "subsettingItemRuleForTargets"

	// IsAfterSource orders a transfer after its sources.
	IsAfterSource = "isAfterSource"

	// IsBeforeTarget orders a transfer before its targets.
	IsBeforeTarget = "isBeforeTarget"

	// Disj is the builtin pairwise-disjointness predicate.
	Disj = "disj"
)

// Predicate describes a preamble predicate.
type Predicate struct {
	Name        string
	Description string
	Params      []string
	Body        []string
	Builtin     bool
}

// Definition renders the predicate declaration in Alloy syntax.
func (p Predicate) Definition() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("pred %s[%s] {\n", p.Name, strings.Join(p.Params, ", ")))
	for _, line := range p.Body {
		sb.WriteString("\t")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("}")
	return sb.String()
}

// Option configures a registered predicate.
type Option func(*Predicate)

// WithDescription sets the predicate description.
func WithDescription(d string) Option {
	return func(p *Predicate) { p.Description = d }
}

// WithParams sets the predicate parameter declarations.
func WithParams(params ...string) Option {
	return func(p *Predicate) { p.Params = params }
}

// WithBody sets the predicate body, one constraint per line.
func WithBody(lines ...string) Option {
	return func(p *Predicate) { p.Body = lines }
}

// AsBuiltin marks a predicate provided by the target language itself.
func AsBuiltin() Option {
	return func(p *Predicate) { p.Builtin = true }
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Predicate)
)

// Register adds a predicate to the vocabulary, replacing any previous
// registration under the same name.
func Register(name string, opts ...Option) {
	p := Predicate{Name: name}
	for _, opt := range opts {
		opt(&p)
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = p
}

// Lookup returns the registered predicate with the given name.
func Lookup(name string) (Predicate, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := registry[name]
	return p, ok
}

// Predicates returns the non-builtin registered predicates sorted by name.
func Predicates() []Predicate {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]Predicate, 0, len(registry))
	for _, p := range registry {
		if p.Builtin {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func init() {
	rel := "r: Occurrence -> Occurrence"
	sets := "a, b: set Occurrence"

	Register(BijectionFiltered,
		WithDescription("r restricted to a and b is a bijection"),
		WithParams(rel, sets),
		WithBody(
			"all x: a | one y: b | x -> y in r",
			"all y: b | one x: a | x -> y in r",
		))

	Register(FunctionFiltered,
		WithDescription("every element of a is related by r to exactly one element of b"),
		WithParams(rel, sets),
		WithBody("all x: a | one y: b | x -> y in r"))

	Register(InverseFunctionFiltered,
		WithDescription("every element of b is related by r from exactly one element of a"),
		WithParams(rel, sets),
		WithBody("all y: b | one x: a | x -> y in r"))

	Register(SubsettingItemRuleForSources,
		WithDescription("transfer items are outputs of the transfer sources"),
		WithParams("t: Transfer"),
		WithBody("t.items in t.sources.outputs"))

	Register(SubsettingItemRuleForTargets,
		WithDescription("transfer items are inputs of the transfer targets"),
		WithParams("t: Transfer"),
		WithBody("t.items in t.targets.inputs"))

	Register(IsAfterSource,
		WithDescription("a transfer happens after each of its sources"),
		WithParams("t: Transfer"),
		WithBody("all s: t.sources | t in s.happensBefore"))

	Register(IsBeforeTarget,
		WithDescription("a transfer happens before each of its targets"),
		WithParams("t: Transfer"),
		WithBody("all g: t.targets | g in t.happensBefore"))

	Register(Disj,
		WithDescription("arguments are pairwise disjoint"),
		AsBuiltin())
}
