// Package model provides the read-only object graph of a behavior model:
// classes with single honored inheritance, typed properties with
// multiplicities, connectors between property paths, and one-of groups over
// connector ends.
package model

import (
	"fmt"
	"strings"

	"github.com/c360studio/obmalloy/vocabulary/obm"
)

// Unbounded is the upper multiplicity bound meaning "no limit" (*).
const Unbounded = -1

// Class is a named model element. Only the first entry of Generals is
// honored as ancestor.
type Class struct {
	// Name is the simple class name used as signature name.
	Name string

	// QualifiedName is Package::Name, or Name for classes outside a package.
	QualifiedName string

	// Generals lists the declared ancestors in declaration order.
	Generals []string

	// Properties are the owned properties in declaration order.
	Properties []*Property

	// Connectors are the owned connectors in declaration order.
	Connectors []*Connector

	// OneOf lists the disjunctive constraints over connector ends.
	OneOf []*OneOfGroup

	// Primitive is set for the implicit primitive types.
	Primitive bool

	// Warnings holds problems found while loading the class. The offending
	// values were dropped.
	Warnings []string
}

// Warnf records a loading problem.
func (c *Class) Warnf(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

// Property returns the owned property with the given name.
func (c *Class) Property(name string) *Property {
	for _, p := range c.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Connector returns the owned connector with the given name.
func (c *Class) Connector(name string) *Connector {
	for _, conn := range c.Connectors {
		if conn.Name == name {
			return conn
		}
	}
	return nil
}

// Property is a typed, multiplicity-constrained feature of a class.
type Property struct {
	Name  string
	Type  string
	Lower int
	Upper int
	Tags  []obm.Tag

	// Redefines names the inherited property this one redefines.
	Redefines string
}

// HasTag reports whether the property carries the tag.
func (p *Property) HasTag(tag obm.Tag) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// IsStep reports whether the property is tracked by the steps accessor.
func (p *Property) IsStep() bool {
	return p.HasTag(obm.TagStep) || p.HasTag(obm.TagParticipant)
}

// ConnectorEnd is one end of a connector.
type ConnectorEnd struct {
	// Role is the library role name of the end.
	Role string

	// Path is the property path from the owning class, outermost first.
	Path []string
}

// PathString joins the path with dots.
func (e ConnectorEnd) PathString() string {
	return strings.Join(e.Path, ".")
}

// Connector relates two property paths of its owning class.
type Connector struct {
	Name        string
	Ends        []ConnectorEnd
	Stereotypes []obm.Stereotype

	// SourceOutputs names properties of the source end's type carried out.
	SourceOutputs []string

	// TargetInputs names properties of the target end's type carried in.
	TargetInputs []string

	// Redefines names the ancestor connector as Class::connector.
	Redefines string
}

// HasStereotype reports whether the connector carries the stereotype.
func (c *Connector) HasStereotype(s obm.Stereotype) bool {
	for _, st := range c.Stereotypes {
		if st == s {
			return true
		}
	}
	return false
}

// IsFlow reports whether the connector is an item or object flow.
func (c *Connector) IsFlow() bool {
	for _, st := range c.Stereotypes {
		if st.IsFlow() {
			return true
		}
	}
	return false
}

// EndRef points at one end of an owned connector.
type EndRef struct {
	Connector string
	End       int
}

// OneOfGroup is a disjunctive constraint: exactly one of the constrained
// connector ends occurs.
type OneOfGroup struct {
	Name string
	Ends []EndRef
}
