// Package source provides the model file format and the loading of model
// files into a behavior model.
package source

// Document is one parsed model file.
type Document struct {
	// Filename is the path the document was read from.
	Filename string `yaml:"-" json:"-"`

	// Package qualifies the class names of the document (Package::Name).
	Package string `yaml:"package,omitempty" json:"package,omitempty"`

	// Classes are the classes declared by the document.
	Classes []ClassDoc `yaml:"classes" json:"classes" validate:"dive"`
}

// ClassDoc declares a class.
type ClassDoc struct {
	// Name is the simple class name.
	Name string `yaml:"name" json:"name" validate:"required"`

	// Extends lists the ancestors; only the first is honored.
	Extends []string `yaml:"extends,omitempty" json:"extends,omitempty"`

	// Properties are the owned properties in declaration order.
	Properties []PropertyDoc `yaml:"properties,omitempty" json:"properties,omitempty" validate:"dive"`

	// Connectors are the owned connectors in declaration order.
	Connectors []ConnectorDoc `yaml:"connectors,omitempty" json:"connectors,omitempty" validate:"dive"`

	// OneOf declares disjunctive groups over connector ends.
	OneOf []OneOfDoc `yaml:"oneOf,omitempty" json:"oneOf,omitempty" validate:"dive"`
}

// PropertyDoc declares a property.
type PropertyDoc struct {
	// Name may be empty; the compiler reports unnamed properties.
	Name string `yaml:"name" json:"name"`

	// Type names a class or a primitive.
	Type string `yaml:"type" json:"type"`

	// Multiplicity is n, n..m, n..* or *; empty means 0..*.
	Multiplicity string `yaml:"multiplicity,omitempty" json:"multiplicity,omitempty" validate:"omitempty,multiplicity"`

	// Stereotypes are role tags: Step, Parameter, Participant.
	Stereotypes []string `yaml:"stereotypes,omitempty" json:"stereotypes,omitempty"`

	// Redefines names the inherited property this one redefines.
	Redefines string `yaml:"redefines,omitempty" json:"redefines,omitempty"`
}

// ConnectorDoc declares a connector.
type ConnectorDoc struct {
	Name string `yaml:"name" json:"name" validate:"required"`

	// Ends are the connector ends, source first by convention.
	Ends []EndDoc `yaml:"ends" json:"ends"`

	// Stereotypes are ItemFlow, ObjectFlow or BindingConnector.
	Stereotypes []string `yaml:"stereotypes,omitempty" json:"stereotypes,omitempty"`

	// SourceOutputs names the item properties leaving the source end.
	SourceOutputs []string `yaml:"sourceOutputs,omitempty" json:"sourceOutputs,omitempty"`

	// TargetInputs names the item properties arriving at the target end.
	TargetInputs []string `yaml:"targetInputs,omitempty" json:"targetInputs,omitempty"`

	// Redefines names an ancestor connector as Class::connector.
	Redefines string `yaml:"redefines,omitempty" json:"redefines,omitempty"`
}

// EndDoc declares a connector end.
type EndDoc struct {
	Role string `yaml:"role,omitempty" json:"role,omitempty"`

	// Path is a dotted property path from the owning class.
	Path string `yaml:"path" json:"path"`
}

// OneOfDoc declares a one-of group. Ends reference connector ends as
// connector.source, connector.target or connector.<index>.
type OneOfDoc struct {
	Name string   `yaml:"name" json:"name"`
	Ends []string `yaml:"ends" json:"ends" validate:"dive,endref"`
}
