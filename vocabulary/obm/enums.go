package obm

// Tag is a role tag applied to a property.
type Tag string

const (
	// TagStep marks a behavioral sub-part tracked by the steps accessor.
	TagStep Tag = "Step"

	// TagParameter marks an input or output parameter. Parameters never
	// take part in disjoint field groups.
	TagParameter Tag = "Parameter"

	// TagParticipant marks an object taking part in the behavior. Participants
	// are tracked by the steps accessor like steps.
	TagParticipant Tag = "Participant"
)

// Stereotype is a stereotype applied to a connector.
type Stereotype string

const (
	// StereotypeItemFlow marks a transfer carrying items between properties.
	StereotypeItemFlow Stereotype = "ItemFlow"

	// StereotypeObjectFlow marks a transfer carrying objects between properties.
	StereotypeObjectFlow Stereotype = "ObjectFlow"

	// StereotypeBindingConnector marks a connector equating its two ends.
	StereotypeBindingConnector Stereotype = "BindingConnector"
)

// IsFlow reports whether the stereotype declares item-flow properties.
func (s Stereotype) IsFlow() bool {
	return s == StereotypeItemFlow || s == StereotypeObjectFlow
}

// ParseTag maps a tag name to a Tag. Unknown names return false.
func ParseTag(s string) (Tag, bool) {
	switch Tag(s) {
	case TagStep, TagParameter, TagParticipant:
		return Tag(s), true
	}
	return "", false
}

// ParseStereotype maps a stereotype name to a Stereotype. Unknown names
// return false.
func ParseStereotype(s string) (Stereotype, bool) {
	switch Stereotype(s) {
	case StereotypeItemFlow, StereotypeObjectFlow, StereotypeBindingConnector:
		return Stereotype(s), true
	}
	return "", false
}
