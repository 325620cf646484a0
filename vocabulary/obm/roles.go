package obm

// Connector end role names from the behavior library. A connector's kind is
// decided by the role names of its ends.
const (
	// RoleEarlierOccurrence is the source end of a precedence connector.
	RoleEarlierOccurrence = "earlierOccurrence"

	// RoleLaterOccurrence is the target end of a precedence connector.
	RoleLaterOccurrence = "laterOccurrence"

	// RoleShorterOccurrence is the contained end of a concurrency connector.
	RoleShorterOccurrence = "shorterOccurrence"

	// RoleLongerOccurrence is the containing end of a concurrency connector.
	RoleLongerOccurrence = "longerOccurrence"

	// RoleTransferSource is the source end of a transfer connector.
	RoleTransferSource = "transferSource"

	// RoleTransferTarget is the target end of a transfer connector.
	RoleTransferTarget = "transferTarget"

	// RoleTransferBeforeSource is the source end of an ordered transfer.
	RoleTransferBeforeSource = "transferBeforeSource"

	// RoleTransferBeforeTarget is the target end of an ordered transfer.
	RoleTransferBeforeTarget = "transferBeforeTarget"
)

// Side identifies which end of a directed connector a role sits on.
type Side int

const (
	// SideNone is returned for unknown roles.
	SideNone Side = iota
	// SideSource is the end the connector leaves from.
	SideSource
	// SideTarget is the end the connector arrives at.
	SideTarget
)

// String returns "source", "target" or "none".
func (s Side) String() string {
	switch s {
	case SideSource:
		return "source"
	case SideTarget:
		return "target"
	default:
		return "none"
	}
}

// ParseSide maps "source" or "target" to a Side.
func ParseSide(s string) Side {
	switch s {
	case "source":
		return SideSource
	case "target":
		return SideTarget
	default:
		return SideNone
	}
}

// RoleSide returns the side a library role name sits on.
func RoleSide(role string) Side {
	switch role {
	case RoleEarlierOccurrence, RoleShorterOccurrence, RoleTransferSource, RoleTransferBeforeSource:
		return SideSource
	case RoleLaterOccurrence, RoleLongerOccurrence, RoleTransferTarget, RoleTransferBeforeTarget:
		return SideTarget
	default:
		return SideNone
	}
}

// Root is the name of the library class every behavior ultimately extends.
const Root = "Occurrence"

// Primitives lists the primitive types every model provides implicitly.
var Primitives = []string{"Boolean", "Integer", "Real", "String", "UnlimitedNatural"}

// IsPrimitive reports whether name is a primitive type.
func IsPrimitive(name string) bool {
	for _, p := range Primitives {
		if p == name {
			return true
		}
	}
	return false
}
