// Package alloy provides the output vocabulary every generated fact is
// expressed in: the builtin signatures, the base relations and accessors,
// and the filtered-relation predicates of the preamble.
//
// Predicates register themselves with their Alloy definition so writers can
// render the preamble from the registry:
//
//	for _, p := range alloy.Predicates() {
//		fmt.Println(p.Definition())
//	}
package alloy
