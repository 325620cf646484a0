// Package obm provides the input vocabulary of object behavior models.
//
// Behavior models tag properties with role tags (Step, Parameter,
// Participant), mark connectors with stereotypes (ItemFlow, ObjectFlow,
// BindingConnector) and name connector ends with library role names that
// decide how a connector is translated.
package obm
