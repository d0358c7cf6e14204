package record

import "fmt"

// InvalidStateError is returned when an operation is not allowed in the
// record's current state, such as destroying a record the server has never
// seen.
type InvalidStateError struct {
	Model  string
	Op     string
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state: cannot %s %s record: %s", e.Op, e.Model, e.Reason)
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *InvalidStateError) Hint() string {
	if e.Op == "mark for destruction" {
		return "Only persisted records can be destroyed. Use MarkForDeletion to drop an unsaved record from its parent."
	}
	return "Check the record's persistence state before calling this operation."
}

// UnknownModelError is returned when a model name is not registered in the schema.
type UnknownModelError struct {
	Model string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("model %q is not registered", e.Model)
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *UnknownModelError) Hint() string {
	return fmt.Sprintf("Declare model %q in the schema before creating or pushing records of it.", e.Model)
}

// UnknownRelationshipError is returned when a relationship name is not
// declared on a model. This is a programmer error, not a data condition.
type UnknownRelationshipError struct {
	Model        string
	Relationship string
}

func (e *UnknownRelationshipError) Error() string {
	return fmt.Sprintf("model %q has no relationship %q", e.Model, e.Relationship)
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *UnknownRelationshipError) Hint() string {
	return fmt.Sprintf("Check the relationships directive or declare %q on model %q.", e.Relationship, e.Model)
}

// UnknownAttributeError is returned when an attribute is not declared on a model.
type UnknownAttributeError struct {
	Model     string
	Attribute string
}

func (e *UnknownAttributeError) Error() string {
	return fmt.Sprintf("model %q has no attribute %q", e.Model, e.Attribute)
}

// ConflictError is returned when an id is already taken by another record
// of the same model.
type ConflictError struct {
	Model string
	ID    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s record with id %q already exists", e.Model, e.ID)
}
