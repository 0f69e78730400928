// Package domain holds the profile fields that record a principal's Parcoursup identifier and session.
package domain

// Field identifies one of the identifier profile fields. The persisted shortname lives in the repository.
type Field int

const (
	// FieldPsupID is the Parcoursup identifier the principal registered with.
	FieldPsupID Field = iota + 1
	// FieldPsupSession is the enrollment session label the identifier belongs to.
	FieldPsupSession
)

func (f Field) String() string {
	switch f {
	case FieldPsupID:
		return "psupid"
	case FieldPsupSession:
		return "psupsession"
	default:
		return "unknown"
	}
}

// Category is the profile field category the identifier fields are provisioned in.
const Category = "Parcoursup"

// Definition describes a provisioned profile field.
type Definition struct {
	ID       int64
	Field    Field
	Name     string
	Datatype string
	Category string
	Visible  bool
	Signup   bool
	Required bool
}

// Definitions returns the identifier fields in provisioning order: hidden, not on the signup form, not required.
func Definitions() []Definition {
	return []Definition{
		{Field: FieldPsupID, Name: "Parcoursup identifier", Datatype: "text", Category: Category},
		{Field: FieldPsupSession, Name: "Parcoursup session", Datatype: "text", Category: Category},
	}
}

// Record is the identifier record of a principal: the identifier and the session it belongs to.
type Record struct {
	PsupID  string
	Session string
}
