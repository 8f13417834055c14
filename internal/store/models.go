package store

import "database/sql"

// Record is the sole domain object: a persisted row with a store-assigned
// identifier, a required numeric value, and an optional name.
type Record struct {
	ID     int64          `gorm:"primaryKey;autoIncrement"`
	Number int64          `gorm:"column:number_value;not null"`
	Name   sql.NullString `gorm:"index:idx_records_name"`
}

func (Record) TableName() string { return "records" }

// RecordInput is the pre-validation shape of a record as supplied by callers.
// Number is a pointer so an absent value is distinguishable from zero.
type RecordInput struct {
	Number *int64
	Name   *string
}

// toRecord converts a validated input into a Record. Callers must have
// checked Number != nil first.
func (in RecordInput) toRecord() Record {
	rec := Record{Number: *in.Number}
	if in.Name != nil {
		rec.Name = sql.NullString{String: *in.Name, Valid: true}
	}
	return rec
}

// validateInputs checks that every input carries the required number value.
// Returns a *ValidationError identifying the first offending position.
func validateInputs(inputs []RecordInput) error {
	for i, in := range inputs {
		if in.Number == nil {
			return &ValidationError{Position: i}
		}
	}
	return nil
}
