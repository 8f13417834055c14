package store

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// RecordStore provides the high-level repository API over GORM. Reads are
// passthroughs; SaveAll persists a whole batch in a single transaction, the
// naive alternative the bulk loader is measured against.
type RecordStore struct {
	db *gorm.DB
}

// NewRecordStore creates a new record repository.
func NewRecordStore(store *Store) *RecordStore {
	return &RecordStore{db: store.DB}
}

// FindAll returns every record currently in the store, in store-defined order.
func (r *RecordStore) FindAll(ctx context.Context) ([]Record, error) {
	var records []Record
	if err := r.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, wrapStoreErr("find all", err)
	}
	return records, nil
}

// FindByNameContains returns all records whose name contains fragment as a
// case-insensitive substring. No match yields an empty slice, not an error.
func (r *RecordStore) FindByNameContains(ctx context.Context, fragment string) ([]Record, error) {
	var records []Record
	err := r.db.WithContext(ctx).
		Where(`LOWER(name) LIKE LOWER(?) ESCAPE '\'`, likePattern(fragment)).
		Find(&records).Error
	if err != nil {
		return nil, wrapStoreErr("find by name", err)
	}
	return records, nil
}

// Count returns the number of records in the store.
func (r *RecordStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Record{}).Count(&count).Error; err != nil {
		return 0, wrapStoreErr("count", err)
	}
	return count, nil
}

// SaveAll validates and persists all inputs in one transaction. Every inserted
// record is returned with its store-assigned ID. A missing number value at
// position k fails the whole call with a *ValidationError; nothing is written.
func (r *RecordStore) SaveAll(ctx context.Context, inputs []RecordInput) ([]Record, error) {
	if err := validateInputs(inputs); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, nil
	}

	records := make([]Record, len(inputs))
	for i, in := range inputs {
		records[i] = in.toRecord()
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&records).Error
	})
	if err != nil {
		return nil, wrapStoreErr("save all", err)
	}
	return records, nil
}

// likeEscaper escapes LIKE metacharacters so fragment matching is literal.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds the contains-pattern for a user-supplied fragment.
func likePattern(fragment string) string {
	return "%" + likeEscaper.Replace(fragment) + "%"
}
