package storage

import (
	"wallapop-scanner/models"
	"wallapop-scanner/utils"
)

// RecordStore is the interface the durable store must satisfy. It is the
// single source of truth for "already known" listings across runs.
type RecordStore interface {
	// SeenIDs rebuilds the set of every listing id already persisted.
	SeenIDs() (*utils.IDSet, error)
	// Append durably writes one record. Existing records are never
	// rewritten or deleted.
	Append(rec *models.Record) error
	Close() error
}

// RecordMirror is the interface for optional secondary sinks that receive
// a copy of the records accepted in a run.
type RecordMirror interface {
	Write(recs []*models.Record) error
	Close() error
}
