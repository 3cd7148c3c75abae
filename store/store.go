// Package store persists customer records in insertion order.
package store

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/zeebo/errs"

	"redforge/models"
)

var (
	// Error is the class of persistence failures.
	Error = errs.Class("customer store")
	// ErrInvalidRecord marks records rejected before anything is written.
	ErrInvalidRecord = errs.Class("invalid customer record")
)

// ReadStatus says how a read of the backing storage went.
type ReadStatus int

const (
	ReadOK ReadStatus = iota
	// ReadMissing means nothing has been stored yet.
	ReadMissing
	// ReadCorrupt means the stored data could not be decoded.
	ReadCorrupt
	// ReadFailed means the storage could not be read at all.
	ReadFailed
)

func (s ReadStatus) String() string {
	switch s {
	case ReadOK:
		return "ok"
	case ReadMissing:
		return "missing"
	case ReadCorrupt:
		return "corrupt"
	default:
		return "error"
	}
}

// ReadResult is the outcome of a List. Records is empty unless Status is
// ReadOK; Err holds the cause for ReadCorrupt and ReadFailed.
type ReadResult struct {
	Records []models.CustomerRecord
	Status  ReadStatus
	Err     error
}

// Store is an append-only sequence of customer records.
type Store interface {
	Append(ctx context.Context, record models.CustomerRecord) error
	List(ctx context.Context) ReadResult
	Close() error
}

var validate = validator.New()

func validateRecord(record models.CustomerRecord) error {
	if err := validate.Struct(record); err != nil {
		return ErrInvalidRecord.Wrap(err)
	}
	return nil
}
