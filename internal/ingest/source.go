// Package ingest fetches raw customer and transaction rows from files and
// databases and fingerprints them for snapshot metadata.
package ingest

import (
	"context"
	"strings"

	"github.com/patrona/patrona/internal/errors"
	"github.com/patrona/patrona/internal/storage"
)

// Row is one raw record as read from a source. Values are strings for file
// sources and driver-native types for SQL sources; the normalizer coerces
// either form.
type Row = map[string]any

// RowSource fetches all rows from one configured input.
type RowSource interface {
	// Fetch materializes every row. A non-nil error means the source could
	// not be read and the whole run must abort.
	Fetch(ctx context.Context) ([]Row, error)

	// Name identifies the source in logs and errors.
	Name() string
}

// NewSource builds a RowSource for a source locator. SQL schemes
// (mysql://, mariadb://, postgres://, postgresql://, sqlite://) get a
// table source; everything else is treated as a delimited file read
// through object storage.
func NewSource(locator string, store storage.ObjectStorage) (RowSource, error) {
	switch {
	case hasScheme(locator, "mysql", "mariadb", "postgres", "postgresql", "sqlite"):
		return NewSQLSource(locator)
	case locator == "":
		return nil, errors.NewIngestError(errors.CodeSourceUnavailable, "empty source locator", nil)
	default:
		return NewCSVSource(store, locator), nil
	}
}

func hasScheme(locator string, schemes ...string) bool {
	for _, s := range schemes {
		if strings.HasPrefix(locator, s+"://") {
			return true
		}
	}
	return false
}

// FetchPair fetches customer and transaction rows concurrently. The first
// failure cancels the other fetch and fails the pair.
func FetchPair(ctx context.Context, customers, transactions RowSource) ([]Row, []Row, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		rows []Row
		err  error
	}

	custCh := make(chan result, 1)
	txCh := make(chan result, 1)

	go func() {
		rows, err := customers.Fetch(ctx)
		if err != nil {
			cancel()
		}
		custCh <- result{rows, err}
	}()
	go func() {
		rows, err := transactions.Fetch(ctx)
		if err != nil {
			cancel()
		}
		txCh <- result{rows, err}
	}()

	cust := <-custCh
	tx := <-txCh

	if cust.err != nil {
		return nil, nil, cust.err
	}
	if tx.err != nil {
		return nil, nil, tx.err
	}
	return cust.rows, tx.rows, nil
}
