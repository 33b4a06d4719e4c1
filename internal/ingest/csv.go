package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/golang/snappy"

	"github.com/patrona/patrona/internal/errors"
	"github.com/patrona/patrona/internal/storage"
)

// CSVSource reads a header-plus-rows CSV file through object storage.
// Files with a .snappy suffix are decompressed on the fly.
type CSVSource struct {
	store storage.ObjectStorage
	path  string
}

// NewCSVSource creates a CSV row source for the given object path.
func NewCSVSource(store storage.ObjectStorage, path string) *CSVSource {
	return &CSVSource{store: store, path: path}
}

// Name returns the object path.
func (s *CSVSource) Name() string {
	return s.path
}

// Fetch reads the whole file. The first record is the header; each later
// record becomes a Row keyed by the raw header cells.
func (s *CSVSource) Fetch(ctx context.Context) ([]Row, error) {
	rc, err := s.store.Open(ctx, s.path)
	if err != nil {
		return nil, errors.NewIngestError(errors.CodeSourceUnavailable,
			"open source "+s.path, err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if strings.HasSuffix(s.path, ".snappy") {
		r = snappy.NewReader(rc)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows are a data defect, not a fetch failure

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewIngestError(errors.CodeMissingHeader,
			"source "+s.path+" is empty", nil)
	}
	if err != nil {
		return nil, errors.NewIngestError(errors.CodeUnparseableSource,
			"read header of "+s.path, err)
	}

	var rows []Row
	for {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewIngestError(errors.CodeSourceUnavailable,
				"fetch cancelled for "+s.path, err)
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewIngestError(errors.CodeUnparseableSource,
				"read row of "+s.path, err)
		}

		row := make(Row, len(header))
		for i, key := range header {
			if i < len(record) {
				row[key] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
