// Package export writes scored analytics out as CSV and JSON artifacts
// through the object storage layer.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strconv"
	"time"

	"github.com/patrona/patrona/internal/errors"
	"github.com/patrona/patrona/internal/storage"
	"github.com/patrona/patrona/pkg/types"
)

// rfmHeader is the flattened column set for scored customers.
var rfmHeader = []string{
	"customer_id", "frequency", "monetary", "avg_order_value",
	"customer_lifetime_days", "purchase_rate", "customer_type", "attribution",
	"total_items_sold", "recency", "r_score", "f_score", "m_score",
	"rfm_sum", "segment", "propensity",
}

// TimestampedName builds an artifact name like rfm_20240601_120000.csv
// under baseDir.
func TimestampedName(baseDir, name, ext string, now time.Time) string {
	return path.Join(baseDir, fmt.Sprintf("%s_%s.%s", name, now.Format("20060102_150405"), ext))
}

// WriteRFMCSV streams customers as a headers-then-rows CSV. Unscored
// customers leave the derived columns empty.
func WriteRFMCSV(out io.Writer, customers []types.CustomerSummary) error {
	w := csv.NewWriter(out)

	if err := w.Write(rfmHeader); err != nil {
		return errors.NewInternalError("write csv header", err)
	}
	for i := range customers {
		if err := w.Write(rfmRow(&customers[i])); err != nil {
			return errors.NewInternalError("write csv row", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.NewInternalError("flush csv", err)
	}
	return nil
}

// RFMCSV writes the customer CSV into object storage.
func RFMCSV(ctx context.Context, store storage.ObjectStorage, objectPath string, customers []types.CustomerSummary) error {
	var buf bytes.Buffer
	if err := WriteRFMCSV(&buf, customers); err != nil {
		return err
	}
	if err := store.Put(ctx, objectPath, &buf); err != nil {
		return errors.NewStorageError(errors.CodeUploadFailed,
			"store csv export "+objectPath, err)
	}
	return nil
}

func rfmRow(c *types.CustomerSummary) []string {
	row := []string{
		c.CustomerID,
		formatFloat(c.Frequency),
		formatFloat(c.Monetary),
		formatFloat(c.AvgOrderValue),
		formatFloat(c.CustomerLifetimeDays),
		formatFloat(c.PurchaseRate),
		c.CustomerType,
		c.Attribution,
		formatFloat(c.TotalItemsSold),
	}
	if s := c.Scores; s != nil {
		row = append(row,
			strconv.Itoa(s.Recency),
			strconv.Itoa(s.R),
			strconv.Itoa(s.F),
			strconv.Itoa(s.M),
			strconv.Itoa(s.Sum),
			s.Segment,
			strconv.Itoa(s.Propensity),
		)
	} else {
		row = append(row, "", "", "", "", "", "", "")
	}
	return row
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// SnapshotJSON writes the whole snapshot as an indented JSON object.
func SnapshotJSON(ctx context.Context, store storage.ObjectStorage, objectPath string, snap *types.AnalyticsSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return errors.NewInternalError("encode snapshot", err)
	}
	if err := store.Put(ctx, objectPath, bytes.NewReader(data)); err != nil {
		return errors.NewStorageError(errors.CodeUploadFailed,
			"store json export "+objectPath, err)
	}
	return nil
}
