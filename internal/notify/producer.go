// Package notify publishes run-completion summaries to Kafka.
package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/patrona/patrona/internal/observability"
)

// RunSummary is the message published after each completed snapshot build.
type RunSummary struct {
	RunID           string           `json:"run_id"`
	GeneratedAt     time.Time        `json:"generated_at"`
	CustomerRows    int              `json:"customer_rows"`
	TransactionRows int              `json:"transaction_rows"`
	Defects         int64            `json:"defects"`
	Duration        time.Duration    `json:"duration_ns"`
	Stats           *RunSummaryStats `json:"stats,omitempty"`
}

// RunSummaryStats carries the per-stage breakdown when available.
type RunSummaryStats struct {
	RowsRead map[string]int64         `json:"rows_read"`
	Stages   map[string]time.Duration `json:"stages"`
}

// Notifier publishes run summaries. The zero-value nil Notifier is a no-op,
// so callers never branch on whether notification is configured.
type Notifier struct {
	writer *kafka.Writer
}

// NewNotifier creates a Kafka notifier for the given brokers and topic.
func NewNotifier(brokers []string, topic string) *Notifier {
	return &Notifier{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// RunCompleted publishes one summary keyed by run id. Publish failures are
// returned for logging but never fail the run itself.
func (n *Notifier) RunCompleted(ctx context.Context, summary RunSummary) error {
	if n == nil {
		return nil
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(summary.RunID),
		Value: data,
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return err
	}

	log.Printf("published run summary %s", summary.RunID)
	return nil
}

// SummaryFrom assembles a RunSummary from run metadata and stats.
func SummaryFrom(runID string, generatedAt time.Time, customerRows, transactionRows int, duration time.Duration, stats *observability.RunStats) RunSummary {
	summary := RunSummary{
		RunID:           runID,
		GeneratedAt:     generatedAt,
		CustomerRows:    customerRows,
		TransactionRows: transactionRows,
		Duration:        duration,
	}
	if stats != nil {
		summary.Defects = stats.DefectCount()
		snap := stats.Snapshot()
		summary.Stats = &RunSummaryStats{
			RowsRead: snap.RowsRead,
			Stages:   snap.Stages,
		}
	}
	return summary
}

// Close closes the underlying writer.
func (n *Notifier) Close() error {
	if n == nil {
		return nil
	}
	return n.writer.Close()
}
