package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/patrona/patrona/internal/analytics/engine"
	"github.com/patrona/patrona/internal/analytics/view"
	"github.com/patrona/patrona/internal/errors"
	"github.com/patrona/patrona/internal/export"
	"github.com/patrona/patrona/internal/prediction"
	"github.com/patrona/patrona/pkg/types"
)

// Runner executes a full ingestion and build cycle. Empty source locators
// fall back to the configured sources.
type Runner interface {
	Run(ctx context.Context, customerSource, transactionSource string) (*types.AnalyticsSnapshot, error)
}

// Predictor is the external churn-prediction collaborator.
type Predictor interface {
	Predict(ctx context.Context, req prediction.Request) (*prediction.Response, error)
}

// statusFor maps an error chain to an HTTP status code.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeNoSnapshot:
		return http.StatusNotFound
	case errors.CodeSourceUnavailable, errors.CodeUnparseableSource, errors.CodeMissingHeader:
		return http.StatusBadGateway
	case errors.CodeServiceUnavailable:
		return http.StatusBadGateway
	case errors.CodeBadPrediction:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, err error, requestID string) {
	writeError(w, statusFor(err), err.Error(), errors.GetCode(err), requestID)
}

// IngestRequest optionally overrides the configured source locators.
type IngestRequest struct {
	CustomerSource    string `json:"customer_source,omitempty"`
	TransactionSource string `json:"transaction_source,omitempty"`
}

// IngestResponse summarizes a completed build.
type IngestResponse struct {
	RunID           string `json:"run_id"`
	CustomerRows    int    `json:"customer_rows"`
	TransactionRows int    `json:"transaction_rows"`
	Defects         int64  `json:"defects"`
	RequestID       string `json:"request_id"`
}

// IngestHandler handles POST /v1/ingest requests.
type IngestHandler struct {
	runner Runner
}

// NewIngestHandler creates an ingest handler.
func NewIngestHandler(runner Runner) *IngestHandler {
	return &IngestHandler{runner: runner}
}

func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "", requestID)
		return
	}

	var req IngestRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), "", requestID)
			return
		}
	}

	snap, err := h.runner.Run(r.Context(), req.CustomerSource, req.TransactionSource)
	if err != nil {
		writeDomainError(w, err, requestID)
		return
	}

	writeJSON(w, http.StatusOK, IngestResponse{
		RunID:           snap.Meta.RunID,
		CustomerRows:    snap.Meta.CustomerRows,
		TransactionRows: snap.Meta.TransactionRows,
		Defects:         snap.Meta.Defects,
		RequestID:       requestID,
	})
}

// SnapshotHandler handles GET /v1/snapshot requests.
type SnapshotHandler struct {
	store *engine.Store
}

// NewSnapshotHandler creates a snapshot handler.
func NewSnapshotHandler(store *engine.Store) *SnapshotHandler {
	return &SnapshotHandler{store: store}
}

func (h *SnapshotHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "", requestID)
		return
	}

	snap, err := h.store.Current()
	if err != nil {
		writeDomainError(w, err, requestID)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ViewHandler handles POST /v1/view requests, deriving a filtered
// projection from the current snapshot.
type ViewHandler struct {
	store *engine.Store
}

// NewViewHandler creates a view handler.
func NewViewHandler(store *engine.Store) *ViewHandler {
	return &ViewHandler{store: store}
}

func (h *ViewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "", requestID)
		return
	}

	var filter types.ViewFilter
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&filter); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), "", requestID)
			return
		}
	}

	snap, err := h.store.Current()
	if err != nil {
		writeDomainError(w, err, requestID)
		return
	}
	writeJSON(w, http.StatusOK, view.Apply(snap, filter))
}

// PredictRequest names the customer to predict for.
type PredictRequest struct {
	CustomerID string `json:"customer_id"`
}

// PredictResponse pairs the customer with the collaborator's prediction.
type PredictResponse struct {
	CustomerID           string  `json:"customer_id"`
	ChurnProbability     float64 `json:"churn_probability"`
	PredNextPurchaseDays float64 `json:"pred_next_purchase_days"`
	RequestID            string  `json:"request_id"`
}

// PredictHandler handles POST /v1/predict requests by proxying the scored
// customer's facts to the prediction service.
type PredictHandler struct {
	store     *engine.Store
	predictor Predictor
}

// NewPredictHandler creates a predict handler.
func NewPredictHandler(store *engine.Store, predictor Predictor) *PredictHandler {
	return &PredictHandler{store: store, predictor: predictor}
}

func (h *PredictHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "", requestID)
		return
	}

	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), "", requestID)
		return
	}
	if req.CustomerID == "" {
		writeError(w, http.StatusBadRequest, "customer_id is required", "", requestID)
		return
	}

	snap, err := h.store.Current()
	if err != nil {
		writeDomainError(w, err, requestID)
		return
	}

	var customer *types.CustomerSummary
	for i := range snap.Customers {
		if snap.Customers[i].CustomerID == req.CustomerID {
			customer = &snap.Customers[i]
			break
		}
	}
	if customer == nil {
		writeError(w, http.StatusNotFound, "unknown customer "+req.CustomerID, "", requestID)
		return
	}

	predReq, err := prediction.RequestFor(customer)
	if err != nil {
		writeDomainError(w, err, requestID)
		return
	}

	resp, err := h.predictor.Predict(r.Context(), predReq)
	if err != nil {
		writeDomainError(w, err, requestID)
		return
	}

	writeJSON(w, http.StatusOK, PredictResponse{
		CustomerID:           req.CustomerID,
		ChurnProbability:     resp.ChurnProbability,
		PredNextPurchaseDays: resp.PredNextPurchaseDays,
		RequestID:            requestID,
	})
}

// ExportHandler handles GET /v1/export/rfm requests, streaming the scored
// customer CSV.
type ExportHandler struct {
	store *engine.Store
}

// NewExportHandler creates an export handler.
func NewExportHandler(store *engine.Store) *ExportHandler {
	return &ExportHandler{store: store}
}

func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "", requestID)
		return
	}

	snap, err := h.store.Current()
	if err != nil {
		writeDomainError(w, err, requestID)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="rfm.csv"`)
	if err := export.WriteRFMCSV(w, snap.Customers); err != nil {
		log.Printf("streaming rfm export failed: %v", err)
	}
}

// NewRouter assembles the API routes behind the default middleware chain.
func NewRouter(runner Runner, store *engine.Store, predictor Predictor) http.Handler {
	mw := DefaultMiddleware()

	mux := http.NewServeMux()
	mux.Handle("/v1/ingest", mw(NewIngestHandler(runner)))
	mux.Handle("/v1/snapshot", mw(NewSnapshotHandler(store)))
	mux.Handle("/v1/view", mw(NewViewHandler(store)))
	mux.Handle("/v1/predict", mw(NewPredictHandler(store, predictor)))
	mux.Handle("/v1/export/rfm", ChainMiddleware(RecoveryMiddleware, RequestIDMiddleware)(NewExportHandler(store)))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}
