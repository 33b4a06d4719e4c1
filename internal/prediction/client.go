// Package prediction calls the external churn and next-purchase prediction
// service. The service is a collaborator consuming scored customer facts;
// its failures never touch the analytics snapshot.
package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/patrona/patrona/internal/errors"
	"github.com/patrona/patrona/pkg/types"
)

// Request is the customer fact sheet sent to the prediction service. Field
// names follow the service's wire contract.
type Request struct {
	CustomerID     string  `json:"Customer_ID"`
	RecencyDays    int     `json:"Recency_Days"`
	Frequency      float64 `json:"Frequency"`
	Monetary       float64 `json:"Monetary"`
	AvgOrderValue  float64 `json:"Avg_Order_Value"`
	TotalItemsSold float64 `json:"Total_Items_Sold"`
	Attribution    string  `json:"Attribution"`
	CustomerType   string  `json:"Customer_Type"`
}

// Response is the service's prediction for one customer.
type Response struct {
	ChurnProbability     float64 `json:"Churn_Probability"`
	PredNextPurchaseDays float64 `json:"Pred_Next_Purchase_Days"`
}

// Client is an HTTP client for the prediction service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a prediction client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// RequestFor builds a service request from a scored customer.
func RequestFor(c *types.CustomerSummary) (Request, error) {
	if c.Scores == nil {
		return Request{}, errors.NewPredictionError(errors.CodeBadPrediction,
			"customer "+c.CustomerID+" has no scores", nil)
	}
	return Request{
		CustomerID:     c.CustomerID,
		RecencyDays:    c.Scores.Recency,
		Frequency:      c.Frequency,
		Monetary:       c.Monetary,
		AvgOrderValue:  c.AvgOrderValue,
		TotalItemsSold: c.TotalItemsSold,
		Attribution:    c.Attribution,
		CustomerType:   c.CustomerType,
	}, nil
}

// Predict posts one customer's facts and returns the service's prediction.
// Transport failures are retryable; malformed responses are not.
func (c *Client) Predict(ctx context.Context, req Request) (*Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errors.NewPredictionError(errors.CodeBadPrediction,
			"encode prediction request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/predict", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.NewPredictionError(errors.CodeBadPrediction,
			"build prediction request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.NewPredictionError(errors.CodeServiceUnavailable,
			"prediction service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			return nil, errors.NewPredictionError(errors.CodeServiceUnavailable,
				fmt.Sprintf("prediction service error %d: %s", resp.StatusCode, string(body)), nil)
		}
		return nil, errors.NewPredictionError(errors.CodeBadPrediction,
			fmt.Sprintf("prediction rejected with %d: %s", resp.StatusCode, string(body)), nil)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.NewPredictionError(errors.CodeBadPrediction,
			"decode prediction response", err)
	}
	if out.ChurnProbability < 0 || out.ChurnProbability > 100 {
		return nil, errors.NewPredictionError(errors.CodeBadPrediction,
			fmt.Sprintf("churn probability %v out of range", out.ChurnProbability), nil)
	}
	return &out, nil
}

// Ping checks connectivity to the prediction service.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return errors.NewPredictionError(errors.CodeBadPrediction, "build ping request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewPredictionError(errors.CodeServiceUnavailable,
			"prediction service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.NewPredictionError(errors.CodeServiceUnavailable,
			fmt.Sprintf("prediction ping failed with status %d", resp.StatusCode), nil)
	}
	return nil
}
