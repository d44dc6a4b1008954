package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mmr-forecast/series"
)

// ErrUnreachable wraps transport and decode failures, where the server gave no
// usable answer.
var ErrUnreachable = errors.New("failed to connect to server")

// APIError is a non-OK answer from the prediction endpoint.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("prediction endpoint returned %d: %s", e.Status, e.Message)
}

func (e *APIError) ServerMessage() string { return e.Message }

// Client talks to the history and prediction endpoints.
type Client struct {
	base string
	http *http.Client
}

func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: hc}
}

// History fetches the historical series. It is meant to be called once per session.
func (c *Client) History(ctx context.Context) ([]series.HistoricalPoint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/history", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("history: unexpected status %d", resp.StatusCode)
	}
	var points []series.HistoricalPoint
	if err := json.NewDecoder(resp.Body).Decode(&points); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return points, nil
}

type errorBody struct {
	Error string `json:"error"`
}

// Predict posts one prediction request. A non-OK status yields *APIError with
// the server's message; anything that prevents reading an answer wraps ErrUnreachable.
func (c *Client) Predict(ctx context.Context, in series.PredictionRequest) (series.PredictionResult, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return series.PredictionResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/predict", bytes.NewReader(body))
	if err != nil {
		return series.PredictionResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return series.PredictionResult{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return series.PredictionResult{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		if err := json.Unmarshal(data, &eb); err != nil {
			return series.PredictionResult{}, fmt.Errorf("%w: status %d with unreadable body", ErrUnreachable, resp.StatusCode)
		}
		return series.PredictionResult{}, &APIError{Status: resp.StatusCode, Message: eb.Error}
	}
	var res series.PredictionResult
	if err := json.Unmarshal(data, &res); err != nil {
		return series.PredictionResult{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return res, nil
}
