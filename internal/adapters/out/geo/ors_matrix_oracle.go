package geo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultORSBaseURL = "https://api.openrouteservice.org"
	DefaultORSProfile = "driving-car"

	maxAttempts = 3
)

type ORSConfig struct {
	BaseURL string
	APIKey  string
	Profile string
	// HTTPTimeout bounds a single request. The caller's context bounds the whole call.
	HTTPTimeout time.Duration
}

// ORSMatrixOracle asks the OpenRouteService matrix endpoint for a full
// distance/duration matrix. Transient failures (network errors, 429, 5xx)
// are retried with exponential backoff while the context allows.
type ORSMatrixOracle struct {
	client  *http.Client
	baseURL string
	apiKey  string
	profile string
}

var _ ports.GeoCostOracle = (*ORSMatrixOracle)(nil)

func NewORSMatrixOracle(cfg ORSConfig) (*ORSMatrixOracle, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultORSBaseURL
	}
	if cfg.Profile == "" {
		cfg.Profile = DefaultORSProfile
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}

	return &ORSMatrixOracle{
		client:  &http.Client{Timeout: cfg.HTTPTimeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		profile: cfg.Profile,
	}, nil
}

type matrixRequest struct {
	Locations [][]float64 `json:"locations"`
	Metrics   []string    `json:"metrics"`
	Units     string      `json:"units"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("ORS responded %d: %s", e.Code, e.Body)
}

func (o *ORSMatrixOracle) CostMatrix(ctx context.Context, points []kernel.Location) (ports.CostMatrix, error) {
	n := len(points)
	if n == 0 {
		return ports.CostMatrix{Distances: [][]int{}, Durations: [][]int{}}, nil
	}

	locations := make([][]float64, n)
	for i, p := range points {
		locations[i] = []float64{p.Lon(), p.Lat()}
	}
	payload, err := json.Marshal(matrixRequest{
		Locations: locations,
		Metrics:   []string{"distance", "duration"},
		Units:     "m",
	})
	if err != nil {
		return ports.CostMatrix{}, fmt.Errorf("marshal matrix request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/matrix/%s", o.baseURL, o.profile)

	var mr matrixResponse
	err = o.doWithRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Authorization", o.apiKey)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")

		resp, err := o.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusBadRequest {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return &httpStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
		}
		if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
			return backoff.Permanent(fmt.Errorf("decode matrix response: %w", err))
		}
		return nil
	})
	if err != nil {
		return ports.CostMatrix{}, fmt.Errorf("matrix request failed: %w", err)
	}

	distances, err := roundMatrix("distances", mr.Distances, n)
	if err != nil {
		return ports.CostMatrix{}, err
	}
	durations, err := roundMatrix("durations", mr.Durations, n)
	if err != nil {
		return ports.CostMatrix{}, err
	}
	return ports.CostMatrix{Distances: distances, Durations: durations}, nil
}

// doWithRetry retries transient failures and gives up on anything else.
func (o *ORSMatrixOracle) doWithRetry(ctx context.Context, op func() error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 200 * time.Millisecond
	eb.MaxInterval = 2 * time.Second

	policy := backoff.WithContext(backoff.WithMaxRetries(eb, maxAttempts-1), ctx)

	return backoff.Retry(func() error {
		err := op()
		if err == nil || isTransient(err) {
			return err
		}
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return err
		}
		return backoff.Permanent(err)
	}, policy)
}

func isTransient(err error) bool {
	var he *httpStatusError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// roundMatrix converts ORS float metrics to whole units. Unreachable pairs come back as null.
func roundMatrix(name string, rows [][]*float64, n int) ([][]int, error) {
	if len(rows) != n {
		return nil, fmt.Errorf("matrix %s has %d rows, want %d", name, len(rows), n)
	}
	out := make([][]int, n)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("matrix %s row %d has %d columns, want %d", name, i, len(row), n)
		}
		out[i] = make([]int, n)
		for j, v := range row {
			if v == nil {
				return nil, fmt.Errorf("matrix %s has no value from point %d to %d", name, i, j)
			}
			out[i][j] = int(math.Round(*v))
		}
	}
	return out, nil
}
