package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/bobby-s-dev/energy-site-navigator/internal/models"
	"go.uber.org/zap"
)

// AnalysisClient talks to the upstream site analysis service.
type AnalysisClient struct {
	*BaseClient
	baseURL string
}

func NewAnalysisClient(baseURL string, config ClientConfig, logger *zap.Logger) *AnalysisClient {
	baseClient := NewBaseClient("analysis", config, logger)
	return &AnalysisClient{
		BaseClient: baseClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (c *AnalysisClient) ListLocations(ctx context.Context) ([]models.Location, error) {
	var locations []models.Location
	if err := c.call(ctx, http.MethodGet, "/locations", nil, &locations, true); err != nil {
		return nil, &models.UpstreamError{Op: "list locations", Err: err}
	}
	return locations, nil
}

func (c *AnalysisClient) AddLocation(ctx context.Context, name, coordinates string) (models.Location, error) {
	payload := map[string]string{
		"name":        name,
		"coordinates": coordinates,
	}

	var location models.Location
	if err := c.call(ctx, http.MethodPost, "/locations", payload, &location, false); err != nil {
		return models.Location{}, &models.UpstreamError{Op: "add location", Err: err}
	}
	return location, nil
}

func (c *AnalysisClient) SetLocationActive(ctx context.Context, id string, active bool) (models.Location, error) {
	path := fmt.Sprintf("/locations/%s/toggle", url.PathEscape(id))
	payload := map[string]bool{"active": active}

	var location models.Location
	if err := c.call(ctx, http.MethodPatch, path, payload, &location, false); err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return models.Location{}, &models.NotFoundError{Resource: "location", ID: id}
		}
		return models.Location{}, &models.UpstreamError{Op: "toggle location", Err: err}
	}
	return location, nil
}

func (c *AnalysisClient) RunAnalysis(ctx context.Context, startDate, endDate string) (models.RawAnalysis, error) {
	payload := models.AnalysisRequest{StartDate: startDate, EndDate: endDate}

	var raw models.RawAnalysis
	if err := c.call(ctx, http.MethodPost, "/analyze", payload, &raw, true); err != nil {
		return models.RawAnalysis{}, &models.UpstreamError{Op: "run analysis", Err: err}
	}
	return raw, nil
}

func (c *AnalysisClient) FetchMonthlyData(ctx context.Context, location, coordinates string) (models.MonthlyData, error) {
	payload := models.SiteRequest{Location: location, Coordinates: coordinates}

	var monthly models.MonthlyData
	if err := c.call(ctx, http.MethodPost, "/monthly-data", payload, &monthly, true); err != nil {
		return nil, &models.UpstreamError{Op: "fetch monthly data", Err: err}
	}
	if len(monthly) == 0 {
		return nil, &models.UpstreamError{Op: "fetch monthly data", Err: errors.New("empty response")}
	}
	return monthly, nil
}

func (c *AnalysisClient) FetchElevationMap(ctx context.Context, location, coordinates string) (*models.ElevationMap, error) {
	payload := models.SiteRequest{Location: location, Coordinates: coordinates}

	var elevation *models.ElevationMap
	if err := c.call(ctx, http.MethodPost, "/elevation-map", payload, &elevation, true); err != nil {
		return nil, &models.UpstreamError{Op: "fetch elevation map", Err: err}
	}
	return elevation, nil
}

func (c *AnalysisClient) call(ctx context.Context, method, path string, in, out interface{}, retry bool) error {
	var body []byte
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = encoded
	}

	data, err := c.Do(ctx, method, c.baseURL+path, body, retry)
	if err != nil {
		return err
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
