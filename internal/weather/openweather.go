package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ppiankov/wayfind/internal/model"
	"github.com/ppiankov/wayfind/internal/retry"
)

const defaultOpenWeatherURL = "https://api.openweathermap.org"

// ErrInvalidKey is returned when the weather API rejects the credential.
var ErrInvalidKey = errors.New("invalid API key")

// OpenWeather reads current conditions from the OpenWeatherMap API.
type OpenWeather struct {
	baseURL    string
	apiKey     string
	units      string
	httpClient *http.Client
}

type currentResponse struct {
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// NewOpenWeather creates a client. units defaults to metric.
func NewOpenWeather(baseURL, apiKey, units string, httpClient *http.Client) (*OpenWeather, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openweather API key is required: %w", model.ErrMissingCredential)
	}
	if baseURL == "" {
		baseURL = defaultOpenWeatherURL
	}
	if units == "" {
		units = "metric"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OpenWeather{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		units:      units,
		httpClient: httpClient,
	}, nil
}

// Current returns "<Description>, <temp>°C, wind <speed>m/s" for location.
func (o *OpenWeather) Current(ctx context.Context, location string) (string, error) {
	q := url.Values{}
	q.Set("q", location)
	q.Set("appid", o.apiKey)
	q.Set("units", o.units)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/data/2.5/weather?"+q.Encode(), nil)
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("create request: %w", err))
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("weather request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", retry.Permanent(ErrInvalidKey)
	case resp.StatusCode != http.StatusOK:
		return "", &retry.StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	var out currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode weather response: %w", err)
	}
	if len(out.Weather) == 0 {
		return "", errors.New("weather response has no conditions")
	}

	// a Caser is not safe for concurrent use
	desc := cases.Title(language.English).String(out.Weather[0].Description)

	return fmt.Sprintf("%s, %s°C, wind %sm/s", desc, num(out.Main.Temp), num(out.Wind.Speed)), nil
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
