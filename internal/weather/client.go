// internal/weather/client.go
package weather

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// maxBody bounds how much of a reply is read.
const maxBody = 1 << 20

// ClientConfig is the runtime config the OpenWeather client needs.
type ClientConfig struct {
	APIURL  string // e.g. https://api.openweathermap.org
	APIKey  string
	City    string // "Madrid,ES"
	Units   string
	Lang    string
	Timeout time.Duration

	HTTPClient *http.Client // nil = new client with Timeout
}

// Client reads current conditions from the OpenWeather API.
type Client struct {
	cfg  ClientConfig
	http *http.Client
}

// NewClient creates a client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("weather: api key required")
	}
	if strings.TrimSpace(cfg.City) == "" {
		return nil, errors.New("weather: city required")
	}
	if _, err := url.ParseRequestURI(cfg.APIURL); err != nil {
		return nil, errors.Wrap(err, "weather: api url")
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, http: hc}, nil
}

type current struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Main    struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// Current fetches the conditions for the configured city.
func (c *Client) Current(ctx context.Context) (Report, error) {
	q := url.Values{}
	q.Set("q", c.cfg.City)
	q.Set("appid", c.cfg.APIKey)
	if c.cfg.Units != "" {
		q.Set("units", c.cfg.Units)
	}
	if c.cfg.Lang != "" {
		q.Set("lang", c.cfg.Lang)
	}

	u := strings.TrimRight(c.cfg.APIURL, "/") + "/data/2.5/weather?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Report{}, errors.Wrap(err, "weather: build request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Report{}, errors.Wrap(redact(err), "weather: request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return Report{}, errors.Wrap(err, "weather: read body")
	}

	var cur current
	decodeErr := json.Unmarshal(body, &cur)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && cur.Message != "" {
			return Report{}, errors.Errorf("weather: http %d: %s", resp.StatusCode, cur.Message)
		}
		return Report{}, errors.Errorf("weather: http %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return Report{}, errors.Wrap(decodeErr, "weather: decode")
	}

	r := Report{
		City:      cur.Name,
		Temp:      cur.Main.Temp,
		FeelsLike: cur.Main.FeelsLike,
		Humidity:  cur.Main.Humidity,
	}
	if len(cur.Weather) > 0 {
		r.Description = cur.Weather[0].Description
	}
	return r, nil
}

// redact drops the request URL, which carries the api key, from transport
// errors.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return &url.Error{Op: uerr.Op, URL: "<redacted>", Err: uerr.Err}
	}
	return err
}
