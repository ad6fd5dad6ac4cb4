package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"blog-server/pkg/config"
	"blog-server/pkg/models"

	"golang.org/x/sync/singleflight"
)

var (
	ErrNotConfigured   = errors.New("not configured")
	ErrInvalidUpstream = errors.New("invalid upstream response")
)

// GeoFallback is answered when the city lookup fails.
var GeoFallback = models.GeoLocation{
	ID:      "101190101",
	Name:    "南京",
	Country: "中国",
	Adm1:    "江苏省",
	Adm2:    "南京市",
	Lat:     "32.05839",
	Lon:     "118.79647",
}

const defaultQuoteAuthor = "Daily English"

// Proxy fetches third-party APIs on behalf of the browser.
type Proxy struct {
	Client *http.Client
	Now    func() time.Time

	group    singleflight.Group
	mu       sync.Mutex
	quote    *models.Quote
	quoteDay string
}

func NewProxy() *Proxy {
	return &Proxy{
		Client: &http.Client{Timeout: config.UpstreamTimeout},
		Now:    time.Now,
	}
}

func (p *Proxy) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("upstream responded with status: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidUpstream, err)
	}
	return nil
}

// Weather returns the QWeather "now" payload for a location id, untouched.
func (p *Proxy) Weather(ctx context.Context, location string) (json.RawMessage, error) {
	if config.QWeatherAPIKey == "" {
		return nil, fmt.Errorf("weather api key: %w", ErrNotConfigured)
	}
	if location == "" {
		location = config.WeatherDefaultLocation
	}
	q := url.Values{"location": {location}, "key": {config.QWeatherAPIKey}}

	var data json.RawMessage
	if err := p.getJSON(ctx, config.WeatherAPIURL+"?"+q.Encode(), &data); err != nil {
		return nil, fmt.Errorf("weather: %w", err)
	}
	return data, nil
}

// Geo returns the QWeather city lookup payload, untouched.
func (p *Proxy) Geo(ctx context.Context, location string) (json.RawMessage, error) {
	if config.QWeatherAPIKey == "" {
		return nil, fmt.Errorf("weather api key: %w", ErrNotConfigured)
	}
	if location == "" {
		location = config.GeoDefaultLocation
	}
	q := url.Values{"location": {location}, "key": {config.QWeatherAPIKey}}

	var data json.RawMessage
	if err := p.getJSON(ctx, config.GeoAPIURL+"?"+q.Encode(), &data); err != nil {
		return nil, fmt.Errorf("geo: %w", err)
	}
	return data, nil
}

// Location resolves an IP address to a coarse place.
func (p *Proxy) Location(ctx context.Context, ip string) (models.Location, error) {
	var data struct {
		City        string  `json:"city"`
		Region      string  `json:"region"`
		CountryName string  `json:"country_name"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
		Error       bool    `json:"error"`
		Reason      string  `json:"reason"`
	}
	endpoint := strings.TrimSuffix(config.LocationAPIURL, "/") + "/" + url.PathEscape(ip) + "/json/"
	if err := p.getJSON(ctx, endpoint, &data); err != nil {
		return models.Location{}, fmt.Errorf("location: %w", err)
	}
	if data.Error {
		return models.Location{}, fmt.Errorf("location: %w: %s", ErrInvalidUpstream, data.Reason)
	}
	return models.Location{
		City:      data.City,
		Region:    data.Region,
		Country:   data.CountryName,
		Latitude:  data.Latitude,
		Longitude: data.Longitude,
	}, nil
}

// DailyQuote fetches the quote of the day. Concurrent callers share one upstream
// request and the answer is reused until the calendar day changes.
func (p *Proxy) DailyQuote(ctx context.Context) (models.Quote, error) {
	day := p.Now().Format("2006-01-02")

	p.mu.Lock()
	if p.quote != nil && p.quoteDay == day {
		q := *p.quote
		p.mu.Unlock()
		return q, nil
	}
	p.mu.Unlock()

	// The fetch is shared by all waiting callers and outlives the first one's
	// cancellation; the client timeout still bounds it.
	v, err, _ := p.group.Do("quote:"+day, func() (interface{}, error) {
		q, err := p.fetchQuote(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.quote, p.quoteDay = &q, day
		p.mu.Unlock()
		return q, nil
	})
	if err != nil {
		return models.Quote{}, err
	}
	return v.(models.Quote), nil
}

func (p *Proxy) fetchQuote(ctx context.Context) (models.Quote, error) {
	var data struct {
		Content string `json:"content"`
		Note    string `json:"note"`
		Author  string `json:"author"`
		Picture string `json:"picture"`
	}
	if err := p.getJSON(ctx, config.QuoteAPIURL, &data); err != nil {
		return models.Quote{}, fmt.Errorf("daily quote: %w", err)
	}
	if data.Content == "" || data.Note == "" {
		return models.Quote{}, fmt.Errorf("daily quote: %w: missing content or note", ErrInvalidUpstream)
	}
	author := data.Author
	if author == "" {
		author = defaultQuoteAuthor
	}
	return models.Quote{
		Content:     data.Content,
		Translation: data.Note,
		Author:      author,
		Picture:     data.Picture,
	}, nil
}
