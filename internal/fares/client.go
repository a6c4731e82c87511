package fares

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const httpTimeout = 10 * time.Second

const defaultBaseURL = "https://test.api.amadeus.com"

// tokenExpiryMargin is subtracted from the advertised token lifetime so a
// token is refreshed before Amadeus actually rejects it.
const tokenExpiryMargin = 30 * time.Second

// Client talks to the Amadeus self-service APIs: flight-offers search and
// airport/city reference-data lookups.
type Client struct {
	clientID     string
	clientSecret string
	baseURL      string
	client       *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient constructs a Client against the Amadeus test environment.
func NewClient(clientID, clientSecret string) *Client {
	return NewClientWithURL(defaultBaseURL, clientID, clientSecret)
}

// NewClientWithURL constructs a Client pointing at a custom base URL (for tests).
func NewClientWithURL(baseURL, clientID, clientSecret string) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      baseURL,
		client:       &http.Client{Timeout: httpTimeout},
	}
}

// Offer is a single priced flight offer.
type Offer struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

// Location is an airport or city record from the reference-data API,
// passed through to callers without interpretation.
type Location struct {
	Name     string `json:"name"`
	IataCode string `json:"iataCode"`
	SubType  string `json:"subType"`
	Address  struct {
		CityName    string `json:"cityName"`
		CountryName string `json:"countryName"`
	} `json:"address"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// refreshToken fetches a fresh OAuth2 client-credentials token.
func (c *Client) refreshToken(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/security/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("requesting token: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token request returned status %d: %s", resp.StatusCode, body)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return fmt.Errorf("decoding token response: %w", err)
	}

	c.mu.Lock()
	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenExpiryMargin)
	c.mu.Unlock()

	return nil
}

// token returns a valid access token, refreshing it when missing or stale.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	tok := c.accessToken
	stale := tok == "" || time.Now().After(c.tokenExpiry)
	c.mu.Unlock()

	if stale {
		if err := c.refreshToken(ctx); err != nil {
			return "", err
		}
		c.mu.Lock()
		tok = c.accessToken
		c.mu.Unlock()
	}

	return tok, nil
}

// doGet performs an authenticated GET against path and decodes the JSON
// response into dst.
func (c *Client) doGet(ctx context.Context, path string, dst any) error {
	tok, err := c.token(ctx)
	if err != nil {
		return fmt.Errorf("authenticating: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned status %d: %s", path, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", path, err)
	}

	return nil
}

type offersResponse struct {
	Data []struct {
		Price struct {
			GrandTotal string `json:"grandTotal"`
			Currency   string `json:"currency"`
		} `json:"price"`
	} `json:"data"`
}

// SearchOffers queries the flight-offers API for one-way fares on the given
// date. date must be in YYYY-MM-DD form.
func (c *Client) SearchOffers(ctx context.Context, origin, destination, date string, adults, limit int) ([]Offer, error) {
	path := fmt.Sprintf(
		"/v2/shopping/flight-offers?originLocationCode=%s&destinationLocationCode=%s&departureDate=%s&adults=%d&max=%d",
		url.QueryEscape(origin), url.QueryEscape(destination), url.QueryEscape(date), adults, limit,
	)

	var raw offersResponse
	if err := c.doGet(ctx, path, &raw); err != nil {
		return nil, fmt.Errorf("offer search %s-%s: %w", origin, destination, err)
	}

	offers := make([]Offer, 0, len(raw.Data))
	for _, d := range raw.Data {
		price, err := strconv.ParseFloat(d.Price.GrandTotal, 64)
		if err != nil {
			continue
		}
		offers = append(offers, Offer{Price: price, Currency: d.Price.Currency})
	}

	return offers, nil
}

type locationsResponse struct {
	Data []Location `json:"data"`
}

// SearchLocations queries the reference-data locations API for airports and
// cities matching keyword. subTypes is a comma-separated list, e.g.
// "AIRPORT,CITY".
func (c *Client) SearchLocations(ctx context.Context, keyword, subTypes string, limit int) ([]Location, error) {
	path := fmt.Sprintf(
		"/v1/reference-data/locations?subType=%s&keyword=%s&page%%5Blimit%%5D=%d",
		url.QueryEscape(subTypes), url.QueryEscape(keyword), limit,
	)

	var raw locationsResponse
	if err := c.doGet(ctx, path, &raw); err != nil {
		return nil, fmt.Errorf("location search for %q: %w", keyword, err)
	}

	return raw.Data, nil
}
