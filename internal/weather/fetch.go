package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; Weathercast/1.0)"

// DefaultBaseURL is the NWS text product server.
const DefaultBaseURL = "https://forecast.weather.gov"

// Fetcher retrieves the two required sub-documents for a broadcast. Each
// call is independently failable.
type Fetcher interface {
	// FetchDiscussion retrieves the Area Forecast Discussion text.
	FetchDiscussion(ctx context.Context) (string, error)
	// FetchForecast retrieves the tabular digital forecast text.
	FetchForecast(ctx context.Context) (string, error)
}

// FetchError represents an error retrieving an upstream product.
type FetchError struct {
	Product string
	URL     string
	Message string
	Cause   error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s (%s): %s: %v", e.Product, e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s (%s): %s", e.Product, e.URL, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// NWSFetcher fetches text products from the NWS product server for one
// forecast office.
type NWSFetcher struct {
	baseURL string
	office  string
	client  *http.Client
}

// NewNWSFetcher creates a fetcher for the given forecast office code
// (e.g. "SEW" for Seattle). An empty baseURL uses the public server.
func NewNWSFetcher(baseURL, office string) *NWSFetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &NWSFetcher{
		baseURL: baseURL,
		office:  office,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
}

// FetchDiscussion retrieves the Area Forecast Discussion (AFD) product.
func (f *NWSFetcher) FetchDiscussion(ctx context.Context) (string, error) {
	return f.fetchProduct(ctx, "AFD")
}

// FetchForecast retrieves the Point Forecast Matrices (PFM) product, the
// tabular digital forecast for the office's zones.
func (f *NWSFetcher) FetchForecast(ctx context.Context) (string, error) {
	return f.fetchProduct(ctx, "PFM")
}

func (f *NWSFetcher) fetchProduct(ctx context.Context, product string) (string, error) {
	u := fmt.Sprintf("%s/product.php?site=%s&issuedby=%s&product=%s&format=txt&version=1",
		f.baseURL, f.office, url.QueryEscape(f.office), product)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", &FetchError{Product: product, URL: u, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{Product: product, URL: u, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &FetchError{Product: product, URL: u, Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &FetchError{Product: product, URL: u, Message: "failed to read response body", Cause: err}
	}

	text, err := extractProductText(string(body))
	if err != nil {
		return "", &FetchError{Product: product, URL: u, Message: "failed to extract product text", Cause: err}
	}
	if strings.TrimSpace(text) == "" {
		return "", &FetchError{Product: product, URL: u, Message: "empty product body"}
	}
	return text, nil
}

// extractProductText pulls the raw product out of the NWS product page. The
// page wraps the product in a <pre> block; a plain-text response is returned
// as-is.
func extractProductText(body string) (string, error) {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, "<") {
		return trimmed, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", err
	}

	pre := doc.Find("pre.glossaryProduct")
	if pre.Length() == 0 {
		pre = doc.Find("pre")
	}
	if pre.Length() == 0 {
		return "", fmt.Errorf("no <pre> product block in page")
	}
	return strings.TrimSpace(pre.First().Text()), nil
}
