// Package david is a client for the DAVID functional-enrichment web service,
// the enrichment collaborator of the pipeline. The call sequence mirrors the
// service's session protocol: authenticate, register gene lists, select
// annotation categories, then request the chart report.
package david

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// DefaultBaseURL is the DAVID web service endpoint.
const DefaultBaseURL = "https://davidbioinformatics.nih.gov/webservice"

// Gene-ontology FAT categories, one per functional class.
const (
	CategoryBP = "GOTERM_BP_FAT"
	CategoryCC = "GOTERM_CC_FAT"
	CategoryMF = "GOTERM_MF_FAT"
)

// GOCategories is the default category selection, comma-joined for the
// setCategories call.
var GOCategories = []string{CategoryBP, CategoryCC, CategoryMF}

// List registration types.
const (
	ListTypeTarget     = 0
	ListTypeBackground = 1
)

// Client is the enrichment-service surface the pipeline depends on.
type Client interface {
	Authenticate(ctx context.Context, email string) error
	// AddList registers a gene list and returns the mapped fraction in
	// percent; a zero return for the target list means nothing mapped.
	AddList(ctx context.Context, ids []string, idType, name string, listType int) (float64, error)
	SetCategories(ctx context.Context, categories []string) error
	ChartReport(ctx context.Context, threshold float64, minCount int) ([]Record, error)
}

// HTTPClient talks to the DAVID web service over HTTP.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// New creates a DAVID client. An empty baseURL selects the public endpoint.
func New(baseURL string) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 2 * time.Minute},
	}
}

func (c *HTTPClient) Authenticate(ctx context.Context, email string) error {
	body, err := c.call(ctx, "authenticate", url.Values{"email": {email}})
	if err != nil {
		return err
	}
	if !strings.EqualFold(strings.TrimSpace(body), "true") {
		return eris.Errorf("david: authentication rejected for %s", email)
	}
	return nil
}

func (c *HTTPClient) AddList(ctx context.Context, ids []string, idType, name string, listType int) (float64, error) {
	form := url.Values{
		"inputIds": {strings.Join(ids, ",")},
		"idType":   {idType},
		"listName": {name},
		"listType": {strconv.Itoa(listType)},
	}
	body, err := c.call(ctx, "addList", form)
	if err != nil {
		return 0, err
	}
	mapped, err := strconv.ParseFloat(strings.TrimSpace(body), 64)
	if err != nil {
		return 0, eris.Wrapf(err, "david: unexpected addList response %q", strings.TrimSpace(body))
	}
	return mapped, nil
}

func (c *HTTPClient) SetCategories(ctx context.Context, categories []string) error {
	_, err := c.call(ctx, "setCategories", url.Values{"categories": {strings.Join(categories, ",")}})
	return err
}

func (c *HTTPClient) ChartReport(ctx context.Context, threshold float64, minCount int) ([]Record, error) {
	form := url.Values{
		"thd": {strconv.FormatFloat(threshold, 'g', -1, 64)},
		"ct":  {strconv.Itoa(minCount)},
	}
	body, err := c.call(ctx, "chartReport", form)
	if err != nil {
		return nil, err
	}
	return ParseChartReport(body)
}

func (c *HTTPClient) call(ctx context.Context, method string, form url.Values) (string, error) {
	endpoint := c.baseURL + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", eris.Wrapf(err, "david: build %s request", method)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrapf(err, "david: %s request failed", method)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrapf(err, "david: read %s response", method)
	}
	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("david: %s: HTTP %d: %s", method, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return string(raw), nil
}
