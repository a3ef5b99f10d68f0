// Package biomart is a client for the BioMart martservice endpoint, the
// annotation-database collaborator of the pipeline. Queries are posted as XML
// and results come back as TSV.
package biomart

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// DefaultBaseURL is the Ensembl martservice endpoint.
const DefaultBaseURL = "https://www.ensembl.org/biomart/martservice"

// Client is the annotation-database surface the pipeline depends on.
type Client interface {
	// Query requests the given attributes for genes matching filter=values
	// and returns one TSV row per (gene, attribute tuple).
	Query(ctx context.Context, filter string, values, attributes []string) ([][]string, error)
}

// HTTPClient talks to a BioMart martservice over HTTP.
type HTTPClient struct {
	baseURL string
	mart    string
	dataset string
	http    *http.Client
}

// New creates a martservice client for a mart and dataset. An empty baseURL
// selects the Ensembl endpoint.
func New(baseURL, mart, dataset string) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPClient{
		baseURL: baseURL,
		mart:    mart,
		dataset: dataset,
		// Mart exports over large filter lists are slow; callers wanting a
		// tighter bound use the request context.
		http: &http.Client{Timeout: 5 * time.Minute},
	}
}

// martQuery is the XML query document posted to the martservice.
type martQuery struct {
	XMLName              xml.Name    `xml:"Query"`
	VirtualSchema        string      `xml:"virtualSchemaName,attr"`
	Formatter            string      `xml:"formatter,attr"`
	Header               int         `xml:"header,attr"`
	UniqueRows           int         `xml:"uniqueRows,attr"`
	DatasetConfigVersion string      `xml:"datasetConfigVersion,attr"`
	Dataset              martDataset `xml:"Dataset"`
}

type martDataset struct {
	Name       string          `xml:"name,attr"`
	Interface  string          `xml:"interface,attr"`
	Filters    []martFilter    `xml:"Filter"`
	Attributes []martAttribute `xml:"Attribute"`
}

type martFilter struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type martAttribute struct {
	Name string `xml:"name,attr"`
}

func (c *HTTPClient) Query(ctx context.Context, filter string, values, attributes []string) ([][]string, error) {
	q := martQuery{
		VirtualSchema:        "default",
		Formatter:            "TSV",
		UniqueRows:           1,
		DatasetConfigVersion: "0.6",
		Dataset: martDataset{
			Name:       c.dataset,
			Interface:  "default",
			Attributes: make([]martAttribute, 0, len(attributes)),
		},
	}
	if len(values) > 0 {
		q.Dataset.Filters = []martFilter{{Name: filter, Value: strings.Join(values, ",")}}
	}
	for _, a := range attributes {
		q.Dataset.Attributes = append(q.Dataset.Attributes, martAttribute{Name: a})
	}

	doc, err := xml.Marshal(q)
	if err != nil {
		return nil, eris.Wrap(err, "biomart: marshal query")
	}
	payload := xml.Header + "<!DOCTYPE Query>" + string(doc)

	body, err := c.post(ctx, url.Values{"query": {payload}})
	if err != nil {
		return nil, err
	}

	return parseTSV(body)
}

// post sends a form-encoded request and returns the response body.
func (c *HTTPClient) post(ctx context.Context, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", eris.Wrap(err, "biomart: build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "biomart: request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "biomart: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("biomart: HTTP %d: %s", resp.StatusCode, truncate(string(raw)))
	}

	body := string(raw)
	// The martservice reports query problems in a 200 body.
	if strings.Contains(body, "Query ERROR") || strings.HasPrefix(body, "Problem retrieving") {
		return "", eris.Errorf("biomart: %s", truncate(body))
	}

	return body, nil
}

// parseTSV splits a TSV response body into rows of cells.
func parseTSV(body string) ([][]string, error) {
	var rows [][]string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		rows = append(rows, strings.Split(line, "\t"))
	}
	return rows, nil
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
