package biomart

import (
	"context"
	"encoding/xml"
	"net/url"

	"github.com/rotisserie/eris"
)

// Mart is one entry of the martservice registry.
type Mart struct {
	Name        string `xml:"name,attr"`
	DisplayName string `xml:"displayName,attr"`
	Database    string `xml:"database,attr"`
}

type martRegistry struct {
	XMLName xml.Name `xml:"MartRegistry"`
	Marts   []Mart   `xml:"MartURLLocation"`
}

// ListMarts returns the marts the service knows about.
func (c *HTTPClient) ListMarts(ctx context.Context) ([]Mart, error) {
	body, err := c.post(ctx, url.Values{"type": {"registry"}})
	if err != nil {
		return nil, err
	}

	var reg martRegistry
	if err := xml.Unmarshal([]byte(body), &reg); err != nil {
		return nil, eris.Wrap(err, "biomart: parse registry")
	}
	return reg.Marts, nil
}

// ListDatasets returns the TSV dataset listing for the client's mart.
func (c *HTTPClient) ListDatasets(ctx context.Context) ([][]string, error) {
	body, err := c.post(ctx, url.Values{"type": {"datasets"}, "mart": {c.mart}})
	if err != nil {
		return nil, err
	}
	return parseTSV(body)
}

// ListFilters returns the TSV filter listing for the client's dataset.
func (c *HTTPClient) ListFilters(ctx context.Context) ([][]string, error) {
	body, err := c.post(ctx, url.Values{"type": {"filters"}, "dataset": {c.dataset}})
	if err != nil {
		return nil, err
	}
	return parseTSV(body)
}

// ListAttributes returns the TSV attribute listing for the client's dataset.
func (c *HTTPClient) ListAttributes(ctx context.Context) ([][]string, error) {
	body, err := c.post(ctx, url.Values{"type": {"attributes"}, "dataset": {c.dataset}})
	if err != nil {
		return nil, err
	}
	return parseTSV(body)
}
