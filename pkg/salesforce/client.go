// Package salesforce reads customer and shell Account records from the
// Salesforce REST API.
package salesforce

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the Salesforce API operations used for matching.
type Client interface {
	Query(ctx context.Context, soql string, out any) error
	DescribeSObject(ctx context.Context, name string) (*SObjectDescription, error)
}

// SObjectField describes a single field on a Salesforce SObject.
type SObjectField struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// SObjectDescription holds metadata about a Salesforce SObject.
type SObjectDescription struct {
	Name   string         `json:"name"`
	Label  string         `json:"label"`
	Fields []SObjectField `json:"fields"`
}

// HasField reports whether the SObject declares a field named name.
func (d *SObjectDescription) HasField(name string) bool {
	for _, f := range d.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// ClientOption configures the Salesforce client.
type ClientOption func(*sfClient)

// WithRateLimit caps API calls per second. The burst is the integer part of rps.
func WithRateLimit(rps float64) ClientOption {
	return func(c *sfClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// sfClient wraps go-salesforce. The library takes no context, so ctx only
// bounds the rate limiter wait.
type sfClient struct {
	sf      *salesforce.Salesforce
	limiter *rate.Limiter
}

// NewClient wraps an initialized go-salesforce instance.
func NewClient(sf *salesforce.Salesforce, opts ...ClientOption) Client {
	c := &sfClient{sf: sf}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *sfClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return ctx.Err()
	}
	return c.limiter.Wait(ctx)
}

func (c *sfClient) Query(ctx context.Context, soql string, out any) error {
	if err := c.wait(ctx); err != nil {
		return eris.Wrap(err, "sf: rate limit")
	}
	if err := c.sf.Query(soql, out); err != nil {
		return eris.Wrap(err, "sf: query")
	}
	return nil
}

func (c *sfClient) DescribeSObject(ctx context.Context, name string) (*SObjectDescription, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "sf: rate limit")
	}
	resp, err := c.sf.DoRequest("GET", "/sobjects/"+name+"/describe", nil)
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sf: describe %s", name))
	}
	defer resp.Body.Close() //nolint:errcheck

	var desc SObjectDescription
	if err := json.NewDecoder(resp.Body).Decode(&desc); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sf: decode describe %s", name))
	}
	return &desc, nil
}
