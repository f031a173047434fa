// Package vertex adapts Vertex AI Search (Discovery Engine) as the
// internal document-index source.
package vertex

import (
	"context"
	"encoding/json"
	"fmt"

	discoveryengine "google.golang.org/api/discoveryengine/v1"
	"google.golang.org/api/option"

	"github.com/sweetpotato0/evoseek/source"
)

// Config identifies the search datastore.
type Config struct {
	ProjectID string
	Location  string // e.g. "global"
	DataStore string
	// CredentialsFile is optional; application default credentials are
	// used when empty.
	CredentialsFile string
}

// Adapter implements source.Adapter over a Discovery Engine datastore.
type Adapter struct {
	config  *Config
	service *discoveryengine.Service
}

// New builds the adapter. Missing project or datastore is not an error
// here: the adapter reports unconfigured and the coordinator decides
// whether that is fatal for the request.
func New(ctx context.Context, config *Config) (*Adapter, error) {
	if config == nil {
		config = &Config{}
	}
	if config.Location == "" {
		config.Location = "global"
	}
	a := &Adapter{config: config}
	if config.ProjectID == "" || config.DataStore == "" {
		return a, nil
	}

	var opts []option.ClientOption
	if config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.CredentialsFile))
	}
	svc, err := discoveryengine.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("vertex: create service: %w", err)
	}
	a.service = svc
	return a, nil
}

func (a *Adapter) Kind() source.Kind { return source.KindInternal }

func (a *Adapter) Configured() bool {
	return a.service != nil && a.config.ProjectID != "" && a.config.DataStore != ""
}

// Search queries the default serving config and maps each hit's derived
// struct data onto a source document.
func (a *Adapter) Search(ctx context.Context, query string, limit int) ([]source.Document, error) {
	if !a.Configured() {
		return nil, fmt.Errorf("vertex: %w", source.ErrUnconfigured)
	}
	if limit <= 0 {
		limit = 5
	}

	servingConfig := fmt.Sprintf(
		"projects/%s/locations/%s/collections/default_collection/dataStores/%s/servingConfigs/default_search",
		a.config.ProjectID, a.config.Location, a.config.DataStore)

	resp, err := a.service.Projects.Locations.Collections.DataStores.ServingConfigs.
		Search(servingConfig, &discoveryengine.GoogleCloudDiscoveryengineV1SearchRequest{
			Query:    query,
			PageSize: int64(limit),
		}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("vertex: search: %w", err)
	}

	docs := make([]source.Document, 0, len(resp.Results))
	for i, r := range resp.Results {
		if r.Document == nil {
			continue
		}
		doc := source.Document{
			ID:   r.Document.Id,
			Kind: source.KindInternal,
			// Result order is the ranking; scores are synthesized from it
			// since the API does not expose raw relevance.
			Score: 1.0 / float64(i+1),
		}
		fillFromDerivedData(&doc, r.Document.DerivedStructData)
		if doc.Snippet == "" {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// derivedData is the subset of the search hit's struct data we consume.
type derivedData struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippets []struct {
		Snippet string `json:"snippet"`
	} `json:"snippets"`
	ExtractiveAnswers []struct {
		Content string `json:"content"`
	} `json:"extractive_answers"`
}

func fillFromDerivedData(doc *source.Document, raw []byte) {
	if len(raw) == 0 {
		return
	}
	var d derivedData
	if err := json.Unmarshal(raw, &d); err != nil {
		return
	}
	doc.Title = d.Title
	doc.URI = d.Link
	for _, s := range d.Snippets {
		if s.Snippet != "" {
			doc.Snippet = s.Snippet
			return
		}
	}
	for _, e := range d.ExtractiveAnswers {
		if e.Content != "" {
			doc.Snippet = e.Content
			return
		}
	}
}
