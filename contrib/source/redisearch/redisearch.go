// Package redisearch adapts a RediSearch full-text index as a self-hosted
// internal document source.
package redisearch

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sweetpotato0/evoseek/source"
)

// Config holds the Redis connection and index settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	// Index is the FT index name holding the documents.
	Index string
	// Fields maps the document fields; defaults cover title/body/uri.
	TitleField   string
	SnippetField string
	URIField     string
}

// Adapter implements source.Adapter over an FT.SEARCH index.
type Adapter struct {
	config *Config
	client *redis.Client
}

// New builds the adapter. An empty address or index name leaves it
// unconfigured rather than failing construction.
func New(config *Config) *Adapter {
	if config == nil {
		config = &Config{}
	}
	if config.TitleField == "" {
		config.TitleField = "title"
	}
	if config.SnippetField == "" {
		config.SnippetField = "body"
	}
	if config.URIField == "" {
		config.URIField = "uri"
	}

	a := &Adapter{config: config}
	if config.Addr != "" && config.Index != "" {
		a.client = redis.NewClient(&redis.Options{
			Addr:     config.Addr,
			Password: config.Password,
			DB:       config.DB,
		})
	}
	return a
}

func (a *Adapter) Kind() source.Kind { return source.KindInternal }

func (a *Adapter) Configured() bool { return a.client != nil }

// Search runs FT.SEARCH with scores and maps each hit onto a source
// document.
func (a *Adapter) Search(ctx context.Context, query string, limit int) ([]source.Document, error) {
	if !a.Configured() {
		return nil, fmt.Errorf("redisearch: %w", source.ErrUnconfigured)
	}
	if limit <= 0 {
		limit = 5
	}

	res, err := a.client.FTSearchWithArgs(ctx, a.config.Index, query, &redis.FTSearchOptions{
		WithScores:  true,
		LimitOffset: 0,
		Limit:       limit,
		Return: []redis.FTSearchReturn{
			{FieldName: a.config.TitleField},
			{FieldName: a.config.SnippetField},
			{FieldName: a.config.URIField},
		},
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("redisearch: search %q: %w", a.config.Index, err)
	}

	docs := make([]source.Document, 0, len(res.Docs))
	for _, hit := range res.Docs {
		doc := source.Document{
			ID:      hit.ID,
			Kind:    source.KindInternal,
			Title:   hit.Fields[a.config.TitleField],
			Snippet: hit.Fields[a.config.SnippetField],
			URI:     hit.Fields[a.config.URIField],
		}
		if hit.Score != nil {
			doc.Score = *hit.Score
		}
		if doc.Snippet == "" {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Close releases the Redis client.
func (a *Adapter) Close() error {
	if a.client == nil {
		return nil
	}
	return a.client.Close()
}
