package utils

import (
	"context"
	"fmt"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"
)

// Embedder turns text into a vector; wired to the OpenAI embeddings call.
type Embedder func(ctx context.Context, text string) ([]float32, error)

// SemanticMemory mirrors remembered facts into a Pinecone index so recall
// can survive phrasing drift ("where does my sister live" vs the stored
// "my sister lives in Pune"). It implements store.SemanticIndex.
type SemanticMemory struct {
	idx    *pinecone.IndexConnection
	embed  Embedder
	logger *zap.Logger
}

// Score below which a nearest match is treated as unrelated.
const minRecallScore = 0.75

// NewSemanticMemory connects to the configured index. Returns nil without
// error when Pinecone is not configured; the fact store then runs
// exact-match only.
func NewSemanticMemory(ctx context.Context, apiKey, indexName string, embed Embedder) (*SemanticMemory, error) {
	if apiKey == "" || indexName == "" {
		return nil, nil
	}

	client, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("creating pinecone client: %w", err)
	}
	idx, err := client.DescribeIndex(ctx, indexName)
	if err != nil {
		return nil, fmt.Errorf("describing index %q: %w", indexName, err)
	}
	conn, err := client.Index(pinecone.NewIndexConnParams{Host: idx.Host, Namespace: "voiceast-facts"})
	if err != nil {
		return nil, fmt.Errorf("connecting to index host %v: %w", idx.Host, err)
	}

	return &SemanticMemory{idx: conn, embed: embed, logger: zap.L().Named("semantic-memory")}, nil
}

// Upsert stores one fact vector keyed by its normalized subject.
func (m *SemanticMemory) Upsert(ctx context.Context, subject, fact string) error {
	values, err := m.embed(ctx, fact)
	if err != nil {
		return fmt.Errorf("embedding fact: %w", err)
	}
	meta, err := structpb.NewStruct(map[string]interface{}{
		"subject": subject,
		"text":    fact,
	})
	if err != nil {
		return fmt.Errorf("building metadata: %w", err)
	}
	vectors := []*pinecone.Vector{{
		Id:       subject,
		Values:   values,
		Metadata: meta,
	}}
	if _, err := m.idx.UpsertVectors(ctx, vectors); err != nil {
		return fmt.Errorf("upserting fact vector: %w", err)
	}
	return nil
}

// Query returns the best-matching stored fact for a recall question, or
// false when nothing close enough exists.
func (m *SemanticMemory) Query(ctx context.Context, text string) (string, bool, error) {
	values, err := m.embed(ctx, text)
	if err != nil {
		return "", false, fmt.Errorf("embedding query: %w", err)
	}

	resp, err := m.idx.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          values,
		TopK:            1,
		IncludeMetadata: true,
	})
	if err != nil {
		return "", false, fmt.Errorf("querying fact index: %w", err)
	}

	for _, match := range resp.Matches {
		if match.Score < minRecallScore || match.Vector == nil || match.Vector.Metadata == nil {
			continue
		}
		if value, ok := match.Vector.Metadata.Fields["text"]; ok {
			if fact := value.GetStringValue(); fact != "" {
				return fact, true, nil
			}
		}
	}
	return "", false, nil
}
