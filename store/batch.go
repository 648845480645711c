package store

import (
	"context"
	"encoding/json"

	"github.com/jacentio/docfront/document"
	"github.com/jacentio/docfront/envelope"
	"github.com/jacentio/docfront/internal/batch"
)

func (s *Store) batchOptions() batch.Options {
	return batch.Options{
		MaxItems:    s.config.MaxBatchSize,
		Concurrency: s.config.BatchConcurrency,
		Logger:      s.logger,
	}
}

// CreateBatch creates every item concurrently. The result has one envelope per item in
// input order, or a single BadRequest envelope when the batch itself is rejected.
func (s *Store) CreateBatch(ctx context.Context, items []document.Input) []envelope.Envelope {
	return batch.Run(ctx, batch.Slice(items), s.Create, s.batchOptions())
}

// CreateBatchJSON creates each element of a JSON array. String elements are treated as
// raw JSON or XML text; any other element is taken as JSON text.
func (s *Store) CreateBatchJSON(ctx context.Context, raw []byte) []envelope.Envelope {
	src := batch.Map(batch.DecodeJSON[json.RawMessage](raw), rawInput)
	return batch.Run(ctx, src, s.Create, s.batchOptions())
}

// ReplaceBatch replaces every document at its own locator.
func (s *Store) ReplaceBatch(ctx context.Context, docs []document.Document) []envelope.Envelope {
	op := func(ctx context.Context, d document.Document) (envelope.Envelope, error) {
		return s.Replace(ctx, d, "")
	}
	return batch.Run(ctx, batch.Slice(docs), op, s.batchOptions())
}

// DeleteBatch deletes every id.
func (s *Store) DeleteBatch(ctx context.Context, ids []string) []envelope.Envelope {
	return batch.Run(ctx, batch.Slice(ids), s.Delete, s.batchOptions())
}

// DeleteBatchJSON deletes each id of a JSON array of strings.
func (s *Store) DeleteBatchJSON(ctx context.Context, raw []byte) []envelope.Envelope {
	return batch.Run(ctx, batch.DecodeJSON[string](raw), s.Delete, s.batchOptions())
}

func rawInput(m json.RawMessage) document.Input {
	var text string
	if err := json.Unmarshal(m, &text); err == nil {
		return document.Text(text)
	}
	return document.Text(m)
}
