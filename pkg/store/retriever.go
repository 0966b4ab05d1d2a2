package store

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/wayfind-ai/wayfind/pkg/ai"
	"github.com/wayfind-ai/wayfind/pkg/flow"
	"github.com/wayfind-ai/wayfind/pkg/loader"
	"github.com/wayfind-ai/wayfind/pkg/logger"
)

// DefaultRetrievalK is the number of passages fetched per query.
const DefaultRetrievalK = 4

// VectorRetrieverParams configures a VectorRetriever.
type VectorRetrieverParams struct {
	Store  PassageStore
	Client ai.ModelClient
	// K is the number of passages per retrieval. Defaults to
	// DefaultRetrievalK.
	K int
}

// VectorRetriever implements flow.Retriever on a PassageStore. It refuses
// to serve queries until the index has been built with Index or loaded
// with Load.
type VectorRetriever struct {
	store  PassageStore
	client ai.ModelClient
	k      int
	ready  atomic.Bool
}

// NewVectorRetriever builds a retriever over the given store.
func NewVectorRetriever(params VectorRetrieverParams) *VectorRetriever {
	k := params.K
	if k <= 0 {
		k = DefaultRetrievalK
	}
	return &VectorRetriever{
		store:  params.Store,
		client: params.Client,
		k:      k,
	}
}

// Index embeds and persists documents, marking the retriever ready.
func (r *VectorRetriever) Index(ctx context.Context, docs []loader.Document) error {
	if len(docs) == 0 {
		return fmt.Errorf("no documents to index")
	}

	inputs := make([][]byte, len(docs))
	passages := make([]Passage, len(docs))
	for i, doc := range docs {
		inputs[i] = []byte(doc.Content)
		passages[i] = Passage{ID: doc.ID, Source: doc.Source, Content: doc.Content}
	}

	embeddings, err := r.client.GenerateEmbeddings(ctx, inputs)
	if err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}
	if err := r.store.IndexPassages(ctx, passages, embeddings); err != nil {
		return err
	}

	logger.Info("[Store] Indexed documents", "count", len(docs))
	r.ready.Store(true)
	return nil
}

// Load marks the retriever ready if the store already holds an index.
func (r *VectorRetriever) Load(ctx context.Context) error {
	count, err := r.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to check index: %w", err)
	}
	if count == 0 {
		return ErrNotInitialized
	}
	logger.Info("[Store] Loaded index", "passages", count)
	r.ready.Store(true)
	return nil
}

// Ready reports whether the retriever will serve queries.
func (r *VectorRetriever) Ready() bool {
	return r.ready.Load()
}

// Retrieve implements flow.Retriever.
func (r *VectorRetriever) Retrieve(ctx context.Context, question string) ([]flow.Passage, error) {
	if !r.ready.Load() {
		return nil, ErrNotInitialized
	}

	embedding, err := r.client.GenerateEmbedding(ctx, []byte(question))
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	stored, err := r.store.Search(ctx, embedding, r.k)
	if err != nil {
		return nil, err
	}

	passages := make([]flow.Passage, len(stored))
	for i, p := range stored {
		passages[i] = flow.Passage{
			ID:      p.ID,
			Content: p.Content,
			Origin:  flow.OriginCorpus,
		}
	}
	return passages, nil
}
