package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wayfind-ai/wayfind/internal/config"
	"github.com/wayfind-ai/wayfind/internal/util"
	"github.com/wayfind-ai/wayfind/pkg/ai"
	"github.com/wayfind-ai/wayfind/pkg/leaselock"
	"github.com/wayfind-ai/wayfind/pkg/loader"
	"github.com/wayfind-ai/wayfind/pkg/loader/csv"
	ioloader "github.com/wayfind-ai/wayfind/pkg/loader/io"
	s3loader "github.com/wayfind-ai/wayfind/pkg/loader/s3"
	"github.com/wayfind-ai/wayfind/pkg/loader/web"
	"github.com/wayfind-ai/wayfind/pkg/logger"
	"github.com/wayfind-ai/wayfind/pkg/store"
	storepgx "github.com/wayfind-ai/wayfind/pkg/store/pgx"
)

// indexBuildLockKey serializes index writes across worker replicas.
const indexBuildLockKey = "index_build"

// IngestSourceMsg identifies one corpus input inside an ingest job.
type IngestSourceMsg struct {
	ID   string `json:"id"`
	Path string `json:"path"`
	// Type is one of "text", "csv", "web", "s3", or "sample".
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// QueueIngestMsg is the payload of an ingest job.
type QueueIngestMsg struct {
	JobID   string            `json:"job_id"`
	Sources []IngestSourceMsg `json:"sources"`
	// Replace clears the index before ingesting.
	Replace bool `json:"replace,omitempty"`
}

// QueueDeleteMsg is the payload of a source deletion job.
type QueueDeleteMsg struct {
	JobID  string `json:"job_id"`
	Source string `json:"source"`
}

// ProcessIngestMessage loads, splits, embeds, and indexes the sources of
// one ingest job. The index write runs under the build lease so concurrent
// jobs on other replicas queue up instead of interleaving.
func ProcessIngestMessage(
	ctx context.Context,
	cfg *config.Config,
	s3Client *awss3.Client,
	aiClient ai.ModelClient,
	conn *pgxpool.Pool,
	msg string,
) error {
	data := new(QueueIngestMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return fmt.Errorf("failed to decode ingest message: %w", err)
	}
	if len(data.Sources) == 0 {
		logger.Warn("[Queue] Ingest job without sources", "job_id", data.JobID)
		return nil
	}

	start := time.Now()
	logger.Info("[Queue] Ingest started", "job_id", data.JobID, "sources", len(data.Sources))

	splitter, err := loader.NewTokenSplitter(loader.TokenSplitterParams{
		ChunkTokens:  cfg.ChunkTokens,
		ChunkOverlap: cfg.ChunkOverlap,
	})
	if err != nil {
		return err
	}

	files, err := buildSourceFiles(s3Client, data.Sources)
	if err != nil {
		return err
	}

	var docs []loader.Document
	for _, file := range files {
		text, err := file.Loader.GetFileText(ctx, file)
		if err != nil {
			return fmt.Errorf("failed to load source %s: %w", file.ID, err)
		}
		chunks := splitter.SplitDocument(file, string(text))
		logger.Debug("[Queue] Split source", "source", file.ID, "chunks", len(chunks))
		docs = append(docs, chunks...)
	}
	if len(docs) == 0 {
		return fmt.Errorf("ingest job %s produced no documents", data.JobID)
	}

	locks := leaselock.New(conn)
	err = locks.WithLease(ctx, indexBuildLockKey, leaselock.Options{Wait: true}, func(ctx context.Context) error {
		passageStore := storepgx.NewPassageDBStore(conn)
		if data.Replace {
			if err := passageStore.Clear(ctx); err != nil {
				return err
			}
		}
		retriever := store.NewVectorRetriever(store.VectorRetrieverParams{
			Store:  passageStore,
			Client: aiClient,
			K:      cfg.RetrievalK,
		})
		return retriever.Index(ctx, docs)
	})
	if err != nil {
		return err
	}

	logger.Info("[Queue] Ingest completed",
		"job_id", data.JobID,
		"documents", len(docs),
		"duration_sec", time.Since(start).Seconds(),
	)
	return nil
}

// ProcessDeleteMessage removes all passages of one source.
func ProcessDeleteMessage(ctx context.Context, conn *pgxpool.Pool, msg string) error {
	data := new(QueueDeleteMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return fmt.Errorf("failed to decode delete message: %w", err)
	}
	if data.Source == "" {
		return fmt.Errorf("delete job %s has no source", data.JobID)
	}

	locks := leaselock.New(conn)
	return locks.WithLease(ctx, indexBuildLockKey, leaselock.Options{Wait: true}, func(ctx context.Context) error {
		passageStore := storepgx.NewPassageDBStore(conn)
		removed, err := passageStore.DeleteSource(ctx, data.Source)
		if err != nil {
			return err
		}
		logger.Info("[Queue] Deleted source", "job_id", data.JobID, "source", data.Source, "passages", removed)
		return nil
	})
}

func buildSourceFiles(
	s3Client *awss3.Client,
	sources []IngestSourceMsg,
) ([]loader.SourceFile, error) {
	fsLoader := ioloader.NewIOFileLoader()
	webLoader := web.NewWebFileLoader()

	files := make([]loader.SourceFile, 0, len(sources))
	for _, src := range sources {
		id := src.ID
		if id == "" {
			id = util.NewID()
		}
		params := loader.NewSourceFileParams{ID: id, Path: src.Path}

		var file loader.SourceFile
		switch src.Type {
		case "text":
			params.Loader = fsLoader
			file = loader.NewTextFile(params)
		case "csv":
			params.Loader = csv.NewCSVFileLoader(fsLoader)
			file = loader.NewCSVFile(params)
		case "web":
			params.Loader = webLoader
			file = loader.NewWebFile(params)
		case "sample":
			path := filepath.Join(os.TempDir(), "wayfind_sample_corpus.csv")
			if err := loader.WriteSampleCorpus(path); err != nil {
				return nil, err
			}
			params.Path = path
			params.Loader = csv.NewCSVFileLoader(fsLoader)
			file = loader.NewCSVFile(params)
		case "s3":
			if s3Client == nil {
				return nil, fmt.Errorf("source %s requires s3 but no client is configured", id)
			}
			bucket := util.GetEnvString("AWS_BUCKET", "wayfind")
			params.Loader = s3loader.NewS3FileLoaderWithClient(bucket, s3Client)
			file = loader.NewTextFile(params)
		default:
			return nil, fmt.Errorf("source %s has unknown type %q", id, src.Type)
		}
		file.Description = src.Description
		files = append(files, file)
	}
	return files, nil
}
