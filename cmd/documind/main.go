package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pritom169/documind-ai/internal/bootstrap"
	"github.com/pritom169/documind-ai/internal/config"
	"github.com/pritom169/documind-ai/pkg/agent"
	"github.com/pritom169/documind-ai/pkg/chunker"
	"github.com/pritom169/documind-ai/pkg/ingest"
	"github.com/pritom169/documind-ai/pkg/llm"
)

var (
	flagCollection string
	flagMode       string
	flagUser       string
	flagDocumentID string
	flagChunkSize  int
	flagOverlap    int
	flagStrategy   string
)

func main() {
	root := &cobra.Command{
		Use:   "documind",
		Short: "Query and manage a private document corpus",
	}

	askCmd := &cobra.Command{
		Use:   "ask [query]",
		Short: "Answer a query in one blocking call",
		Args:  cobra.ExactArgs(1),
		RunE:  runAsk,
	}
	askCmd.Flags().StringVar(&flagCollection, "collection", "", "collection to retrieve from (empty: no retrieval)")
	askCmd.Flags().StringVar(&flagMode, "mode", "qa", "generation mode: qa|research|summarise|analyse")
	askCmd.Flags().StringVar(&flagUser, "user", "", "user reference for tracing")

	streamCmd := &cobra.Command{
		Use:   "stream [query]",
		Short: "Answer a query, printing tokens as they arrive",
		Args:  cobra.ExactArgs(1),
		RunE:  runStream,
	}
	streamCmd.Flags().StringVar(&flagCollection, "collection", "", "collection to retrieve from (empty: no retrieval)")
	streamCmd.Flags().StringVar(&flagMode, "mode", "qa", "generation mode: qa|research|summarise|analyse")
	streamCmd.Flags().StringVar(&flagUser, "user", "", "user reference for tracing")

	ingestCmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Chunk, embed, and index a text file",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}
	ingestCmd.Flags().StringVar(&flagCollection, "collection", "", "target collection")
	ingestCmd.Flags().StringVar(&flagDocumentID, "document-id", "", "document identifier (default: file name)")
	ingestCmd.Flags().IntVar(&flagChunkSize, "chunk-size", 1000, "chunk size")
	ingestCmd.Flags().IntVar(&flagOverlap, "chunk-overlap", 200, "chunk overlap")
	ingestCmd.Flags().StringVar(&flagStrategy, "strategy", "recursive", "chunking strategy: recursive|markdown|token")
	_ = ingestCmd.MarkFlagRequired("collection")

	collectionCmd := &cobra.Command{
		Use:   "collection",
		Short: "Inspect and manage collections",
	}
	collectionCmd.AddCommand(
		&cobra.Command{
			Use:   "info [name]",
			Short: "Show a collection's vector and point counts",
			Args:  cobra.ExactArgs(1),
			RunE:  runCollectionInfo,
		},
		&cobra.Command{
			Use:   "delete [name]",
			Short: "Drop a collection",
			Args:  cobra.ExactArgs(1),
			RunE:  runCollectionDelete,
		},
		&cobra.Command{
			Use:   "delete-document [name] [document-id]",
			Short: "Remove one document's vectors from a collection",
			Args:  cobra.ExactArgs(2),
			RunE:  runDeleteDocument,
		},
	)

	root.AddCommand(askCmd, streamCmd, ingestCmd, collectionCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newContainer() (*bootstrap.Container, error) {
	return bootstrap.NewContainer(config.Load())
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runAsk(cmd *cobra.Command, args []string) error {
	app, err := newContainer()
	if err != nil {
		return err
	}
	defer app.Logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	result, err := app.Executor.RunBlocking(ctx, agent.Request{
		Query:        args[0],
		History:      []llm.Message{},
		CollectionID: flagCollection,
		Mode:         agent.Mode(flagMode),
		UserID:       flagUser,
	})
	if err != nil {
		return err
	}

	fmt.Println(result.Answer)
	if len(result.Sources) > 0 {
		fmt.Println("\nSources:")
		for i, source := range result.Sources {
			fmt.Printf("  [%d] doc=%s chunk=%d score=%.3f\n", i+1, source.DocumentID, source.ChunkIndex, source.Score)
		}
	}
	fmt.Printf("\nmodel: %s\n", result.Model)
	return nil
}

func runStream(cmd *cobra.Command, args []string) error {
	app, err := newContainer()
	if err != nil {
		return err
	}
	defer app.Logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	events, err := app.Executor.RunStreaming(ctx, agent.Request{
		Query:        args[0],
		History:      []llm.Message{},
		CollectionID: flagCollection,
		Mode:         agent.Mode(flagMode),
		UserID:       flagUser,
	})
	if err != nil {
		return err
	}

	for event := range events {
		switch event.Type {
		case agent.EventSources:
			fmt.Printf("[%d sources retrieved]\n", len(event.Sources))
		case agent.EventToken:
			fmt.Print(event.Content)
		case agent.EventMetadata:
			fmt.Printf("\n\nmodel: %s\n", event.Model)
		case agent.EventError:
			return event.Err
		}
	}
	return nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	app, err := newContainer()
	if err != nil {
		return err
	}
	defer app.Logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	text, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	documentID := flagDocumentID
	if documentID == "" {
		documentID = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	}

	result, err := app.Ingest.IngestDocument(ctx, flagCollection, documentID, string(text),
		map[string]interface{}{"file_name": filepath.Base(args[0])},
		ingest.Options{
			ChunkSize:    flagChunkSize,
			ChunkOverlap: flagOverlap,
			Strategy:     chunker.Strategy(flagStrategy),
		},
	)
	if err != nil {
		return err
	}

	fmt.Printf("indexed %d chunks from %s into %s\n", result.ChunkCount, args[0], flagCollection)
	return nil
}

func runCollectionInfo(cmd *cobra.Command, args []string) error {
	app, err := newContainer()
	if err != nil {
		return err
	}
	defer app.Logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	info, err := app.Ingest.CollectionStats(ctx, args[0])
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runCollectionDelete(cmd *cobra.Command, args []string) error {
	app, err := newContainer()
	if err != nil {
		return err
	}
	defer app.Logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	if err := app.Qdrant.DeleteCollection(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted collection %s\n", args[0])
	return nil
}

func runDeleteDocument(cmd *cobra.Command, args []string) error {
	app, err := newContainer()
	if err != nil {
		return err
	}
	defer app.Logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	if err := app.Ingest.DeleteDocument(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("deleted document %s from %s\n", args[1], args[0])
	return nil
}
