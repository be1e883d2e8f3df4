package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bull/docqa/internal/answer"
	"github.com/bull/docqa/internal/chunker"
	"github.com/bull/docqa/internal/registry"
	"github.com/bull/docqa/internal/store"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <user> <file>",
	Short: "Index a document file for a user",
	Args:  cobra.ExactArgs(2),
	RunE:  runIngest,
}

var searchCmd = &cobra.Command{
	Use:   "search <user> <query>",
	Short: "Retrieve the most similar chunks for a query",
	Args:  cobra.ExactArgs(2),
	RunE:  runSearch,
}

var askCmd = &cobra.Command{
	Use:   "ask <user> <question>",
	Short: "Answer a question from a user's documents",
	Args:  cobra.ExactArgs(2),
	RunE:  runAsk,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <user> <doc-id>",
	Short: "Remove a document and rebuild the user's index",
	Args:  cobra.ExactArgs(2),
	RunE:  runDelete,
}

var listCmd = &cobra.Command{
	Use:   "list <user>",
	Short: "List a user's documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

var topK int

func init() {
	searchCmd.Flags().IntVar(&topK, "top-k", 0, "number of chunks to retrieve (default from config)")
	askCmd.Flags().IntVar(&topK, "top-k", 0, "number of chunks to retrieve (default from config)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	user, path := args[0], args[1]
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.close()

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	name := filepath.Base(path)
	text := string(content)
	if strings.HasSuffix(strings.ToLower(name), ".md") {
		text = chunker.PlainText(content)
	}

	doc := registry.Document{
		ID:             uuid.New().String(),
		User:           user,
		Name:           name,
		SizeKB:         len(content) / 1024,
		TotalWords:     len(strings.Fields(text)),
		TotalSentences: strings.Count(text, "."),
		UploadedAt:     time.Now(),
	}
	if err := app.registry.Add(cmd.Context(), doc); err != nil {
		return err
	}
	if err := app.manager.Ingest(cmd.Context(), user, doc.ID, text); err != nil {
		if rerr := app.registry.Remove(cmd.Context(), doc.ID); rerr != nil {
			app.logger.Error("rollback registry entry", "doc", doc.ID, "error", rerr)
		}
		return err
	}

	fmt.Printf("Ingested %s as %s (%d words)\n", name, doc.ID, doc.TotalWords)
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	user, query := args[0], args[1]
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.close()

	results, err := app.manager.Query(cmd.Context(), user, query, searchTopK(app))
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for i, res := range results {
		fmt.Printf("%d. [%s] distance=%.4f\n   %s\n", i+1, res.DocID, res.Distance, res.Chunk)
	}
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	user, question := args[0], args[1]
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.close()

	results, err := app.manager.Query(cmd.Context(), user, question, searchTopK(app))
	if err != nil {
		return err
	}

	generator, err := answer.New(app.cfg.Answer)
	if err != nil {
		return fmt.Errorf("create answer generator: %w", err)
	}
	text, err := generator.Generate(cmd.Context(), results, question)
	if err != nil {
		return fmt.Errorf("generate answer: %w", err)
	}

	fmt.Println(text)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	user, docID := args[0], args[1]
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.close()

	if err := app.deleteDocument(cmd.Context(), user, docID); err != nil {
		return err
	}

	fmt.Printf("Deleted %s\n", docID)
	return nil
}

// deleteDocument removes a user's document from the retrieval store and the
// registry. Another user's document is reported as not found. A document
// whose text produced no chunks has a registry entry but no store entry;
// tolerate a store-level not-found as long as the registry knows the document.
func (a *app) deleteDocument(ctx context.Context, user, docID string) error {
	doc, err := a.registry.Get(ctx, docID)
	if err != nil {
		return err
	}
	if doc.User != user {
		return fmt.Errorf("document %q: %w", docID, registry.ErrNotFound)
	}
	if err := a.manager.Delete(ctx, user, docID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return a.registry.Remove(ctx, docID)
}

func runList(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.close()

	docs, err := app.registry.List(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No documents.")
		return nil
	}
	for _, doc := range docs {
		fmt.Printf("%s  %s  %d words  %s\n",
			doc.ID, doc.Name, doc.TotalWords, doc.UploadedAt.Format(time.RFC3339))
	}
	return nil
}

func searchTopK(a *app) int {
	if topK > 0 {
		return topK
	}
	return a.cfg.Search.TopK
}
