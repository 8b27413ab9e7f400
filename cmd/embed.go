package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"textbook-rag/internal/embedding"
	"textbook-rag/internal/indexer"
)

var embedCmd = &cobra.Command{
	Use:   "embed [chunk files...]",
	Short: "Embed chunk collections and load them into the vector index",
	Long:  "Embeds the given chunk files, or every *_chunks.json in the structured data directory when none are given.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		embedder, err := embedding.NewEmbedder(&cfg.Embedding)
		if err != nil {
			return err
		}
		index, err := openIndex(ctx, embedder)
		if err != nil {
			return err
		}
		defer index.Close()

		ix := indexer.NewIndexer(index, embedder, cfg)
		var collections []string
		if len(args) > 0 {
			collections, err = ix.IndexFiles(ctx, args)
		} else {
			collections, err = ix.IndexAll(ctx, cfg.StructuredDir())
		}
		if err != nil {
			return err
		}

		if err := saveSnapshot(index, collections); err != nil {
			return err
		}
		for _, c := range collections {
			n, err := index.Count(ctx, c)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d documents\n", c, n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(embedCmd)
}
