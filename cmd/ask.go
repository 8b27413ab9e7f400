package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"textbook-rag/internal/render"
)

var (
	askNResults int
	askFormat   string
)

var askCmd = &cobra.Command{
	Use:     "ask <subject> <grade> <question...>",
	Short:   "Answer one question from an indexed textbook",
	Example: `  textbook-rag ask математика 5 "Как сложить дроби?"`,
	Args:    cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		subject := args[0]
		grade, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("grade must be a number, got %q", args[1])
		}
		question := strings.Join(args[2:], " ")

		n := askNResults
		if n == 0 {
			n = cfg.RAG.NResults
		}

		r, index, err := newRAG(ctx)
		if err != nil {
			return err
		}
		defer index.Close()

		result, err := r.AnswerQuestion(ctx, question, subject, grade, n, verbose)
		if err != nil {
			return userError(err, subject, grade)
		}

		out, err := render.Render(askFormat, result)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

func init() {
	askCmd.Flags().IntVarP(&askNResults, "n-results", "n", 0, "Number of textbook fragments to retrieve (default from config)")
	askCmd.Flags().StringVar(&askFormat, "format", render.FormatText, "Output format: text, json or html")
	rootCmd.AddCommand(askCmd)
}
