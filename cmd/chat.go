package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"textbook-rag/internal/tui"
)

var (
	chatSubject string
	chatGrade   int
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// the terminal belongs to the TUI, logs go to a file
		logPath := filepath.Join(cfg.Data.Dir, "chat.log")
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening chat log: %w", err)
		}
		defer logFile.Close()
		setupLogger(logFile)

		r, index, err := newRAG(ctx)
		if err != nil {
			return err
		}
		defer index.Close()

		model := tui.New(ctx, r, cfg.RAG.NResults, chatSubject, chatGrade)
		if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
			return fmt.Errorf("chat session: %w", err)
		}
		fmt.Println("Goodbye!")
		return nil
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatSubject, "subject", "", "Subject, skips the subject prompt")
	chatCmd.Flags().IntVar(&chatGrade, "grade", 0, "Grade, skips the grade prompt when a subject is given")
	rootCmd.AddCommand(chatCmd)
}
