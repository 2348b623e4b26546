package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/notas/internal/extract"
	"github.com/jackzampolin/notas/internal/filestate"
	"github.com/jackzampolin/notas/internal/output"
)

// extractResult shows what a run would do with a recognized text.
type extractResult struct {
	Source  string          `json:"source" yaml:"source"`
	Fields  extract.Fields  `json:"fields" yaml:"fields"`
	State   filestate.State `json:"state" yaml:"state"`
	Target  string          `json:"target" yaml:"target"`
	Message string          `json:"message,omitempty" yaml:"message,omitempty"`
}

var extractCmd = &cobra.Command{
	Use:   "extract <file.txt|->",
	Short: "Extract invoice fields from recognized text",
	Long: `Run the field extractor on OCR text and show the resulting name.

Useful for checking why a document was quarantined: copy the data:"..."
text from falhas.log into a file (or pipe it on stdin with "-").

Examples:
  notas extract pagina.txt
  pbpaste | notas extract -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readText(cmd, args[0])
		if err != nil {
			return err
		}

		prefix := filestate.DefaultFailedPrefix
		if mgr, err := loadConfig(); err == nil {
			prefix = mgr.Get().FailedPrefix
		}

		source := args[0]
		name := filepath.Base(source)
		if source == "-" {
			name = "stdin"
		}

		fields := extract.Extract(text)
		t := filestate.New(prefix).Decide(filestate.Outcome{
			File:   name,
			Text:   text,
			Fields: fields,
		})

		return output.Print(extractResult{
			Source:  source,
			Fields:  fields,
			State:   t.State,
			Target:  t.Target,
			Message: t.Message,
		})
	},
}

func readText(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}
	return string(data), nil
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
