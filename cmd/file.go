package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"papertag/internal/app"
	"papertag/internal/extractor"
	"papertag/internal/resolver"
	"papertag/internal/store"
	"papertag/pkg/classifier"
)

var (
	fileItemKey  string
	fileTitle    string
	fileAbstract string
	filePreview  bool
)

// fileCmd tags a single PDF, resolving its library item interactively
// when no key is given.
var fileCmd = &cobra.Command{
	Use:   "file <pdf-path>",
	Short: "Classify one PDF and tag its library item",
	Long: `Extracts text from the given PDF, suggests vocabulary tags for it, and
applies them to the matching library item. Without --item-key the item is
located by attachment filename, falling back to a ranked fuzzy title match
with a numbered selection prompt. With --preview nothing is written.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pdfPath := args[0]
		if _, err := os.Stat(pdfPath); err != nil {
			return fmt.Errorf("file not found: %s", pdfPath)
		}

		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		itemKey, title, abstract := fileItemKey, fileTitle, fileAbstract
		if itemKey == "" {
			itemKey, title, abstract = locateItem(cmd, appInstance, pdfPath, title, abstract)
		} else if item, err := appInstance.Library.Item(cmd.Context(), itemKey); err == nil {
			if title == "" {
				title = item.Title
			}
			if abstract == "" {
				abstract = item.Abstract
			}
		} else {
			fmt.Printf("Warning: could not fetch item %s: %v\n", itemKey, err)
		}

		fmt.Printf("Processing PDF: %s\n", pdfPath)
		res := extractor.Extract(pdfPath)
		if !res.OK() {
			return fmt.Errorf("extraction failed: %s", res.Status)
		}

		tags, err := appInstance.Classifier.Classify(cmd.Context(), classifier.Request{
			Title:    title,
			Abstract: abstract,
			Body:     res.Text,
		})
		if err != nil {
			fmt.Printf("%s classification failed: %v\n", color.RedString("✗"), err)
			tags = nil
		}
		fmt.Printf("\nSuggested tags: %s\n", strings.Join(tags, ", "))

		if filePreview {
			fmt.Println("Preview only - no changes made to the library.")
			return nil
		}
		if itemKey == "" {
			return errors.New("no library item identified - tags not applied")
		}

		outcome, err := appInstance.Writer.ApplyTags(cmd.Context(), itemKey, tags)
		if err != nil {
			return fmt.Errorf("tag update failed: %w", err)
		}
		fmt.Printf("\nLibrary update: %s\n", outcome.Message)
		return nil
	},
}

// locateItem finds the library item for the PDF: exact attachment
// filename first, then ranked fuzzy title matching with a numbered
// prompt. Returns empty key when nothing matched or the user declined.
func locateItem(cmd *cobra.Command, appInstance *app.App, pdfPath, title, abstract string) (string, string, string) {
	ctx := cmd.Context()

	fmt.Println("No item key provided, searching the library...")
	item, err := resolver.FindByFilename(ctx, appInstance.Library, filepath.Base(pdfPath))
	if err == nil {
		fmt.Printf("Found matching item: %s (key: %s)\n", item.Title, item.Key)
		return item.Key, firstNonEmpty(title, item.Title), firstNonEmpty(abstract, item.Abstract)
	}
	if !errors.Is(err, store.ErrNotFound) {
		fmt.Printf("Warning: library search failed: %v\n", err)
	}

	if title == "" {
		fmt.Println("No matching item found.")
		return "", title, abstract
	}

	candidates, err := appInstance.Resolver.Resolve(ctx, title)
	if err != nil || len(candidates) == 0 {
		fmt.Println("No matching item found.")
		return "", title, abstract
	}

	fmt.Println("\nDid you mean one of these titles?")
	for i, c := range candidates {
		fmt.Printf("%d. %s (key: %s)\n", i+1, c.Title, c.Key)
	}
	fmt.Print("\nEnter number to use that item (or press Enter to continue): ")

	choice := readChoice(cmd, len(candidates))
	if choice < 0 {
		return "", title, abstract
	}
	selected := candidates[choice]
	fmt.Printf("Selected: %s\n", selected.Title)

	if item, err := appInstance.Library.Item(ctx, selected.Key); err == nil {
		abstract = firstNonEmpty(abstract, item.Abstract)
	}
	return selected.Key, selected.Title, abstract
}

// readChoice reads a 1-based selection from stdin; -1 means none.
func readChoice(cmd *cobra.Command, max int) int {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		return -1
	}
	text := strings.TrimSpace(scanner.Text())
	n, err := strconv.Atoi(text)
	if err != nil || n < 1 || n > max {
		return -1
	}
	return n - 1
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	fileCmd.Flags().StringVar(&fileItemKey, "item-key", "", "library item key (if known)")
	fileCmd.Flags().StringVar(&fileTitle, "title", "", "document title (optional)")
	fileCmd.Flags().StringVar(&fileAbstract, "abstract", "", "document abstract (optional)")
	fileCmd.Flags().BoolVar(&filePreview, "preview", false, "show suggested tags without writing")
	rootCmd.AddCommand(fileCmd)
}
