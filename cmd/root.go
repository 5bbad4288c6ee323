package cmd

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"papertag/internal/app"
	"papertag/internal/config"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "papertag",
	Short: "Papertag CLI",
	Long: `Papertag assigns topic tags to the papers in your Zotero library.
It extracts text from each item's PDF attachment, classifies it against a
fixed tag vocabulary with an LLM call, and writes any new tags back
through the Zotero Web API.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	// PersistentPreRunE runs before any subcommand's RunE.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		if verbose {
			log.SetLevel(log.DebugLevel)
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		appInstance, err := app.NewApp(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}

		ctx := context.WithValue(cmd.Context(), appKey, appInstance)
		cmd.SetContext(ctx)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if appInstance, err := GetAppFromContext(cmd.Context()); err == nil {
			return appInstance.Close()
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Custom type for the context key to avoid collisions.
type contextKey string

const appKey contextKey = "app"

// GetAppFromContext retrieves the app instance stored by
// PersistentPreRunE.
func GetAppFromContext(ctx context.Context) (*app.App, error) {
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		return nil, fmt.Errorf("application instance not found in context")
	}
	return appInstance, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, vocabulary, and local snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		appInstance, err := GetAppFromContext(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Configuration OK (provider: %s, model: %s)\n",
			appInstance.Config.Classifier.Provider, appInstance.Config.Classifier.Model)
		fmt.Printf("Vocabulary: %d tags loaded from %s\n",
			appInstance.Vocab.Len(), appInstance.Config.Vocabulary.Path)

		if appInstance.Config.Pipeline.Source == "local" {
			src, closeSrc, err := appInstance.NewItemSource("local")
			if err != nil {
				return fmt.Errorf("local snapshot check failed: %w", err)
			}
			defer closeSrc()

			items, err := src.ListItemsWithPDF(ctx)
			if err != nil {
				return fmt.Errorf("snapshot enumeration failed: %w", err)
			}
			fmt.Printf("Snapshot OK: %d items with PDF attachments\n", len(items))
		}

		fmt.Println("All checks passed.")
		return nil
	},
}
