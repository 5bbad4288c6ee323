// Package app wires the clients and services from configuration. All
// clients are constructed here and passed by reference; nothing lives
// at package scope.
package app

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"

	"papertag/internal/config"
	"papertag/internal/resolver"
	"papertag/internal/services"
	"papertag/internal/store"
	"papertag/internal/store/remote"
	"papertag/internal/store/snapshot"
	"papertag/internal/vocab"
	"papertag/internal/zotero"
	"papertag/pkg/classifier"
)

type App struct {
	Config     *config.Config
	Library    store.LibraryAPI
	Vocab      *vocab.Vocabulary
	Classifier classifier.Classifier
	Writer     *services.TagWriter
	Resolver   resolver.Resolver

	closers []func() error
}

// NewApp builds the full object graph. Configuration problems fail here,
// before any item is touched.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &App{Config: cfg}

	if err := a.initVocab(); err != nil {
		return nil, err
	}
	a.initLibrary()
	if err := a.initClassifier(ctx); err != nil {
		return nil, err
	}
	a.Writer = services.NewTagWriter(a.Library)
	a.Resolver = resolver.NewTitleResolver(a.Library)

	log.WithFields(log.Fields{
		"provider":   cfg.Classifier.Provider,
		"model":      cfg.Classifier.Model,
		"vocabulary": a.Vocab.Len(),
	}).Debug("application initialization complete")
	return a, nil
}

// Close releases any clients that hold connections.
func (a *App) Close() error {
	var first error
	for _, fn := range a.closers {
		if err := fn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (a *App) initVocab() error {
	v, err := vocab.Load(a.Config.Vocabulary.Path)
	if err != nil {
		return fmt.Errorf("init vocabulary: %w", err)
	}
	a.Vocab = v
	return nil
}

func (a *App) initLibrary() {
	a.Library = zotero.NewClient(
		a.Config.Zotero.LibraryID,
		a.Config.Zotero.LibraryType,
		a.Config.Zotero.APIKey,
	)
}

func (a *App) initClassifier(ctx context.Context) error {
	cfg := a.Config.Classifier
	switch cfg.Provider {
	case "openai":
		client := openai.NewClient(cfg.OpenaiAPIKey)
		a.Classifier = classifier.NewOpenAI(client, cfg.Model, a.Vocab, cfg.MaxTags, cfg.BodyBudget)
	case "gemini":
		gem, err := classifier.NewGemini(ctx, cfg.GoogleAPIKey, cfg.Model, a.Vocab, cfg.MaxTags, cfg.BodyBudget)
		if err != nil {
			return fmt.Errorf("init gemini classifier: %w", err)
		}
		a.Classifier = gem
		a.closers = append(a.closers, gem.Close)
	default:
		return fmt.Errorf("unknown classifier provider %q", cfg.Provider)
	}
	return nil
}

// NewItemSource builds the item source for the given mode ("local" or
// "api") and returns it with its cleanup func.
func (a *App) NewItemSource(mode string) (store.ItemSource, func() error, error) {
	switch mode {
	case "local":
		src, err := snapshot.New(a.Config.DatabasePath(), a.Config.StorageDir())
		if err != nil {
			return nil, nil, err
		}
		return src, src.Close, nil
	case "api":
		return remote.New(a.Library, a.Config.StorageDir()), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown item source %q", mode)
	}
}
