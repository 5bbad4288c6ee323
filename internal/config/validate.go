package config

import (
	"errors"
	"fmt"
)

// Validate checks the three required identifiers up front so a missing
// secret fails the run before any item is touched.
func (c *Config) Validate() error {
	if c.Zotero.LibraryID == "" {
		return errors.New("zotero.library_id is required (or set ZOTERO_LIBRARY_ID)")
	}
	if c.Zotero.APIKey == "" {
		return errors.New("zotero.api_key is required (or set ZOTERO_API_KEY)")
	}
	if c.Zotero.LibraryType != "user" && c.Zotero.LibraryType != "group" {
		return fmt.Errorf("zotero.library_type must be \"user\" or \"group\", got %q", c.Zotero.LibraryType)
	}

	switch c.Classifier.Provider {
	case "openai":
		if c.Classifier.OpenaiAPIKey == "" {
			return errors.New("classifier.openai_api_key is required (or set OPENAI_API_KEY)")
		}
	case "gemini":
		if c.Classifier.GoogleAPIKey == "" {
			return errors.New("classifier.google_api_key is required (or set GEMINI_API_KEY)")
		}
	default:
		return fmt.Errorf("unknown classifier provider %q", c.Classifier.Provider)
	}
	if c.Classifier.Model == "" {
		return errors.New("classifier.model is required")
	}

	if c.Vocabulary.Path == "" {
		return errors.New("vocabulary.path is required")
	}

	if c.Pipeline.Source != "local" && c.Pipeline.Source != "api" {
		return fmt.Errorf("pipeline.source must be \"local\" or \"api\", got %q", c.Pipeline.Source)
	}
	if c.Pipeline.DelayMs < 0 {
		return errors.New("pipeline.delay_ms must not be negative")
	}
	return nil
}
