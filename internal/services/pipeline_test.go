package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertag/internal/extractor"
	"papertag/internal/models"
	"papertag/internal/vocab"
	"papertag/pkg/classifier"
)

type stubSource struct {
	items []models.Item
	err   error
}

func (s *stubSource) ListItemsWithPDF(ctx context.Context) ([]models.Item, error) {
	return s.items, s.err
}

// keywordClassifier tags by naive keyword lookup in the extracted text,
// filtered through the vocabulary like a real classifier.
type keywordClassifier struct {
	v     *vocab.Vocabulary
	err   error
	calls int
}

func (c *keywordClassifier) Classify(ctx context.Context, req classifier.Request) ([]string, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	var tags []string
	for _, name := range c.v.Names() {
		if bytes.Contains([]byte(req.Body), []byte(name)) {
			tags = append(tags, name)
		}
	}
	return c.v.Filter(tags), nil
}

func okExtractor(text string) func(string) extractor.Result {
	return func(string) extractor.Result {
		return extractor.Result{Status: extractor.StatusOK, Text: text}
	}
}

func discoveredItem(key, title string, tags ...string) models.Item {
	return models.Item{
		Key: key, Version: 1, Type: "journalArticle", Title: title, Tags: tags,
		Attachments: []models.Attachment{{
			Key: key + "-PDF", Path: "/dev/null", ContentType: "application/pdf",
		}},
	}
}

func TestPipelineAppliesClassifiedTags(t *testing.T) {
	v := vocab.New([]string{"machine learning", "robotics", "optimization"})
	lib := newMockLibrary(&models.Item{Key: "X1", Version: 1, Type: "journalArticle"})
	cls := &keywordClassifier{v: v}

	p := NewPipeline(
		&stubSource{items: []models.Item{discoveredItem("X1", "X")}},
		cls,
		NewTagWriter(lib),
		WithDelay(0),
		WithOutput(&bytes.Buffer{}),
		WithExtractor(okExtractor("this paper combines machine learning with robotics")),
	)

	stats, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Applied)
	assert.Equal(t, 1, cls.calls, "one inference call per item")
	assert.ElementsMatch(t, []string{"machine learning", "robotics"},
		lib.items["X1"].Tags, "exactly the two matched vocabulary tags are written")
}

func TestPipelineSkipsAlreadyPresentTag(t *testing.T) {
	v := vocab.New([]string{"machine learning", "robotics"})
	lib := newMockLibrary(&models.Item{
		Key: "X1", Version: 1, Type: "journalArticle",
		Tags: []string{"machine learning"},
	})

	p := NewPipeline(
		&stubSource{items: []models.Item{discoveredItem("X1", "X", "machine learning")}},
		&keywordClassifier{v: v},
		NewTagWriter(lib),
		WithDelay(0),
		WithOutput(&bytes.Buffer{}),
		WithExtractor(okExtractor("machine learning and robotics")),
	)

	stats, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Applied)
	assert.ElementsMatch(t, []string{"machine learning", "robotics"}, lib.items["X1"].Tags,
		"only the missing tag is appended")
	assert.Equal(t, 1, lib.updateCalls)
}

func TestPipelineClassifierErrorMeansSkip(t *testing.T) {
	v := vocab.New([]string{"robotics"})
	lib := newMockLibrary(&models.Item{Key: "X1", Version: 1, Type: "journalArticle"})

	p := NewPipeline(
		&stubSource{items: []models.Item{discoveredItem("X1", "X")}},
		&keywordClassifier{v: v, err: errors.New("api unreachable")},
		NewTagWriter(lib),
		WithDelay(0),
		WithOutput(&bytes.Buffer{}),
		WithExtractor(okExtractor("text")),
	)

	stats, err := p.Run(context.Background())
	require.NoError(t, err, "classification failure is not fatal to the batch")

	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Skipped)
	assert.Zero(t, stats.Applied)
	assert.Zero(t, lib.updateCalls)
}

func TestPipelineCountsExtractionErrorsByCategory(t *testing.T) {
	v := vocab.New([]string{"robotics"})
	lib := newMockLibrary()

	results := map[string]extractor.Result{
		"/dev/null": {Status: extractor.StatusFailed, Err: errors.New("boom")},
	}
	items := []models.Item{
		discoveredItem("X1", "Broken One"),
		discoveredItem("X2", "Broken Two"),
	}

	p := NewPipeline(
		&stubSource{items: items},
		&keywordClassifier{v: v},
		NewTagWriter(lib),
		WithDelay(0),
		WithOutput(&bytes.Buffer{}),
		WithExtractor(func(path string) extractor.Result { return results[path] }),
	)

	stats, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, stats.Processed)
	assert.Equal(t, 2, stats.ExtractionErrors["extraction failed"])
	assert.Equal(t, 2, stats.ErrorCount())
}

func TestPipelineMissingFileCountsNotFound(t *testing.T) {
	v := vocab.New([]string{"robotics"})
	item := discoveredItem("X1", "Gone")
	item.Attachments[0].Path = "/nonexistent/path/paper.pdf"

	p := NewPipeline(
		&stubSource{items: []models.Item{item}},
		&keywordClassifier{v: v},
		NewTagWriter(newMockLibrary()),
		WithDelay(0),
		WithOutput(&bytes.Buffer{}),
	)

	stats, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.NotFound)
	assert.Zero(t, stats.Processed)
}

func TestPipelineLimit(t *testing.T) {
	v := vocab.New([]string{"robotics"})
	lib := newMockLibrary(
		&models.Item{Key: "X1", Version: 1, Type: "journalArticle"},
		&models.Item{Key: "X2", Version: 1, Type: "journalArticle"},
	)

	p := NewPipeline(
		&stubSource{items: []models.Item{discoveredItem("X1", "A"), discoveredItem("X2", "B")}},
		&keywordClassifier{v: v},
		NewTagWriter(lib),
		WithDelay(0),
		WithLimit(1),
		WithOutput(&bytes.Buffer{}),
		WithExtractor(okExtractor("robotics")),
	)

	stats, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Processed)
}

func TestPipelineEnumerationFailureAborts(t *testing.T) {
	p := NewPipeline(
		&stubSource{err: errors.New("db locked")},
		&keywordClassifier{v: vocab.New([]string{"x"})},
		NewTagWriter(newMockLibrary()),
		WithDelay(0),
		WithOutput(&bytes.Buffer{}),
	)

	_, err := p.Run(context.Background())
	require.Error(t, err)
}

func TestPipelineContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline(
		&stubSource{items: []models.Item{discoveredItem("X1", "A")}},
		&keywordClassifier{v: vocab.New([]string{"x"})},
		NewTagWriter(newMockLibrary()),
		WithDelay(0),
		WithOutput(&bytes.Buffer{}),
	)

	_, err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
