package classifier

import (
	"strings"

	"github.com/neurosnap/sentences"

	"papertag/internal/vocab"
)

// DefaultBodyBudget bounds how many characters of extracted text go
// into the prompt. The source material can far exceed any model's
// context window, so the body is cut to this budget at a sentence
// boundary before the prompt is built.
const DefaultBodyBudget = 48000

const systemPrompt = "You are an expert research paper classifier that analyzes papers holistically and assigns comprehensive, relevant tags."

// buildPrompt assembles the single classification prompt: the fixed tag
// vocabulary, the analysis guidelines, and the paper's title, abstract,
// and (budget-truncated) body.
func buildPrompt(v *vocab.Vocabulary, req Request, bodyBudget int) string {
	var sb strings.Builder

	sb.WriteString("You are an expert research paper classifier specializing in AI and computer science papers.\n")
	sb.WriteString("Your task is to analyze the following research paper and assign relevant tags from this list:\n\n")
	sb.WriteString("<tag_list>\n")
	for _, name := range v.Names() {
		sb.WriteString(name)
		sb.WriteString("\n")
	}
	sb.WriteString("</tag_list>\n\n")

	sb.WriteString(`Analysis Guidelines:
1. Consider the entire paper holistically, including:
   - Title and abstract for main focus
   - Introduction for problem statement and motivation
   - Methods section for technical approaches
   - Results and discussion for applications and implications
   - Conclusion for final takeaways

2. Tag Assignment Rules:
   - Only use tags from the provided list
   - BE CONSERVATIVE - only assign tags if you're confident they apply
   - Return tags as a comma-separated list
   - Assign tags based on both explicit mentions and implicit themes
   - Consider the paper's primary contributions and secondary aspects
   - Maximum 5 most relevant tags

Paper to analyze:
`)
	sb.WriteString("Title: ")
	sb.WriteString(req.Title)
	sb.WriteString("\nAbstract: ")
	sb.WriteString(req.Abstract)
	sb.WriteString("\n\n###\n")
	sb.WriteString(truncateBody(req.Body, bodyBudget))
	sb.WriteString("\n###\n\nRelevant tags (comma-separated, ordered by relevance):")

	return sb.String()
}

// truncateBody cuts text to at most budget characters, preferring a
// sentence boundary so the model never sees a mid-sentence cliff.
func truncateBody(text string, budget int) string {
	if budget <= 0 || len(text) <= budget {
		return text
	}

	tokenizer := sentences.NewSentenceTokenizer(nil)
	var sb strings.Builder
	for _, s := range tokenizer.Tokenize(text) {
		if sb.Len()+len(s.Text) > budget {
			break
		}
		sb.WriteString(s.Text)
	}
	if sb.Len() == 0 {
		// A single sentence longer than the whole budget; hard cut.
		return text[:budget]
	}
	return sb.String()
}
