package keyword

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/smartdesk/internal/models"
)

const (
	fieldTitle = "title"
	fieldBody  = "body"
	fieldTags  = "tags"
)

// cannedDoc is the indexed shape of a canned response.
type cannedDoc struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tags  string `json:"tags"`
}

// BleveIndex implements Index using Bleve.
type BleveIndex struct {
	index bleve.Index
}

var _ Index = (*BleveIndex)(nil)

func newMapping() *bleve.IndexMapping {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	text := bleve.NewTextFieldMapping()
	// Standard analyzer: lowercase and tokenize without stemming.
	text.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt(fieldTitle, text)
	docMapping.AddFieldMappingsAt(fieldBody, text)
	docMapping.AddFieldMappingsAt(fieldTags, text)
	im.AddDocumentMapping("canned", docMapping)
	im.DefaultType = "canned"
	im.DefaultMapping = docMapping
	return im
}

// NewBleveIndex creates or opens a Bleve index at path. An empty path builds
// an in-memory index that must be repopulated on every start.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if path == "" {
		index, err := bleve.NewMemOnly(newMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory Bleve index: %w", err)
		}
		return &BleveIndex{index: index}, nil
	}

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// Index adds or replaces a canned response.
func (b *BleveIndex) Index(ctx context.Context, c *models.CannedResponse) error {
	doc := cannedDoc{
		Title: c.Title,
		Body:  c.Body,
		Tags:  strings.Join(c.SearchTags, " "),
	}
	if err := b.index.Index(c.ID, doc); err != nil {
		return fmt.Errorf("failed to index canned response %s: %w", c.ID, err)
	}
	return nil
}

// Search matches query against title, tags and body with per-field boosts and
// returns up to limit hits ordered by score.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Result, error) {
	terms := tokenizeQuery(query)
	if len(terms) == 0 || limit <= 0 {
		return []*Result{}, nil
	}

	titleBoost, tagBoost, phraseBoost := 3.0, 2.0, 1.0
	fuzzy, fuzziness := false, 1
	if opts != nil {
		if opts.TitleBoost > 0 {
			titleBoost = opts.TitleBoost
		}
		if opts.TagBoost > 0 {
			tagBoost = opts.TagBoost
		}
		if opts.PhraseBoost > 0 {
			phraseBoost = opts.PhraseBoost
		}
		fuzzy = opts.FuzzyEnabled
		if opts.Fuzziness > 0 {
			fuzziness = opts.Fuzziness
		}
	}

	clauses := []blevequery.Query{
		fieldQuery(query, terms, fieldTitle, titleBoost, fuzzy, fuzziness),
		fieldQuery(query, terms, fieldTags, tagBoost, fuzzy, fuzziness),
		fieldQuery(query, terms, fieldBody, 1, fuzzy, fuzziness),
	}
	if phraseBoost > 1 && len(terms) > 1 {
		pq := bleve.NewMatchPhraseQuery(query)
		pq.SetField(fieldBody)
		pq.SetBoost(phraseBoost)
		clauses = append(clauses, pq)
	}

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(clauses...))
	req.Size = limit
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*Result, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &Result{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// fieldQuery builds a match query on field, or a disjunction of per-term
// fuzzy queries when fuzzy matching is on.
func fieldQuery(query string, terms []string, field string, boost float64, fuzzy bool, fuzziness int) blevequery.Query {
	if !fuzzy {
		mq := bleve.NewMatchQuery(query)
		mq.SetField(field)
		mq.SetBoost(boost)
		return mq
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		fq.SetField(field)
		fq.SetBoost(boost)
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// tokenizeQuery splits query into lowercase terms.
func tokenizeQuery(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// Delete removes a canned response from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// DocCount returns the number of indexed canned responses.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
