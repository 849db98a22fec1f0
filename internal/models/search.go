package models

// SearchMode describes which retrieval path produced a search response.
type SearchMode string

const (
	ModeSemantic        SearchMode = "semantic"
	ModeKeywordFallback SearchMode = "keyword_fallback"
	ModeEmpty           SearchMode = "empty"
)

// ArticleHit is a single search result. Score is nil for keyword matches.
type ArticleHit struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags"`
	Score *float64 `json:"score,omitempty"`
}

// NewArticleHit builds a hit from an article and an optional score.
func NewArticleHit(a *Article, score *float64) ArticleHit {
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	return ArticleHit{ID: a.ID, Title: a.Title, Body: a.Body, Tags: tags, Score: score}
}

// SearchResponse is the response for a knowledge search.
type SearchResponse struct {
	Mode    SearchMode   `json:"mode"`
	Query   string       `json:"query"`
	Results []ArticleHit `json:"results"`
}
