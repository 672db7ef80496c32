package dto

// GNewsSearchResponse is the body of GET /search on the GNews API.
type GNewsSearchResponse struct {
	TotalArticles int            `json:"totalArticles"`
	Articles      []GNewsArticle `json:"articles"`
}

// GNewsArticle is one article in a GNews search response.
type GNewsArticle struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Content     string      `json:"content"`
	URL         string      `json:"url"`
	Image       string      `json:"image"`
	PublishedAt string      `json:"publishedAt"`
	Source      GNewsSource `json:"source"`
}

// GNewsSource is the publisher of a GNews article.
type GNewsSource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// GNewsErrorResponse is returned by GNews on non-200 responses.
type GNewsErrorResponse struct {
	Errors []string `json:"errors"`
}
