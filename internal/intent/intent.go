package intent

// Intent is the inferred goal of a chat message
type Intent string

const (
	Trending     Intent = "trending"
	GenreSearch  Intent = "genre_search"
	MoodSearch   Intent = "mood_search"
	YearSearch   Intent = "year_search"
	SimilarMovie Intent = "similar_movie"
	ActorSearch  Intent = "actor_search"
	TitleSearch  Intent = "title_search"
	General      Intent = "general"
)

// Entities holds the values extracted alongside an intent. Zero values mean
// the entity was not present.
type Entities struct {
	Genre          string `json:"genre,omitempty"`
	Year           int    `json:"year,omitempty"`
	Actor          string `json:"actor,omitempty"`
	ReferenceMovie string `json:"reference_movie,omitempty"`
	Query          string `json:"query,omitempty"`
}

// Filters are optional narrowing hints found anywhere in a message
type Filters struct {
	MinRating float64 `json:"min_rating,omitempty"`
	Language  string  `json:"language,omitempty"`
}

// Result is the parser output for one message
type Result struct {
	Intent          Intent   `json:"intent"`
	Entities        Entities `json:"entities"`
	OriginalMessage string   `json:"original_message"`
	// Limit is the explicitly requested result count, 0 when absent
	Limit   int     `json:"limit,omitempty"`
	Filters Filters `json:"filters"`
}

// LimitOr returns the requested limit or fallback when none was given
func (r Result) LimitOr(fallback int) int {
	if r.Limit > 0 {
		return r.Limit
	}
	return fallback
}
