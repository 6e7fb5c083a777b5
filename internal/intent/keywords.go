package intent

// Keyword tables are slices so that matching order is fixed. Where one phrase
// contains another ("similar to" / "similar") the longer one comes first.

var genreKeywords = []string{
	"action", "comedy", "drama", "horror", "thriller", "romance", "sci-fi",
	"science fiction", "fantasy", "animation", "documentary", "crime",
	"mystery", "adventure", "family", "musical", "war", "western", "biography",
}

type keywordValue[T any] struct {
	keyword string
	value   T
}

var moodKeywords = []keywordValue[string]{
	{"scary", "horror"},
	{"funny", "comedy"},
	{"romantic", "romance"},
	{"exciting", "action"},
	{"sad", "drama"},
	{"feel-good", "comedy"},
	{"uplifting", "drama"},
	{"suspenseful", "thriller"},
	{"creepy", "horror"},
	{"heartwarming", "family"},
}

// timeKeywords map relative and decade phrases to a representative year
var timeKeywords = []keywordValue[int]{
	{"recent", 2020},
	{"new", 2022},
	{"latest", 2023},
	{"old", 1990},
	{"classic", 1980},
	{"90s", 1995},
	{"80s", 1985},
	{"70s", 1975},
	{"2000s", 2005},
	{"2010s", 2015},
}

var trendingKeywords = []string{
	"trending", "popular", "hot", "viral", "everyone watching",
	"what's popular", "most watched", "top movies", "best movies",
	"top rated", "highest rated", "best rated", "top 10", "top 5",
	"top 2", "best of all time", "greatest", "must watch",
}

var questionKeywords = []string{
	"what is", "what are", "tell me", "show me", "can you",
	"rating of", "rating for", "how good", "is it good",
}

var similarKeywords = []string{
	"similar to", "reminds me of", "comparable to", "in the style of",
	"same as", "resembles", "similar", "like",
}

var actorKeywords = []string{
	"starring", "featuring", "actress", "actor", "cast", "with",
}

var searchIndicators = []string{
	"find", "search", "look for", "show me", "get",
}

var highRatingPhrases = []string{
	"highly rated", "top rated", "best rated", "good ratings",
}
