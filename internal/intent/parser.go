package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/movie-chat-backend/internal/textutil"
)

// Parser is a rule based intent classifier. It holds only compiled patterns
// and is safe for concurrent use.
type Parser struct {
	yearPattern      *regexp.Regexp
	titlePatterns    []*regexp.Regexp
	trailingKind     *regexp.Regexp
	quotedPattern    *regexp.Regexp
	namePattern      *regexp.Regexp
	similarPatterns  map[string]*regexp.Regexp
	actorPatterns    map[string]*regexp.Regexp
	limitPatterns    []*regexp.Regexp
	minRatingPattern *regexp.Regexp
}

// NewParser compiles all patterns once
func NewParser() *Parser {
	p := &Parser{
		yearPattern: regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`),
		titlePatterns: []*regexp.Regexp{
			regexp.MustCompile(`rating (?:of|for) (.+)`),
			regexp.MustCompile(`tell me about (.+)`),
			regexp.MustCompile(`what is (.+)`),
			regexp.MustCompile(`show me (.+)`),
			regexp.MustCompile(`how good is (.+)`),
		},
		trailingKind:    regexp.MustCompile(`(?i)\s+(movie|film)$`),
		quotedPattern:   regexp.MustCompile(`["']([^"']+)["']`),
		namePattern:     regexp.MustCompile(`\b([A-Z][a-z]+\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)\b`),
		similarPatterns: make(map[string]*regexp.Regexp, len(similarKeywords)),
		actorPatterns:   make(map[string]*regexp.Regexp, len(actorKeywords)),
		limitPatterns: []*regexp.Regexp{
			regexp.MustCompile(`top (\d+)`),
			regexp.MustCompile(`best (\d+)`),
			regexp.MustCompile(`show (?:me )?(\d+)`),
			regexp.MustCompile(`give (?:me )?(\d+)`),
			regexp.MustCompile(`(\d+) (?:movies|films)`),
		},
		minRatingPattern: regexp.MustCompile(`rated?\s+(?:above|over|at least)\s+(\d+(?:\.\d+)?)`),
	}
	for _, kw := range similarKeywords {
		p.similarPatterns[kw] = regexp.MustCompile(regexp.QuoteMeta(kw) + `\s+`)
	}
	for _, kw := range actorKeywords {
		p.actorPatterns[kw] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(kw) + `\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`)
	}
	return p
}

var defaultParser = NewParser()

// Parse classifies message with a shared default parser
func Parse(message string) Result {
	return defaultParser.Parse(message)
}

// text keeps the trimmed message next to its lowercased form. Matching runs
// on lower; extracted spans are cut from original so user casing survives.
type text struct {
	original string
	lower    string
}

func newText(message string) text {
	lower := strings.TrimSpace(strings.ToLower(message))
	original := strings.TrimSpace(message)
	return text{original: original, lower: lower}
}

func (t text) span(start, end int) string {
	if len(t.original) == len(t.lower) {
		return t.original[start:end]
	}
	return t.lower[start:end]
}

func (t text) source() string {
	if len(t.original) == len(t.lower) {
		return t.original
	}
	return t.lower
}

// Parse maps a raw message to an intent plus entities. Rules are tried in a
// fixed order and the first that produces a result wins.
func (p *Parser) Parse(message string) Result {
	in, ents := p.classify(newText(message))
	return Result{
		Intent:          in,
		Entities:        ents,
		OriginalMessage: message,
		Limit:           p.ExtractLimit(message),
		Filters:         p.ExtractFilters(message),
	}
}

func (p *Parser) classify(t text) (Intent, Entities) {
	if t.lower == "" {
		return General, Entities{}
	}

	genre := extractGenre(t.lower)
	mood := extractMood(t.lower)
	year := p.extractYear(t.lower)

	// genre beats trending framing ("top 2 action movies")
	if _, ok := textutil.ContainsAny(t.lower, trendingKeywords); ok {
		if genre == "" {
			genre = mood
		}
		if genre != "" {
			return GenreSearch, Entities{Genre: genre, Year: year}
		}
		return Trending, Entities{Year: year}
	}

	if _, ok := textutil.ContainsAny(t.lower, questionKeywords); ok {
		if title := p.titleFromQuestion(t); title != "" {
			return TitleSearch, Entities{Query: title}
		}
	}

	if ref := p.similarMovie(t); ref != "" {
		return SimilarMovie, Entities{ReferenceMovie: ref}
	}

	if actor := p.actor(t); actor != "" {
		return ActorSearch, Entities{Actor: actor, Genre: genre}
	}

	if genre != "" {
		return GenreSearch, Entities{Genre: genre, Year: year}
	}

	if mood != "" {
		return MoodSearch, Entities{Genre: mood}
	}

	if year != 0 {
		return YearSearch, Entities{Year: year}
	}

	if _, ok := textutil.ContainsAny(t.lower, searchIndicators); ok {
		return TitleSearch, Entities{Query: t.original}
	}

	// genre, mood and year are all absent at this point
	if textutil.WordCount(t.lower) <= 3 {
		return TitleSearch, Entities{Query: t.original}
	}

	return General, Entities{}
}

func extractGenre(lower string) string {
	for _, g := range genreKeywords {
		if !strings.Contains(lower, g) {
			continue
		}
		if g == "sci-fi" || g == "science fiction" {
			return "Science Fiction"
		}
		return textutil.TitleCase(g)
	}
	return ""
}

func extractMood(lower string) string {
	for _, m := range moodKeywords {
		if strings.Contains(lower, m.keyword) {
			return textutil.TitleCase(m.value)
		}
	}
	return ""
}

func (p *Parser) extractYear(lower string) int {
	for _, tk := range timeKeywords {
		if strings.Contains(lower, tk.keyword) {
			return tk.value
		}
	}
	if m := p.yearPattern.FindStringSubmatch(lower); m != nil {
		y, _ := strconv.Atoi(m[1])
		return y
	}
	return 0
}

func (p *Parser) titleFromQuestion(t text) string {
	for _, re := range p.titlePatterns {
		loc := re.FindStringSubmatchIndex(t.lower)
		if loc == nil {
			continue
		}
		title := strings.TrimSpace(t.span(loc[2], loc[3]))
		return p.trailingKind.ReplaceAllString(title, "")
	}
	return ""
}

func (p *Parser) similarMovie(t text) string {
	for _, kw := range similarKeywords {
		idx := strings.Index(t.lower, kw)
		if idx < 0 {
			continue
		}

		// a quoted or bare title right after the keyword
		for _, m := range p.similarPatterns[kw].FindAllStringIndex(t.lower, -1) {
			if start, end, ok := titleAfter(t.lower, m[1]); ok {
				if title := strings.TrimSpace(t.span(start, end)); title != "" {
					return title
				}
			}
		}

		// any quoted substring
		if loc := p.quotedPattern.FindStringSubmatchIndex(t.lower); loc != nil {
			if title := strings.TrimSpace(t.span(loc[2], loc[3])); title != "" {
				return title
			}
		}

		// first few words after the keyword
		words := strings.Fields(t.source()[idx+len(kw):])
		if len(words) > 5 {
			words = words[:5]
		}
		if title := strings.Trim(strings.Join(words, " "), ".,!?"); title != "" {
			return title
		}
	}
	return ""
}

// titleAfter finds the title starting at pos: either text enclosed in a
// matching pair of quotes, or everything up to the next quote character.
func titleAfter(s string, pos int) (int, int, bool) {
	rest := s[pos:]
	if rest == "" {
		return 0, 0, false
	}
	if q := rest[0]; q == '"' || q == '\'' {
		n := strings.IndexAny(rest[1:], `"'`)
		if n <= 0 || rest[1+n] != q {
			return 0, 0, false
		}
		return pos + 1, pos + 1 + n, true
	}
	n := strings.IndexAny(rest, `"'`)
	if n < 0 {
		n = len(rest)
	}
	return pos, pos + n, true
}

func (p *Parser) actor(t text) string {
	for _, kw := range actorKeywords {
		if !strings.Contains(t.lower, kw) {
			continue
		}
		if loc := p.actorPatterns[kw].FindStringSubmatchIndex(t.lower); loc != nil {
			return strings.TrimSpace(t.span(loc[2], loc[3]))
		}
	}
	if m := p.namePattern.FindStringSubmatch(t.original); m != nil {
		return m[1]
	}
	return ""
}

// ExtractLimit returns the count requested by phrases like "top 5" or
// "show me 3", or 0 when the message names none.
func (p *Parser) ExtractLimit(message string) int {
	lower := strings.ToLower(message)
	for _, re := range p.limitPatterns {
		m := re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	return 0
}

// ExtractFilters finds rating and language hints
func (p *Parser) ExtractFilters(message string) Filters {
	lower := strings.ToLower(message)
	var f Filters

	if m := p.minRatingPattern.FindStringSubmatch(lower); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			f.MinRating = v
		}
	}
	if _, ok := textutil.ContainsAny(lower, highRatingPhrases); ok {
		f.MinRating = 7.0
	}
	if strings.Contains(lower, "foreign") || strings.Contains(lower, "international") {
		f.Language = "foreign"
	}
	return f
}
