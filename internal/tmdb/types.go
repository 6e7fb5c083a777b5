package tmdb

// Genre is one entry of the provider's genre list
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieResult is a movie as returned by list and detail endpoints. Detail
// responses fill Genres, Runtime and the appended sections; list responses
// carry GenreIDs only.
type MovieResult struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	Overview     string    `json:"overview"`
	PosterPath   string    `json:"poster_path"`
	BackdropPath string    `json:"backdrop_path"`
	ReleaseDate  string    `json:"release_date"`
	VoteAverage  float64   `json:"vote_average"`
	VoteCount    int       `json:"vote_count"`
	Popularity   float64   `json:"popularity"`
	GenreIDs     []int     `json:"genre_ids,omitempty"`
	Genres       []Genre   `json:"genres,omitempty"`
	Runtime      int       `json:"runtime,omitempty"`
	Character    string    `json:"character,omitempty"` // person credits only
	Credits      *Credits  `json:"credits,omitempty"`
	Videos       *Videos   `json:"videos,omitempty"`
	Keywords     *Keywords `json:"keywords,omitempty"`
}

type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

type CastMember struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Character string `json:"character"`
	Order     int    `json:"order"`
}

type CrewMember struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
}

type Videos struct {
	Results []Video `json:"results"`
}

type Video struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

type Keywords struct {
	Keywords []Keyword `json:"keywords"`
}

type Keyword struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MoviePage is a paged list of movies
type MoviePage struct {
	Page         int           `json:"page"`
	Results      []MovieResult `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

type Person struct {
	ID                 int     `json:"id"`
	Name               string  `json:"name"`
	Popularity         float64 `json:"popularity"`
	KnownForDepartment string  `json:"known_for_department"`
}

type PersonPage struct {
	Page    int      `json:"page"`
	Results []Person `json:"results"`
}

// MovieCredits lists the movies a person appeared in
type MovieCredits struct {
	ID   int           `json:"id"`
	Cast []MovieResult `json:"cast"`
}

// WatchProviders maps region codes to streaming availability
type WatchProviders struct {
	ID      int                        `json:"id"`
	Results map[string]RegionProviders `json:"results"`
}

type RegionProviders struct {
	Link     string     `json:"link"`
	Flatrate []Provider `json:"flatrate,omitempty"`
	Rent     []Provider `json:"rent,omitempty"`
	Buy      []Provider `json:"buy,omitempty"`
}

type Provider struct {
	ProviderID   int    `json:"provider_id"`
	ProviderName string `json:"provider_name"`
	LogoPath     string `json:"logo_path"`
}

type genreList struct {
	Genres []Genre `json:"genres"`
}

// DiscoverParams filters the discover endpoint. Zero values are omitted.
type DiscoverParams struct {
	GenreID   int
	Year      int
	MinRating float64
	MinVotes  int    // 100 when MinRating is set
	SortBy    string // default popularity.desc
	Page      int
}
