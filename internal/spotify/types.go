package spotify

// Response shapes based on https://developer.spotify.com/documentation/web-api/reference/

type Image struct {
	URL string `json:"url"`
}

type Artist struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

type Album struct {
	Id     string  `json:"id"`
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

type Track struct {
	Id         string    `json:"id"`
	Name       string    `json:"name"`
	URI        string    `json:"uri"`
	DurationMS int       `json:"duration_ms"`
	Album      *Album    `json:"album"`
	Artists    []*Artist `json:"artists"`
}

type User struct {
	Id          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type Playlist struct {
	Id           string `json:"id"`
	Name         string `json:"name"`
	Public       bool   `json:"public"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

// Tokens is the pair returned by the authorization-code and refresh grants.
// RefreshToken may be empty on refresh responses.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

type trackPage struct {
	Items []Track `json:"items"`
}

// searchResponse keeps the tracks page as a pointer so a shape mismatch
// (missing "tracks" object) is detectable instead of silently empty.
type searchResponse struct {
	Tracks *trackPage `json:"tracks"`
}
