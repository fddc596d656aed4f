package entities

// Series represents a podcast series as served by the Narrows metadata API.
type Series struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Author      string `json:"author,omitempty"`
	Language    string `json:"language,omitempty"`
}
