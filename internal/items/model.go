package items

import "time"

const (
	TypeLost  = "LOST"
	TypeFound = "FOUND"
)

const (
	StatusActive  = "ACTIVE"
	StatusClaimed = "CLAIMED"
	StatusClosed  = "CLOSED"
)

type Item struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	ShortDescription  string     `json:"short_description"`
	FullDescription   string     `json:"full_description"`
	Category          string     `json:"category"`
	Location          string     `json:"location"`
	Date              string     `json:"date"`
	Type              string     `json:"type"`
	Status            string     `json:"status"`
	Images            []string   `json:"images"`
	ContactPreference string     `json:"contact_preference,omitempty"`
	OwnerUsername     string     `json:"owner_username"`
	OwnerID           string     `json:"-"`
	ReportedDate      time.Time  `json:"reported_date"`
	ResolvedDate      *time.Time `json:"resolved_date,omitempty"`
}

type ReportInput struct {
	Title             string   `json:"title"`
	ShortDescription  string   `json:"short_description"`
	FullDescription   string   `json:"full_description"`
	Category          string   `json:"category"`
	Location          string   `json:"location"`
	Date              string   `json:"date"`
	Images            []string `json:"images"`
	ContactPreference string   `json:"contact_preference"`
}

// Filter narrows a public listing. Zero values mean "no constraint".
type Filter struct {
	Type     string
	Category string
	Location string
	Search   string
	Status   string
	Resolved bool
	OwnerID  string
	Page     int
	Size     int
}

// Page is the paged listing envelope the frontend consumes.
type Page struct {
	Items         []Item `json:"items"`
	PageNumber    int    `json:"page"`
	PageSize      int    `json:"size"`
	TotalElements int64  `json:"total_elements"`
	TotalPages    int64  `json:"total_pages"`
}
