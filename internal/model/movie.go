package model

import "time"

// Movie is a catalog entry that showtimes are scheduled for.  AverageRating
// and ReviewCount are computed from reviews and are not stored columns.
type Movie struct {
	ID            uint64     `db:"id" json:"id"`
	Title         string     `db:"title" json:"title"`
	Description   string     `db:"description" json:"description"`
	Genre         string     `db:"genre" json:"genre"`
	DurationMin   int        `db:"duration_min" json:"durationMin"`
	AgeRating     string     `db:"age_rating" json:"ageRating"`
	ReleaseDate   *time.Time `db:"release_date" json:"releaseDate,omitempty"`
	PosterURL     string     `db:"poster_url" json:"posterUrl"`
	AverageRating float64    `db:"average_rating" json:"averageRating"`
	ReviewCount   int        `db:"review_count" json:"reviewCount"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}

// Duration returns the running time of the movie.
func (m Movie) Duration() time.Duration {
	return time.Duration(m.DurationMin) * time.Minute
}

// MovieFilter narrows movie listings.  Empty fields are ignored.
type MovieFilter struct {
	Query  string
	Genre  string
	Limit  int
	Offset int
}
