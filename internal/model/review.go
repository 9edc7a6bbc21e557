package model

import "time"

// Review is a user's rating of a movie.  A user may review a movie once.
type Review struct {
	ID        uint64    `db:"id" json:"id"`
	MovieID   uint64    `db:"movie_id" json:"movieId"`
	UserID    uint64    `db:"user_id" json:"userId"`
	UserName  string    `db:"user_name" json:"userName"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   string    `db:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
