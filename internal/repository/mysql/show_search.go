package mysql

import (
	"strings"

	"github.com/iliyamo/cinema-ticketing/internal/model"
)

// showtimeWhere turns a filter into a WHERE condition and its arguments.
func showtimeWhere(f model.ShowtimeFilter) (string, []any) {
	where := []string{}
	args := []any{}

	if f.MovieID != 0 {
		where = append(where, "movie_id = ?")
		args = append(args, f.MovieID)
	}
	if f.CinemaID != 0 {
		where = append(where, "cinema_id = ?")
		args = append(args, f.CinemaID)
	}
	if f.HallID != 0 {
		where = append(where, "hall_id = ?")
		args = append(args, f.HallID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.Day != nil {
		where = append(where, "starts_at >= ? AND starts_at < ?")
		args = append(args, f.Day.UTC(), f.Day.UTC().AddDate(0, 0, 1))
	}
	if f.After != nil {
		where = append(where, "starts_at > ?")
		args = append(args, f.After.UTC())
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	return cond, args
}
