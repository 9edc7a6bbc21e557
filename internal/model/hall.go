package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Seat types.  Pricing does not depend on the type; it is shown on the seat
// map so the front end can style premium rows.
const (
	SeatNormal  = "NORMAL"
	SeatPremium = "PREMIUM"
	SeatVIP     = "VIP"
)

// ValidSeatType reports whether t is a known seat type.
func ValidSeatType(t string) bool {
	return t == SeatNormal || t == SeatPremium || t == SeatVIP
}

// Hall represents a screening room within a cinema.  The seat layout is
// embedded and stored as a JSON column.
type Hall struct {
	ID        uint64     `db:"id" json:"id"`
	CinemaID  uint64     `db:"cinema_id" json:"cinemaId"`
	Name      string     `db:"name" json:"name"`
	Layout    HallLayout `db:"layout" json:"layout"`
	IsActive  bool       `db:"is_active" json:"isActive"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}

// LayoutSeat is one physical seat of a hall.  Row and Col are zero based.
type LayoutSeat struct {
	Label  string `json:"label"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Type   string `json:"type"`
	Active bool   `json:"active"`
}

// Partition is an aisle drawn after the given zero based row or column.
type Partition struct {
	Axis  string `json:"axis"` // "row" or "col"
	After int    `json:"after"`
}

// HallLayout describes the seat grid of a hall.
type HallLayout struct {
	Rows       int          `json:"rows"`
	Cols       int          `json:"cols"`
	Seats      []LayoutSeat `json:"seats"`
	Partitions []Partition  `json:"partitions"`
}

// ErrInvalidLayout is wrapped by Validate for every layout problem.
var ErrInvalidLayout = errors.New("invalid hall layout")

// GridLayout builds a rows x cols layout of NORMAL seats labelled A1, A2 ... B1.
func GridLayout(rows, cols int) HallLayout {
	l := HallLayout{Rows: rows, Cols: cols, Seats: make([]LayoutSeat, 0, rows*cols)}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			l.Seats = append(l.Seats, LayoutSeat{
				Label:  SeatLabel(r, c),
				Row:    r,
				Col:    c,
				Type:   SeatNormal,
				Active: true,
			})
		}
	}
	return l
}

// SeatLabel returns the conventional label of the seat at zero based row and
// column: row letters A..Z, AA.. followed by the one based seat number.
func SeatLabel(row, col int) string {
	return RowLabel(row) + strconv.Itoa(col+1)
}

// RowLabel converts a zero-based index to an alphabetical row label like A, B, AA.
func RowLabel(i int) string {
	if i < 0 {
		return ""
	}
	res := []rune{}
	for {
		rem := i % 26
		res = append(res, rune('A'+rem))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}

// Validate checks bounds, label uniqueness and position uniqueness.  Empty
// seat types default to NORMAL.
func (l *HallLayout) Validate() error {
	if l.Rows <= 0 || l.Cols <= 0 {
		return fmt.Errorf("%w: rows and cols must be positive", ErrInvalidLayout)
	}
	if len(l.Seats) == 0 {
		return fmt.Errorf("%w: no seats", ErrInvalidLayout)
	}
	labels := make(map[string]struct{}, len(l.Seats))
	positions := make(map[[2]int]struct{}, len(l.Seats))
	for i := range l.Seats {
		s := &l.Seats[i]
		if s.Label == "" {
			return fmt.Errorf("%w: seat %d has no label", ErrInvalidLayout, i)
		}
		if s.Row < 0 || s.Row >= l.Rows || s.Col < 0 || s.Col >= l.Cols {
			return fmt.Errorf("%w: seat %s is outside the grid", ErrInvalidLayout, s.Label)
		}
		if s.Type == "" {
			s.Type = SeatNormal
		}
		if !ValidSeatType(s.Type) {
			return fmt.Errorf("%w: seat %s has unknown type %q", ErrInvalidLayout, s.Label, s.Type)
		}
		if _, dup := labels[s.Label]; dup {
			return fmt.Errorf("%w: duplicate label %s", ErrInvalidLayout, s.Label)
		}
		labels[s.Label] = struct{}{}
		pos := [2]int{s.Row, s.Col}
		if _, dup := positions[pos]; dup {
			return fmt.Errorf("%w: two seats at row %d col %d", ErrInvalidLayout, s.Row, s.Col)
		}
		positions[pos] = struct{}{}
	}
	for _, p := range l.Partitions {
		limit := l.Rows
		switch p.Axis {
		case "row":
		case "col":
			limit = l.Cols
		default:
			return fmt.Errorf("%w: partition axis %q", ErrInvalidLayout, p.Axis)
		}
		if p.After < 0 || p.After >= limit-1 {
			return fmt.Errorf("%w: partition after %d is out of range", ErrInvalidLayout, p.After)
		}
	}
	return nil
}

// ActiveSeats returns the seats that can be sold.
func (l HallLayout) ActiveSeats() []LayoutSeat {
	out := make([]LayoutSeat, 0, len(l.Seats))
	for _, s := range l.Seats {
		if s.Active {
			out = append(out, s)
		}
	}
	return out
}

// Clone returns a deep copy of the layout.
func (l HallLayout) Clone() HallLayout {
	c := l
	c.Seats = append([]LayoutSeat(nil), l.Seats...)
	c.Partitions = append([]Partition(nil), l.Partitions...)
	return c
}

// Value implements driver.Valuer so the layout is stored as JSON.
func (l HallLayout) Value() (driver.Value, error) {
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for the JSON layout column.
func (l *HallLayout) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = HallLayout{}
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return fmt.Errorf("hall layout: unsupported scan type %T", src)
}
