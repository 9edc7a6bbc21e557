package model

import (
	"errors"
	"fmt"
)

// ErrTicketCount is returned when adult and child counts do not add up to the
// number of selected seats.
var ErrTicketCount = errors.New("adult and child counts must add up to the number of seats")

// ChildPrice is half the adult price, rounded half up to the cent.
func ChildPrice(priceCents int64) int64 {
	return (priceCents + 1) / 2
}

// TicketTotal returns adultCount*price + childCount*price*0.5 for seats
// selected seats.
func TicketTotal(priceCents int64, seats, adultCount, childCount int) (int64, error) {
	if adultCount < 0 || childCount < 0 || adultCount+childCount != seats {
		return 0, fmt.Errorf("%w: %d seats, %d adults, %d children", ErrTicketCount, seats, adultCount, childCount)
	}
	return int64(adultCount)*priceCents + int64(childCount)*ChildPrice(priceCents), nil
}

// SnackTotal sums the line totals of items.
func SnackTotal(items []PurchaseItem) int64 {
	var total int64
	for _, it := range items {
		total += it.LineTotal()
	}
	return total
}
