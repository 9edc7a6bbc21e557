package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID is the rate limit and cache identity of the caller: the
// user id when authenticated, otherwise "anon".
func currentUserID(c echo.Context) string {
	if id := UserID(c); id != 0 {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
