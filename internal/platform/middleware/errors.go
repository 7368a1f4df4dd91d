package middleware

import "github.com/labstack/echo/v4"

// ErrorBody is the JSON shape of every error the dashboard writes itself.
type ErrorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeError(c echo.Context, status int, msg string) error {
	rid, _ := c.Get("request_id").(string)
	return c.JSON(status, ErrorBody{Error: msg, RequestID: rid})
}
