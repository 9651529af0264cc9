package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/FilipeSCampos/GameSphere/internal/usecase"
)

const errBase = "https://errors.gamesphere.local"

// Problem is the error body returned by every endpoint.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

// paramError reports a malformed query parameter.
type paramError struct {
	Name string
}

func (e *paramError) Error() string { return "invalid parameter " + e.Name }

// writeErr maps a usecase error to the correct HTTP response.
func writeErr(c echo.Context, err error) error {
	var pe *paramError
	switch {
	case errors.As(err, &pe):
		return c.JSON(http.StatusBadRequest, Problem{
			Type:   errBase + "/invalid-parameter",
			Title:  "Bad Request",
			Status: http.StatusBadRequest,
			Detail: pe.Name + " must be a positive integer.",
		})
	case errors.Is(err, usecase.ErrEmptyQuery):
		return c.JSON(http.StatusBadRequest, Problem{
			Type:   errBase + "/missing-query",
			Title:  "Bad Request",
			Status: http.StatusBadRequest,
			Detail: "A non-empty search term is required.",
		})
	case errors.Is(err, usecase.ErrGameNotFound):
		return c.JSON(http.StatusNotFound, Problem{
			Type:   errBase + "/game-not-found",
			Title:  "Not Found",
			Status: http.StatusNotFound,
			Detail: "Game not found.",
		})
	default:
		return c.JSON(http.StatusInternalServerError, Problem{
			Type:   errBase + "/internal",
			Title:  "Internal Server Error",
			Status: http.StatusInternalServerError,
			Detail: "Unexpected error.",
		})
	}
}
