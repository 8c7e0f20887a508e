package utils

import (
	"net/http"
	"strconv"

	"travlr/models"
)

// PaginationFromQuery reads page and limit query parameters.
// Missing or non-numeric values fall back to the defaults.
func PaginationFromQuery(r *http.Request) models.Pagination {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return models.NewPagination(page, limit)
}
