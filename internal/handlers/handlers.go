package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 24
	maxPageSize     = 100
)

// paramID parses the :id route parameter.
func paramID(c fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

// queryInt returns a positive integer query parameter, or fallback.
func queryInt(c fiber.Ctx, key string, fallback int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// pagination reads limit and offset, clamping limit to maxPageSize.
func pagination(c fiber.Ctx) (limit, offset int) {
	limit = queryInt(c, "limit", defaultPageSize)
	if limit == 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)
	return limit, queryInt(c, "offset", 0)
}
