package handlers

import (
	"strconv"

	"github.com/saeid-a/CounselPracticeBack/internal/models"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

func buildPaginationMeta(page, limit, total int) models.PaginationMeta {
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return models.PaginationMeta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func pageParams(rawPage, rawLimit string) (int, int) {
	page := parsePositiveInt(rawPage, 1)
	limit := parsePositiveInt(rawLimit, defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}
