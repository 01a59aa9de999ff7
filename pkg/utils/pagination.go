package utils

// PaginationParams is the page/limit pair read from list query strings
type PaginationParams struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// PaginationMeta describes the page returned alongside a list
type PaginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int   `json:"totalPages"`
	HasMore    bool  `json:"hasMore"`
}

// GetPaginationParams clamps page to at least 1 and limit to at least 0.
// A zero limit means "not set"; see Bounded.
func GetPaginationParams(page, limit int) PaginationParams {
	return PaginationParams{Page: max(page, 1), Limit: max(limit, 0)}
}

// Bounded replaces an unset limit with defaultLimit and caps it at maxLimit
// when maxLimit is positive.
func (p PaginationParams) Bounded(defaultLimit, maxLimit int) PaginationParams {
	if p.Limit == 0 {
		p.Limit = defaultLimit
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// CalculateOffset returns the number of rows to skip for p
func (p PaginationParams) CalculateOffset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// CalculateMeta builds the page description for totalCount rows. A
// non-positive limit describes a single page holding every row.
func CalculateMeta(totalCount int64, page, limit int) PaginationMeta {
	if totalCount < 0 {
		totalCount = 0
	}
	if limit <= 0 {
		return PaginationMeta{Page: 1, Limit: int(totalCount), TotalCount: totalCount, TotalPages: 1}
	}

	totalPages := int((totalCount + int64(limit) - 1) / int64(limit))
	return PaginationMeta{
		Page:       page,
		Limit:      limit,
		TotalCount: totalCount,
		TotalPages: totalPages,
		HasMore:    page < totalPages,
	}
}
