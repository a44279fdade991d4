package utils

const pageSizeDefault = 20
const pageSizeMax = 100

// GetPaginationParams calculates the offset and limit for pagination based on the provided values.
// Nil or out-of-range values fall back to defaults, and the limit is capped.
func GetPaginationParams(offset *int, limit *int) (int, int) {
	finalOffset := 0
	finalLimit := pageSizeDefault

	if offset != nil && *offset >= 0 {
		finalOffset = *offset
	}

	if limit != nil && *limit > 0 {
		finalLimit = min(*limit, pageSizeMax)
	}

	return finalOffset, finalLimit
}
