package tier

import "github.com/nmarks/cardrank/internal/models"

// Matches reports whether a card is eligible for a ranking with the given
// filters. The card must carry every required category id, and when a rating
// threshold is set its rating must compare per the filter's operator. Nil or
// empty filters match every card.
func Matches(card *models.Card, filters *models.RankingFilters) bool {
	if filters == nil {
		return true
	}
	for _, id := range filters.CategoryIDs {
		if !card.HasCategory(id) {
			return false
		}
	}
	if filters.Rating == nil {
		return true
	}
	rating := card.Rating
	switch filters.RatingParam {
	case models.RatingLTE:
		return rating <= *filters.Rating
	case models.RatingGTE:
		return rating >= *filters.Rating
	default: // eq
		return rating == *filters.Rating
	}
}
