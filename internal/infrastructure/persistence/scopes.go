package persistence

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// channelScope restricts a query to rows owned by the channel
func channelScope(channelID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("channel_id = ?", channelID)
	}
}

// validateSortOrder normalizes the sort order to ASC or DESC, defaulting to ASC
func validateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "desc") {
		return "DESC"
	}
	return "ASC"
}

// validateSortField checks the sort field against a whitelist and returns
// the backing column, or defaultColumn when the field is not allowed.
func validateSortField(sortField string, allowed map[string]string, defaultColumn string) string {
	if column, ok := allowed[strings.TrimSpace(sortField)]; ok {
		return column
	}
	return defaultColumn
}
