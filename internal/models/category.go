package models

import "strings"

type Category string

const (
	CategoryTech      Category = "Tech"
	CategoryBeauty    Category = "Beauty"
	CategoryWellness  Category = "Wellness"
	CategoryHome      Category = "Home"
	CategoryFashion   Category = "Fashion"
	CategoryFitness   Category = "Fitness"
	CategoryLifestyle Category = "Lifestyle"
	CategoryOther     Category = "Other"
)

// Categories lists every accepted category in display order.
var Categories = []Category{
	CategoryTech,
	CategoryBeauty,
	CategoryWellness,
	CategoryHome,
	CategoryFashion,
	CategoryFitness,
	CategoryLifestyle,
	CategoryOther,
}

// ParseCategory matches value case-insensitively against the fixed set and returns the
// canonical spelling.
func ParseCategory(value string) (Category, bool) {
	trimmed := strings.TrimSpace(value)
	for _, c := range Categories {
		if strings.EqualFold(string(c), trimmed) {
			return c, true
		}
	}
	return "", false
}

// CategoryStat is one row of the per-category product count.
type CategoryStat struct {
	Category Category `bson:"_id" json:"_id"`
	Count    int64    `bson:"count" json:"count"`
}
