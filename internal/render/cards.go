// Package render turns featured products into the cards shown on the public top picks
// page.
package render

import (
	"strconv"
	"strings"

	"shopguide/internal/models"
)

type Card struct {
	ID    string
	Title string
	// Description is set for single-line descriptions, Bullets otherwise.
	Description string
	Bullets     []string
	Price       string
	Link        string
	Category    string
	Rank        int
	// ImageURL is empty when the product only has a glyph. Glyph is always set and
	// doubles as the fallback when the image fails to load.
	ImageURL string
	Glyph    string
}

// Cards sorts by rank ascending and keeps at most models.MaxTopPicks entries. The input
// slice is not modified.
func Cards(products []models.Product) []Card {
	sorted := make([]models.Product, len(products))
	copy(sorted, products)
	models.SortByRank(sorted)
	if len(sorted) > models.MaxTopPicks {
		sorted = sorted[:models.MaxTopPicks]
	}

	cards := make([]Card, 0, len(sorted))
	for _, p := range sorted {
		cards = append(cards, NewCard(p))
	}
	return cards
}

func NewCard(p models.Product) Card {
	card := Card{
		ID:       p.ID.Hex(),
		Title:    p.Title,
		Price:    FormatPrice(p.Price),
		Link:     p.Link,
		Category: string(p.Category),
		Rank:     p.Rank,
		Glyph:    models.DefaultImage,
	}

	lines := DescriptionLines(p.Description)
	if len(lines) > 1 {
		card.Bullets = lines
	} else if len(lines) == 1 {
		card.Description = lines[0]
	}

	image := strings.TrimSpace(p.Image)
	switch {
	case models.IsImageURL(image):
		card.ImageURL = image
	case image != "":
		card.Glyph = image
	}
	return card
}

// FormatPrice prefixes a bare number with "$" and leaves anything else alone.
func FormatPrice(price string) string {
	trimmed := strings.TrimSpace(price)
	if trimmed == "" {
		return ""
	}
	if trimmed[0] < '0' || trimmed[0] > '9' {
		return trimmed
	}
	if _, err := strconv.ParseFloat(strings.ReplaceAll(trimmed, ",", ""), 64); err != nil {
		return trimmed
	}
	return "$" + trimmed
}

// DescriptionLines splits on newlines and drops blank lines.
func DescriptionLines(description string) []string {
	raw := strings.Split(strings.ReplaceAll(description, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
