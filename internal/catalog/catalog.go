// Package catalog holds the immutable service catalog. Bookings snapshot the
// price and product name from here at reserve time; payment hashes are always
// computed from the catalog values, never from anything the client echoes back.
package catalog

import (
	"errors"
	"fmt"
)

var ErrUnknownService = errors.New("unknown service")

type Service struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Price         int64  `json:"price"` // whole INR
	OriginalPrice int64  `json:"original_price"`
	Description   string `json:"description"`
}

type Category struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	NamePrefix string    `json:"name_prefix,omitempty"`
	Items      []Service `json:"items"`
}

const Currency = "INR"

var categories = []Category{
	{
		ID:    "kundali",
		Title: "Kundali Services",
		Items: []Service{
			{ID: "k1", Name: "Kundali Matching", Price: 300, OriginalPrice: 600, Description: "Ensure harmonious marriage with expert chart analysis."},
			{ID: "k2", Name: "Kundali Making", Price: 300, OriginalPrice: 600, Description: "Get accurate personal horoscopes from birth details."},
			{ID: "k3", Name: "Kundali Reading", Price: 300, OriginalPrice: 600, Description: "Uncover personality traits and future life path."},
		},
	},
	{
		ID:         "astrology",
		Title:      "Astrology Services",
		NamePrefix: "Astrology for",
		Items: []Service{
			{ID: "a1", Name: "Career Growth", Price: 200, OriginalPrice: 400, Description: "Find suitable careers and timing for professional growth."},
			{ID: "a2", Name: "Education", Price: 200, OriginalPrice: 400, Description: "Boost academic focus and choose best study fields."},
			{ID: "a3", Name: "Family Problems", Price: 249, OriginalPrice: 500, Description: "Resolve conflicts for a peaceful domestic environment."},
			{ID: "a4", Name: "Financial Gain", Price: 200, OriginalPrice: 400, Description: "Maximize wealth with strategic planetary alignment advice."},
			{ID: "a5", Name: "Health", Price: 200, OriginalPrice: 400, Description: "Identify health risks and remedies for well-being."},
			{ID: "a6", Name: "Love Problems", Price: 200, OriginalPrice: 400, Description: "Restore harmony and compatibility in romantic relationships."},
			{ID: "a7", Name: "Wealth", Price: 300, OriginalPrice: 600, Description: "Overcome financial blocking and attract long-term prosperity."},
		},
	},
	{
		ID:         "vastu",
		Title:      "Vastu Shastra Services",
		NamePrefix: "Vastu Consultant for",
		Items: []Service{
			{ID: "v1", Name: "Residence", Price: 200, OriginalPrice: 400, Description: "Optimize home layout for peace and positive energy."},
			{ID: "v2", Name: "Construction", Price: 500, OriginalPrice: 1000, Description: "Align new structures with natural energies from foundation."},
			{ID: "v3", Name: "Education Spaces", Price: 500, OriginalPrice: 1000, Description: "Design spaces that improve concentration and academic success."},
			{ID: "v4", Name: "Marriage Venues", Price: 200, OriginalPrice: 400, Description: "Ensure auspicious and happy atmosphere for wedding venues."},
			{ID: "v5", Name: "Plots", Price: 200, OriginalPrice: 400, Description: "Assess land orientation for a prosperous strong foundation."},
			{ID: "v6", Name: "Relationships", Price: 499, OriginalPrice: 1000, Description: "Adjust home environment to strengthen family bonds."},
			{ID: "v7", Name: "Temples", Price: 399, OriginalPrice: 800, Description: "Maximize spiritual energy in your sacred worship space."},
			{ID: "v8", Name: "Wealth", Price: 500, OriginalPrice: 1000, Description: "Unblock financial stagnation and attract abundance at home."},
			{ID: "v9", Name: "Property Development", Price: 500, OriginalPrice: 1000, Description: "Prosperity guidance for buying, selling, or renovating."},
		},
	},
}

func Categories() []Category { return categories }

// Find returns the catalog entry for (categoryID, serviceID).
func Find(categoryID, serviceID string) (Category, Service, error) {
	for _, c := range categories {
		if c.ID != categoryID {
			continue
		}
		for _, s := range c.Items {
			if s.ID == serviceID {
				return c, s, nil
			}
		}
	}
	return Category{}, Service{}, fmt.Errorf("%w: %s/%s", ErrUnknownService, categoryID, serviceID)
}

// FormatAmount renders a price the way it is sent to the processor. The same
// string is used in the hash and in the form post; any drift between the two
// makes the processor reject the hash.
func FormatAmount(price int64) string {
	return fmt.Sprintf("%d.00", price)
}
