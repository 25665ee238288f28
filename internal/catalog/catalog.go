// Package catalog holds the business facts shown on the site and handed to
// the assistant's tools.
package catalog

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

type Company struct {
	Name             string   `toml:"name" json:"name"`
	Tagline          string   `toml:"tagline" json:"tagline"`
	Phone            string   `toml:"phone" json:"phone"`
	Email            string   `toml:"email" json:"email"`
	Region           string   `toml:"region" json:"region"`
	PromoCode        string   `toml:"promo_code" json:"promo_code"`
	PromoDescription string   `toml:"promo_description" json:"promo_description"`
	Exclusions       []string `toml:"exclusions" json:"exclusions,omitempty"`
}

// Benefit is one of the service cards on the page.
type Benefit struct {
	ID          string `toml:"id" json:"id"`
	Title       string `toml:"title" json:"title"`
	Subtitle    string `toml:"subtitle" json:"subtitle"`
	Tag         string `toml:"tag" json:"tag"`
	Image       string `toml:"image" json:"image"`
	Description string `toml:"description" json:"description"`
}

type Package struct {
	Name     string   `toml:"name" json:"name"`
	Subtitle string   `toml:"subtitle" json:"subtitle"`
	Items    []string `toml:"items" json:"items"`
}

type Testimonial struct {
	Name  string `toml:"name" json:"name"`
	Role  string `toml:"role" json:"role"`
	Quote string `toml:"quote" json:"quote"`
}

type Catalog struct {
	Company      Company       `toml:"company" json:"company"`
	Benefits     []Benefit     `toml:"benefits" json:"benefits"`
	Packages     []Package     `toml:"packages" json:"packages"`
	Testimonials []Testimonial `toml:"testimonials" json:"testimonials"`
}

// Load decodes a TOML catalog. Unknown keys are rejected so typos in the
// catalog file surface at startup.
func Load(data []byte) (*Catalog, error) {
	var c Catalog
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("catalog: unknown keys %v", undecoded)
	}

	if c.Company.Name == "" {
		return nil, fmt.Errorf("catalog: company name is required")
	}

	seen := make(map[string]bool, len(c.Benefits))
	for _, b := range c.Benefits {
		if b.ID == "" {
			return nil, fmt.Errorf("catalog: benefit %q has no id", b.Title)
		}
		if seen[b.ID] {
			return nil, fmt.Errorf("catalog: duplicate benefit id %q", b.ID)
		}
		seen[b.ID] = true
	}

	return &c, nil
}

// Benefit returns the benefit with the given id.
func (c *Catalog) Benefit(id string) (Benefit, bool) {
	for _, b := range c.Benefits {
		if b.ID == id {
			return b, true
		}
	}

	return Benefit{}, false
}
