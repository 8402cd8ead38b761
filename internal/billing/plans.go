package billing

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/suteetoe/rfitrack/internal/model"
	"gopkg.in/yaml.v3"
)

// Plan is one purchasable subscription tier
type Plan struct {
	ID       model.SubscriptionTier `json:"id"`
	Name     string                 `json:"name"`
	Price    int                    `json:"price"`
	Seats    int                    `json:"seats"` // 0 means unlimited
	PriceID  string                 `json:"price_id"`
	Features []string               `json:"features"`
}

// PriceIDs maps tiers to processor price identifiers
type PriceIDs struct {
	Starter string
	Pro     string
	Team    string
}

// Catalog is the immutable set of plans, built once at startup
type Catalog struct {
	plans []Plan
}

// planOverride is the YAML shape of a catalog override file
type planOverride struct {
	Name     *string  `yaml:"name"`
	Price    *int     `yaml:"price"`
	Seats    *int     `yaml:"seats"`
	PriceID  *string  `yaml:"price_id"`
	Features []string `yaml:"features"`
}

// DefaultCatalog returns the built-in starter/pro/team plans
func DefaultCatalog(prices PriceIDs) *Catalog {
	return &Catalog{plans: []Plan{
		{
			ID:      model.TierStarter,
			Name:    "Starter",
			Price:   199,
			Seats:   1,
			PriceID: prices.Starter,
			Features: []string{
				"1 team member",
				"Unlimited projects",
				"RFI tracking",
				"Basic reports",
				"Email support",
			},
		},
		{
			ID:      model.TierPro,
			Name:    "Pro",
			Price:   349,
			Seats:   5,
			PriceID: prices.Pro,
			Features: []string{
				"Up to 5 team members",
				"Unlimited projects",
				"RFI tracking",
				"Photo attachments",
				"PDF export",
				"Priority support",
			},
		},
		{
			ID:      model.TierTeam,
			Name:    "Team",
			Price:   499,
			Seats:   0,
			PriceID: prices.Team,
			Features: []string{
				"Unlimited team members",
				"Unlimited projects",
				"RFI tracking",
				"Photo attachments",
				"PDF export",
				"Custom branding",
				"API access",
				"Dedicated support",
			},
		},
	}}
}

// LoadCatalog builds the default catalog and applies the YAML overrides at path, if any
func LoadCatalog(path string, prices PriceIDs) (*Catalog, error) {
	catalog := DefaultCatalog(prices)
	if path == "" {
		return catalog, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan catalog: %w", err)
	}

	var overrides map[string]planOverride
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse plan catalog: %w", err)
	}

	for key, o := range overrides {
		idx := catalog.index(model.SubscriptionTier(key))
		if idx < 0 {
			return nil, fmt.Errorf("plan catalog: unknown plan %q", key)
		}
		p := &catalog.plans[idx]
		if o.Name != nil {
			p.Name = *o.Name
		}
		if o.Price != nil {
			p.Price = *o.Price
		}
		if o.Seats != nil {
			p.Seats = *o.Seats
		}
		if o.PriceID != nil {
			p.PriceID = *o.PriceID
		}
		if o.Features != nil {
			p.Features = o.Features
		}
	}
	return catalog, nil
}

func (c *Catalog) index(tier model.SubscriptionTier) int {
	for i := range c.plans {
		if c.plans[i].ID == tier {
			return i
		}
	}
	return -1
}

// Lookup returns the plan for a tier name
func (c *Catalog) Lookup(tier string) (Plan, bool) {
	idx := c.index(model.SubscriptionTier(tier))
	if idx < 0 {
		return Plan{}, false
	}
	return c.plans[idx], true
}

// Plans returns a copy of the plans in display order
func (c *Catalog) Plans() []Plan {
	out := make([]Plan, len(c.plans))
	copy(out, c.plans)
	return out
}

// JSON renders the catalog as indented JSON in display order
func (c *Catalog) JSON() ([]byte, error) {
	return json.MarshalIndent(c.plans, "", "  ")
}
