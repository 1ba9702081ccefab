package catalog

import (
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/robotech_store/internal/models"
)

type FieldChange struct {
	ID    int    `json:"id"`
	Field string `json:"field"`
	Want  string `json:"want"`
	Got   string `json:"got"`
}

// Drift is the difference between the catalog and what a backend actually holds.
type Drift struct {
	Missing    []int         `json:"missing"`
	Unexpected []int         `json:"unexpected"`
	Changed    []FieldChange `json:"changed"`
}

func (d Drift) Clean() bool {
	return len(d.Missing) == 0 && len(d.Unexpected) == 0 && len(d.Changed) == 0
}

func Diff(want, got []models.Product) Drift {
	gotByID := make(map[int]models.Product, len(got))
	for _, p := range got {
		gotByID[p.ID] = p
	}
	wantIDs := make(map[int]struct{}, len(want))

	d := Drift{Missing: []int{}, Unexpected: []int{}, Changed: []FieldChange{}}
	for _, w := range want {
		wantIDs[w.ID] = struct{}{}
		g, ok := gotByID[w.ID]
		if !ok {
			d.Missing = append(d.Missing, w.ID)
			continue
		}
		d.Changed = append(d.Changed, compare(w, g)...)
	}
	for _, g := range got {
		if _, ok := wantIDs[g.ID]; !ok {
			d.Unexpected = append(d.Unexpected, g.ID)
		}
	}

	sort.Ints(d.Missing)
	sort.Ints(d.Unexpected)
	sort.SliceStable(d.Changed, func(i, j int) bool { return d.Changed[i].ID < d.Changed[j].ID })
	return d
}

func compare(w, g models.Product) []FieldChange {
	var out []FieldChange
	add := func(field, want, got string) {
		if want != got {
			out = append(out, FieldChange{ID: w.ID, Field: field, Want: want, Got: got})
		}
	}
	add("name", w.Name, g.Name)
	add("description", w.Description, g.Description)
	add("category", w.Category, g.Category)
	add("image_url", w.ImageURL, g.ImageURL)
	add("stock_quantity", strconv.Itoa(w.StockQuantity), strconv.Itoa(g.StockQuantity))
	add("is_featured", strconv.FormatBool(w.IsFeatured), strconv.FormatBool(g.IsFeatured))
	if !w.Price.Equal(g.Price) {
		out = append(out, FieldChange{ID: w.ID, Field: "price", Want: w.Price.StringFixed(2), Got: g.Price.StringFixed(2)})
	}
	return out
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type Summary struct {
	Total      int             `json:"total"`
	Featured   int             `json:"featured"`
	Categories []CategoryCount `json:"categories"`
	// StockValue is the sum of price times stock quantity.
	StockValue decimal.Decimal `json:"stock_value"`
}

func Summarize(products []models.Product) Summary {
	counts := map[string]int{}
	s := Summary{Total: len(products), StockValue: decimal.Zero}
	for _, p := range products {
		counts[p.Category]++
		if p.IsFeatured {
			s.Featured++
		}
		s.StockValue = s.StockValue.Add(p.Price.Mul(decimal.NewFromInt(int64(p.StockQuantity))))
	}
	s.Categories = make([]CategoryCount, 0, len(counts))
	for c, n := range counts {
		s.Categories = append(s.Categories, CategoryCount{Category: c, Count: n})
	}
	sort.Slice(s.Categories, func(i, j int) bool { return s.Categories[i].Category < s.Categories[j].Category })
	return s
}
