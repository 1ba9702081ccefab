package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Skotchmaster/robotech_store/internal/models"
)

type Sort string

const (
	SortName      Sort = "name"
	SortPriceLow  Sort = "price_low"
	SortPriceHigh Sort = "price_high"
	SortNewest    Sort = "newest"
)

const (
	DefaultLimit = 6
	MaxLimit     = 100

	// AllCategories in a filter means no category restriction.
	AllCategories = "all"
)

var ErrInvalidFilter = errors.New("invalid filter")

// ParseSort maps unknown values to name ordering.
func ParseSort(s string) Sort {
	switch v := Sort(strings.ToLower(strings.TrimSpace(s))); v {
	case SortPriceLow, SortPriceHigh, SortNewest:
		return v
	default:
		return SortName
	}
}

type Filter struct {
	Category string
	Search   string
	Featured *bool
	Sort     Sort
	Page     int
	Limit    int
}

type Page struct {
	Items      []models.Product
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// Normalize validates paging and canonicalizes the text filters. Both query paths call it first.
func (f Filter) Normalize() (Filter, error) {
	if f.Page < 1 {
		return f, fmt.Errorf("%w: page must be >= 1, got %d", ErrInvalidFilter, f.Page)
	}
	if f.Limit < 1 || f.Limit > MaxLimit {
		return f, fmt.Errorf("%w: limit must be between 1 and %d, got %d", ErrInvalidFilter, MaxLimit, f.Limit)
	}
	f.Category = strings.TrimSpace(f.Category)
	if strings.EqualFold(f.Category, AllCategories) {
		f.Category = ""
	}
	f.Search = strings.ToLower(strings.TrimSpace(f.Search))
	f.Sort = ParseSort(string(f.Sort))
	return f, nil
}

func (f Filter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// TotalPages is ceil(total/limit) in integer arithmetic; limit must be positive.
func TotalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

func NewPage(f Filter, total int64, items []models.Product) Page {
	if items == nil {
		items = []models.Product{}
	}
	return Page{
		Items:      items,
		Total:      total,
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: TotalPages(total, f.Limit),
	}
}

// Matches reports whether p passes a normalized filter.
func (f Filter) Matches(p models.Product) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Featured != nil && p.IsFeatured != *f.Featured {
		return false
	}
	if f.Search != "" &&
		!strings.Contains(strings.ToLower(p.Name), f.Search) &&
		!strings.Contains(strings.ToLower(p.Description), f.Search) {
		return false
	}
	return true
}

// Less orders two products for f.Sort, breaking ties by ascending id.
func (f Filter) Less(a, b models.Product) bool {
	switch f.Sort {
	case SortNewest:
		return a.ID > b.ID
	case SortPriceLow:
		if c := a.Price.Cmp(b.Price); c != 0 {
			return c < 0
		}
	case SortPriceHigh:
		if c := a.Price.Cmp(b.Price); c != 0 {
			return c > 0
		}
	default:
		if a.Name != b.Name {
			return a.Name < b.Name
		}
	}
	return a.ID < b.ID
}

// Query filters, sorts and paginates the fixed catalog.
func (c *Catalog) Query(f Filter) (Page, error) {
	f, err := f.Normalize()
	if err != nil {
		return Page{}, err
	}

	matched := make([]models.Product, 0, len(c.products))
	for _, p := range c.products {
		if f.Matches(p) {
			matched = append(matched, p)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return f.Less(matched[i], matched[j]) })

	total := int64(len(matched))
	start := f.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	items := make([]models.Product, end-start)
	copy(items, matched[start:end])

	return NewPage(f, total, items), nil
}
