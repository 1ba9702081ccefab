package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Skotchmaster/robotech_store/internal/models"
)

//go:embed catalog.yaml
var embedded []byte

var ErrInvalidCatalog = errors.New("invalid catalog")

// Catalog is the fixed product set. It is read-only after Load; accessors hand out copies.
type Catalog struct {
	version  string
	products []models.Product
	index    map[int]int
}

type fileFormat struct {
	Version  string       `yaml:"version"`
	Products []fileRecord `yaml:"products"`
}

type fileRecord struct {
	ID            int    `yaml:"id"`
	Name          string `yaml:"name"`
	Description   string `yaml:"description"`
	Price         string `yaml:"price"`
	Category      string `yaml:"category"`
	StockQuantity int    `yaml:"stock_quantity"`
	ImageURL      string `yaml:"image_url"`
	IsFeatured    bool   `yaml:"is_featured"`
}

// Load parses the catalog compiled into the binary.
func Load() (*Catalog, error) {
	return Parse(embedded)
}

func Parse(data []byte) (*Catalog, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	products := make([]models.Product, 0, len(f.Products))
	for i, r := range f.Products {
		p, err := r.product()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidCatalog, i, err)
		}
		products = append(products, p)
	}
	return New(f.Version, products)
}

// New validates products and builds a catalog sorted by id.
func New(version string, products []models.Product) (*Catalog, error) {
	c := &Catalog{
		version:  strings.TrimSpace(version),
		products: make([]models.Product, len(products)),
		index:    make(map[int]int, len(products)),
	}
	copy(c.products, products)
	sort.SliceStable(c.products, func(i, j int) bool { return c.products[i].ID < c.products[j].ID })

	for i, p := range c.products {
		if err := validate(p); err != nil {
			return nil, fmt.Errorf("%w: product %d: %v", ErrInvalidCatalog, p.ID, err)
		}
		if _, dup := c.index[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrInvalidCatalog, p.ID)
		}
		c.index[p.ID] = i
	}
	return c, nil
}

func (r fileRecord) product() (models.Product, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(r.Price))
	if err != nil {
		return models.Product{}, fmt.Errorf("price %q: %v", r.Price, err)
	}
	return models.Product{
		ID:            r.ID,
		Name:          strings.TrimSpace(r.Name),
		Description:   strings.TrimSpace(r.Description),
		Price:         price,
		Category:      strings.TrimSpace(r.Category),
		StockQuantity: r.StockQuantity,
		ImageURL:      strings.TrimSpace(r.ImageURL),
		IsFeatured:    r.IsFeatured,
	}, nil
}

func validate(p models.Product) error {
	switch {
	case p.ID <= 0:
		return errors.New("id must be positive")
	case p.Name == "":
		return errors.New("name is empty")
	case p.Category == "":
		return errors.New("category is empty")
	case p.Price.IsNegative():
		return errors.New("price is negative")
	case p.StockQuantity < 0:
		return errors.New("stock is negative")
	}
	return nil
}

func (c *Catalog) Version() string { return c.version }

func (c *Catalog) Len() int { return len(c.products) }

func (c *Catalog) Products() []models.Product {
	out := make([]models.Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Catalog) Product(id int) (models.Product, bool) {
	i, ok := c.index[id]
	if !ok {
		return models.Product{}, false
	}
	return c.products[i], true
}

// ByIDs returns the known products among ids in ascending id order; unknown ids are skipped.
func (c *Catalog) ByIDs(ids []int) []models.Product {
	want := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]models.Product, 0, len(want))
	for _, p := range c.products {
		if _, ok := want[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (c *Catalog) Categories() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, p := range c.products {
		if _, ok := seen[p.Category]; !ok {
			seen[p.Category] = struct{}{}
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out
}
