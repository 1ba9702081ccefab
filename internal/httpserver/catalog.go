package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/robotech_store/internal/catalog"
	"github.com/Skotchmaster/robotech_store/internal/service"
	"github.com/Skotchmaster/robotech_store/internal/transport"
	"github.com/Skotchmaster/robotech_store/internal/util"
	"github.com/Skotchmaster/robotech_store/pkg/logging"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func paging(c echo.Context) (page, limit int, reason string, err error) {
	page, err = util.ParseIntDefault(c.QueryParam("page"), 1)
	if err != nil {
		return 0, 0, "page must be an integer", err
	}
	limit, err = util.ParseIntDefault(c.QueryParam("limit"), catalog.DefaultLimit)
	if err != nil {
		return 0, 0, "limit must be an integer", err
	}
	return page, limit, "", nil
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_products")

	page, limit, reason, err := paging(c)
	if err != nil {
		return badRequest(l, "get_products_error", reason, err)
	}
	featured, err := util.ParseOptionalBool(c.QueryParam("featured"))
	if err != nil {
		return badRequest(l, "get_products_error", "featured must be true or false", err)
	}

	res, err := h.Svc.Query(ctx, catalog.Filter{
		Category: c.QueryParam("category"),
		Search:   c.QueryParam("search"),
		Featured: featured,
		Sort:     catalog.Sort(c.QueryParam("sort")),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return fail(l, "get_products_error", err)
	}

	return c.JSON(http.StatusOK, transport.NewProductsPage(res))
}

func (h *CatalogHTTP) ProductsByIDs(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.products_by_ids")

	var req transport.ByIDsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "products_by_ids_error", "invalid body", err)
	}

	items, err := h.Svc.ByIDs(ctx, req.Ints())
	if err != nil {
		return fail(l, "products_by_ids_error", err)
	}

	return c.JSON(http.StatusOK, transport.ProductsResponse{Success: true, Products: transport.NewProducts(items)})
}

func (h *CatalogHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.search")

	page, limit, reason, err := paging(c)
	if err != nil {
		return badRequest(l, "search_error", reason, err)
	}

	res, err := h.Svc.Search(ctx, c.QueryParam("q"), page, limit)
	if err != nil {
		return fail(l, "search_error", err)
	}

	return c.JSON(http.StatusOK, transport.NewProductsPage(res))
}
