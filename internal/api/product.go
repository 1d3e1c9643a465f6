package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ngoctd/storefront/internal/model"
)

// ListProducts fetches the catalog, optionally filtered by search keyword
// and category.
func (c *Client) ListProducts(ctx context.Context, keyword, category string) ([]model.Product, error) {
	params := url.Values{}
	if keyword != "" {
		params.Set("keyword", keyword)
	}
	if category != "" {
		params.Set("category", category)
	}

	path := "/products"
	if query := params.Encode(); query != "" {
		path += "?" + query
	}

	var res struct {
		Products []model.Product `json:"products"`
	}
	if err := c.do(ctx, http.MethodGet, path, "", nil, &res); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return res.Products, nil
}

// GetProduct fetches a single product. A missing product is a nil result,
// not an error; any other failure is returned.
func (c *Client) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	err := c.do(ctx, http.MethodGet, "/products/"+id, "", nil, &product)
	if err != nil {
		if errStatus(err) == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return &product, nil
}

// CreateReview submits a product review. Requires a logged-in session.
func (c *Client) CreateReview(ctx context.Context, bearer, productID string, draft model.ReviewDraft) (string, error) {
	var res struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/products/"+productID+"/reviews", bearer, draft, &res); err != nil {
		return "", fmt.Errorf("create review for %s: %w", productID, err)
	}
	return res.Message, nil
}
