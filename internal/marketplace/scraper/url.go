package scraper

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/lk2023060901/mercari-shopper-backend/internal/marketplace/types"
)

// SearchURL builds the marketplace search URL for a filter. Unset fields are
// omitted entirely: absence means "no constraint", never "constrain to zero".
func SearchURL(baseURL string, filter types.SearchFilter) string {
	params := url.Values{}
	params.Set("keyword", filter.Keyword)

	if filter.ExcludeKeyword != "" {
		params.Set("exclude_keyword", filter.ExcludeKeyword)
	}
	if v := filter.Sort.QueryValue(); v != "" {
		params.Set("sort", v)
	}
	if v := filter.Order.QueryValue(); v != "" {
		params.Set("order", v)
	}
	if filter.PriceMin > 0 {
		params.Set("price_min", strconv.Itoa(filter.PriceMin))
	}
	if filter.PriceMax > 0 {
		params.Set("price_max", strconv.Itoa(filter.PriceMax))
	}
	if len(filter.ItemConditionID) > 0 {
		params.Set("item_condition_id", strings.Join(filter.ItemConditionID, ","))
	}
	if len(filter.CategoryID) > 0 {
		params.Set("category_id", strings.Join(filter.CategoryID, ","))
	}

	return baseURL + "/search?" + params.Encode()
}
