package biz

import (
	"encoding/json"

	mtypes "github.com/lk2023060901/mercari-shopper-backend/internal/marketplace/types"
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/tidwall/gjson"
)

// SearchToolName is the single tool exposed to the model.
const SearchToolName = "mercari_search"

// searchTool builds the function-calling schema for the search tool. The
// schema mirrors SearchFilter: keyword required, everything else optional
// and omitted (not zeroed) when the user did not mention it.
func searchTool() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name: SearchToolName,
			Description: "Search Mercari for products based on user criteria. " +
				"Returns a top recommended list of products. " +
				"Only include parameters that are explicitly mentioned or implied in the user's request. " +
				"Do not generate or fill in any parameters that the user did not mention. " +
				"Leave all other parameters unset. " +
				"Infer filters strictly from the user's input.",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"keyword": {
						Type:        jsonschema.String,
						Description: "Search keyword(s). Should be in Japanese.",
					},
					"excludeKeyword": {
						Type:        jsonschema.String,
						Description: "Exclude keyword(s)",
					},
					"sort": {
						Type:        jsonschema.String,
						Description: "Sort type. One of: SORT_CREATED_TIME, SORT_SCORE, SORT_PRICE, SORT_NUM_LIKES",
						Enum:        []string{"SORT_CREATED_TIME", "SORT_SCORE", "SORT_PRICE", "SORT_NUM_LIKES"},
					},
					"order": {
						Type:        jsonschema.String,
						Description: "Order type, e.g. ORDER_DESC, ORDER_ASC",
						Enum:        []string{"ORDER_DESC", "ORDER_ASC"},
					},
					"priceMin": {
						Type:        jsonschema.Integer,
						Description: "Minimum price",
					},
					"priceMax": {
						Type:        jsonschema.Integer,
						Description: "Maximum price",
					},
					"itemConditionId": {
						Type: jsonschema.Array,
						Items: &jsonschema.Definition{
							Type: jsonschema.String,
							Enum: []string{"1", "2", "3", "4", "5", "6"},
						},
						Description: "Item condition: 1=新品・未使用, 2=未使用に近い, 3=目立った傷や汚れなし, " +
							"4=やや傷や汚れあり, 5=傷や汚れあり, 6=全体的に状態が悪い",
					},
				},
				Required: []string{"keyword"},
			},
		},
	}
}

// decodeFilter turns the tool-call argument JSON into a SearchFilter. A
// malformed payload is not fatal: each field that can be salvaged is, and
// the rest stay unset ("no constraint"), per the tool-argument decode policy.
func decodeFilter(args string) mtypes.SearchFilter {
	var filter mtypes.SearchFilter
	if err := json.Unmarshal([]byte(args), &filter); err == nil {
		return filter
	}

	// Strict decode failed; salvage fields individually from whatever JSON
	// fragments are present.
	filter = mtypes.SearchFilter{}
	filter.Keyword = gjson.Get(args, "keyword").String()
	filter.ExcludeKeyword = gjson.Get(args, "excludeKeyword").String()
	filter.Sort = mtypes.SortType(gjson.Get(args, "sort").String())
	filter.Order = mtypes.OrderType(gjson.Get(args, "order").String())
	filter.PriceMin = int(gjson.Get(args, "priceMin").Int())
	filter.PriceMax = int(gjson.Get(args, "priceMax").Int())
	for _, v := range gjson.Get(args, "itemConditionId").Array() {
		if s := v.String(); s != "" {
			filter.ItemConditionID = append(filter.ItemConditionID, s)
		}
	}
	for _, v := range gjson.Get(args, "categoryId").Array() {
		if s := v.String(); s != "" {
			filter.CategoryID = append(filter.CategoryID, s)
		}
	}
	return filter
}
