package types

// SortType enumerates the marketplace sort keys accepted by the search tool.
type SortType string

const (
	SortCreatedTime SortType = "SORT_CREATED_TIME"
	SortScore       SortType = "SORT_SCORE"
	SortPrice       SortType = "SORT_PRICE"
	SortNumLikes    SortType = "SORT_NUM_LIKES"
)

// OrderType enumerates sort directions.
type OrderType string

const (
	OrderDesc OrderType = "ORDER_DESC"
	OrderAsc  OrderType = "ORDER_ASC"
)

// QueryValue maps the tool-schema sort token to the marketplace query value.
// Unknown tokens map to "" and are omitted from the query.
func (s SortType) QueryValue() string {
	switch s {
	case SortCreatedTime:
		return "created_time"
	case SortScore:
		return "score"
	case SortPrice:
		return "price"
	case SortNumLikes:
		return "num_likes"
	}
	return ""
}

// QueryValue maps the order token to the marketplace query value.
func (o OrderType) QueryValue() string {
	switch o {
	case OrderDesc:
		return "desc"
	case OrderAsc:
		return "asc"
	}
	return ""
}

// ConditionLabels maps marketplace item-condition codes to their Japanese
// labels, as shown in the search UI.
var ConditionLabels = map[string]string{
	"1": "新品、未使用",
	"2": "未使用に近い",
	"3": "目立った傷や汚れなし",
	"4": "やや傷や汚れあり",
	"5": "傷や汚れあり",
	"6": "全体的に状態が悪い",
}

// SearchFilter is the structured search request decoded from the LLM's tool
// call. Keyword is required and must already be in Japanese (translation is
// the model's job). Every other field is optional; zero values mean "no
// constraint" and are omitted from both the tool JSON and the marketplace
// query string, never sent as zeroes.
type SearchFilter struct {
	Keyword         string    `json:"keyword"`
	ExcludeKeyword  string    `json:"excludeKeyword,omitempty"`
	Sort            SortType  `json:"sort,omitempty"`
	Order           OrderType `json:"order,omitempty"`
	PriceMin        int       `json:"priceMin,omitempty"`
	PriceMax        int       `json:"priceMax,omitempty"`
	ItemConditionID []string  `json:"itemConditionId,omitempty"`
	CategoryID      []string  `json:"categoryId,omitempty"`
}
