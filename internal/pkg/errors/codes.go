package errors

import (
	"fmt"
	"net/http"
)

// Code represents an error code with HTTP status and message
type Code struct {
	Code    int    // Business error code
	Status  int    // HTTP status code
	Message string // Error message
}

// Error codes for different modules
const (
	// Success
	Success = 0

	// Common errors (1000-1999)
	ErrInternalServer = 1000
	ErrInvalidParams  = 1001
	ErrNotFound       = 1002
	ErrBadRequest     = 1003
	ErrServiceUnavail = 1004
	ErrMissingAPIKey  = 1005

	// Marketplace errors (2000-2999)
	ErrMarketplaceSearch      = 2000
	ErrMarketplaceDetail      = 2001
	ErrMarketplaceTimeout     = 2002
	ErrMarketplaceParse       = 2003
	ErrMarketplaceUnavailable = 2004

	// LLM errors (3000-3999)
	ErrLLMRequest       = 3000
	ErrLLMEmptyResponse = 3001
	ErrLLMDecode        = 3002

	// Agent errors (4000-4999)
	ErrAgentInvalidInput = 4000
	ErrAgentUnknownTool  = 4001
	ErrAgentRoundLimit   = 4002
)

// codeMap maps error codes to their details
var codeMap = map[int]Code{
	Success: {Success, http.StatusOK, "Success"},

	// Common errors
	ErrInternalServer: {ErrInternalServer, http.StatusInternalServerError, "Internal server error"},
	ErrInvalidParams:  {ErrInvalidParams, http.StatusBadRequest, "Invalid parameters"},
	ErrNotFound:       {ErrNotFound, http.StatusNotFound, "Resource not found"},
	ErrBadRequest:     {ErrBadRequest, http.StatusBadRequest, "Bad request"},
	ErrServiceUnavail: {ErrServiceUnavail, http.StatusServiceUnavailable, "Service unavailable"},
	ErrMissingAPIKey:  {ErrMissingAPIKey, http.StatusInternalServerError, "OpenAI API key is not configured"},

	// Marketplace errors
	ErrMarketplaceSearch:      {ErrMarketplaceSearch, http.StatusBadGateway, "Marketplace search failed"},
	ErrMarketplaceDetail:      {ErrMarketplaceDetail, http.StatusBadGateway, "Item detail fetch failed"},
	ErrMarketplaceTimeout:     {ErrMarketplaceTimeout, http.StatusGatewayTimeout, "Marketplace request timed out"},
	ErrMarketplaceParse:       {ErrMarketplaceParse, http.StatusBadGateway, "Marketplace page parse failed"},
	ErrMarketplaceUnavailable: {ErrMarketplaceUnavailable, http.StatusServiceUnavailable, "Marketplace client unavailable"},

	// LLM errors
	ErrLLMRequest:       {ErrLLMRequest, http.StatusBadGateway, "LLM request failed"},
	ErrLLMEmptyResponse: {ErrLLMEmptyResponse, http.StatusBadGateway, "LLM returned an empty response"},
	ErrLLMDecode:        {ErrLLMDecode, http.StatusBadGateway, "LLM response decode failed"},

	// Agent errors
	ErrAgentInvalidInput: {ErrAgentInvalidInput, http.StatusBadRequest, "Invalid agent input"},
	ErrAgentUnknownTool:  {ErrAgentUnknownTool, http.StatusBadGateway, "Unknown tool invocation"},
	ErrAgentRoundLimit:   {ErrAgentRoundLimit, http.StatusBadGateway, "Conversation round limit exceeded"},
}

// GetCode returns the Code for a given error code
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return codeMap[ErrInternalServer]
}

// GetHTTPStatus returns HTTP status for a given error code
func GetHTTPStatus(code int) int {
	return GetCode(code).Status
}

// GetMessage returns the message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}

// IsSuccess checks if the code represents success
func IsSuccess(code int) bool {
	return code == Success
}

// FormatError formats an error message with code
func FormatError(code int, details ...string) string {
	msg := GetMessage(code)
	if len(details) > 0 && details[0] != "" {
		return fmt.Sprintf("%s: %s", msg, details[0])
	}
	return msg
}
