package common

// ApiResponse is the uniform success envelope for every endpoint.
type ApiResponse struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

func NewApiResponse(statusCode int, data interface{}, message string) *ApiResponse {
	return &ApiResponse{
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
		Success:    true,
	}
}

// ErrorEnvelope is the wire form of a failed request.
type ErrorEnvelope struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

func NewErrorEnvelope(apiErr *ApiError) *ErrorEnvelope {
	errs := apiErr.Errors
	if errs == nil {
		errs = []string{}
	}
	return &ErrorEnvelope{
		StatusCode: apiErr.StatusCode,
		Message:    apiErr.Message,
		Success:    false,
		Errors:     errs,
	}
}
