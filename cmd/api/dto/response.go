package dto

// ErrorResponseDTO is the common error body.
type ErrorResponseDTO struct {
	Error string `json:"error" example:"invalid mode"`
}

type MessageResponseDTO struct {
	Message string `json:"message" example:"preferences saved"`
}
