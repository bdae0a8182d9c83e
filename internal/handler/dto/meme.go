package dto

// CreateMemeRequest represents the request body for creating a meme.
// ImageData, when present, is a base64 image used instead of a template.
type CreateMemeRequest struct {
	Title        string  `json:"title"`
	TopText      *string `json:"top_text,omitempty"`
	BottomText   *string `json:"bottom_text,omitempty"`
	TemplateName *string `json:"template_name,omitempty"`
	ImageData    *string `json:"image_data,omitempty"`
}

// HealthResponse is the payload of GET /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}
