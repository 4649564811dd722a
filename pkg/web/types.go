// Package web provides HTTP request and response types for the Platewise API.
package web

// StartGenerationRequest represents the request body for starting a recipe
// generation run against a meal plan.
type StartGenerationRequest struct {
	Query string `json:"query" validate:"required,min=3"`
}

// GenerationAcceptedResponse is returned when a run has been admitted but has
// not yet resolved.
type GenerationAcceptedResponse struct {
	RunID    string `json:"run_id"`
	PlanID   string `json:"plan_id"`
	Status   string `json:"status"`
	StatusAt string `json:"status_url"`
}
