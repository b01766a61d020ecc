package specstory

import (
	"context"
	"net/http"
)

// ProjectsService talks to the project endpoints.
type ProjectsService struct {
	client *Client
}

// List returns every project the API key can see.
func (s *ProjectsService) List(ctx context.Context) ([]Project, error) {
	body, err := s.client.do(ctx, http.MethodGet, "/api/v1/projects", nil, nil)
	if err != nil {
		return nil, err
	}
	var projects []Project
	if err := unmarshalEnvelope(body, "data.projects", &projects); err != nil {
		return nil, err
	}
	return projects, nil
}
