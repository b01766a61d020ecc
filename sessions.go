package specstory

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

// SessionsService talks to the session endpoints of a project.
type SessionsService struct {
	client *Client
}

// SessionWriteParams is the payload for Write. Name, Markdown and RawData
// are required by the API; the rest is optional.
type SessionWriteParams struct {
	Name     string
	Markdown string
	RawData  string
	Metadata *SessionMetadata

	// ProjectName lets the server create the project on first write.
	ProjectName string

	// IdempotencyKey makes retries of this write safe to replay. Left
	// empty, the client generates one.
	IdempotencyKey string
}

// SessionReadOptions tunes Read.
type SessionReadOptions struct {
	// IfNoneMatch sends the validator of a copy the caller already holds;
	// Read returns ErrNotModified when that copy is still current.
	IfNoneMatch string
}

// List returns the sessions recorded for a project.
func (s *SessionsService) List(ctx context.Context, projectID string) ([]Session, error) {
	body, err := s.client.do(ctx, http.MethodGet, sessionsPath(projectID), nil, nil)
	if err != nil {
		return nil, err
	}
	var sessions []Session
	if err := unmarshalEnvelope(body, "data.sessions", &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Read fetches a single session, including its markdown content.
func (s *SessionsService) Read(ctx context.Context, projectID, sessionID string, opts *SessionReadOptions) (*Session, error) {
	var ro requestOptions
	if opts != nil && opts.IfNoneMatch != "" {
		ro.headers = map[string]string{"If-None-Match": opts.IfNoneMatch}
	}
	body, err := s.client.do(ctx, http.MethodGet, sessionsPath(projectID)+"/"+url.PathEscape(sessionID), nil, &ro)
	if err != nil {
		return nil, err
	}
	return decodeSession(body)
}

// Write uploads a session. The call is a PUT carrying an Idempotency-Key,
// so the server-side 5xx retry path never duplicates sessions. Cached reads
// under the project's session tree are invalidated on success.
func (s *SessionsService) Write(ctx context.Context, projectID string, params SessionWriteParams) (*Session, error) {
	key := params.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}

	payload := map[string]any{
		"name":     params.Name,
		"markdown": params.Markdown,
		"rawData":  params.RawData,
	}
	if params.Metadata != nil {
		payload["metadata"] = params.Metadata
	}
	if params.ProjectName != "" {
		payload["projectName"] = params.ProjectName
	}

	path := sessionsPath(projectID)
	body, err := s.client.do(ctx, http.MethodPut, path, payload, &requestOptions{idempotencyKey: key})
	if err != nil {
		return nil, err
	}

	// The write staled the session list and any cached session reads.
	s.client.cache.InvalidatePrefix(http.MethodGet + " " + path)

	return decodeSession(body)
}

func sessionsPath(projectID string) string {
	return "/api/v1/projects/" + url.PathEscape(projectID) + "/sessions"
}
