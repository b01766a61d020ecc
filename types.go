package specstory

import "time"

// Project is a SpecStory project.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	Icon      string    `json:"icon,omitempty"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SessionMetadata describes the client that produced a session.
type SessionMetadata struct {
	ClientName    string   `json:"clientName,omitempty"`
	ClientVersion string   `json:"clientVersion,omitempty"`
	AgentName     string   `json:"agentName,omitempty"`
	DeviceID      string   `json:"deviceId,omitempty"`
	GitBranches   []string `json:"gitBranches,omitempty"`
	LLMModels     []string `json:"llmModels,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

// Session is a recorded session within a project. Etag identifies the
// stored revision and can be sent back via SessionReadOptions.IfNoneMatch.
type Session struct {
	ID              string           `json:"id"`
	ProjectID       string           `json:"projectId"`
	Name            string           `json:"name"`
	MarkdownContent string           `json:"markdownContent,omitempty"`
	MarkdownSize    int64            `json:"markdownSize,omitempty"`
	RawDataSize     int64            `json:"rawDataSize,omitempty"`
	Metadata        *SessionMetadata `json:"metadata,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
	StartedAt       *time.Time       `json:"startedAt,omitempty"`
	EndedAt         *time.Time       `json:"endedAt,omitempty"`
	Etag            string           `json:"etag,omitempty"`
}

// SearchResult is a single hit from a session search.
type SearchResult struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	ProjectID string           `json:"projectId"`
	Rank      float64          `json:"rank"`
	Metadata  *SessionMetadata `json:"metadata,omitempty"`
}

// SearchResults is the payload returned by GraphQL.Search.
type SearchResults struct {
	Total   int            `json:"total"`
	Results []SearchResult `json:"results"`
}
