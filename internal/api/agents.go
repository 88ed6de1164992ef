package api

import (
	"context"
	"net/http"
)

// Agent is a scan agent registered with the server.
type Agent struct {
	ID               int64  `json:"id"`
	AgentID          string `json:"agentId"`
	Name             string `json:"name"`
	Hostname         string `json:"hostname"`
	IPAddress        string `json:"ipAddress"`
	Platform         string `json:"platform"`
	OSVersion        string `json:"osVersion"`
	AgentVersion     string `json:"agentVersion"`
	Status           string `json:"status"`
	Description      string `json:"description,omitempty"`
	LastHeartbeat    string `json:"lastHeartbeat"`
	RegistrationTime string `json:"registrationTime"`
	UpdateTime       string `json:"updateTime"`
}

// Agent statuses and platforms.
var (
	AgentStatuses  = []string{"ONLINE", "OFFLINE", "ERROR", "MAINTENANCE"}
	AgentPlatforms = []string{"WINDOWS", "LINUX"}
)

// AgentStats summarises the fleet.
type AgentStats struct {
	TotalAgents   int64 `json:"totalAgents"`
	OnlineAgents  int64 `json:"onlineAgents"`
	OfflineAgents int64 `json:"offlineAgents"`
	ErrorAgents   int64 `json:"errorAgents"`
	WindowsAgents int64 `json:"windowsAgents"`
	LinuxAgents   int64 `json:"linuxAgents"`
}

// AgentFilter narrows an agent listing.
type AgentFilter struct {
	PageParams
	Keyword  string
	Status   string
	Platform string
}

// AgentService covers /admin/agents.
type AgentService struct {
	c *Client
}

// Agents returns the agent administration endpoints.
func (c *Client) Agents() *AgentService {
	return &AgentService{c: c}
}

func (s *AgentService) List(ctx context.Context, f AgentFilter) (Page[Agent], error) {
	q := f.PageParams.apply(NewQuery()).
		String("keyword", f.Keyword).
		String("status", f.Status).
		String("platform", f.Platform)
	return getAs[Page[Agent]](ctx, s.c, "/admin/agents", q.Values())
}

func (s *AgentService) Get(ctx context.Context, agentID string) (Agent, error) {
	return getAs[Agent](ctx, s.c, "/admin/agents/"+pathEscape(agentID), nil)
}

func (s *AgentService) UpdateStatus(ctx context.Context, agentID, status string) (Agent, error) {
	return putAs[Agent](ctx, s.c, "/admin/agents/"+pathEscape(agentID)+"/status", map[string]string{"status": status})
}

func (s *AgentService) Delete(ctx context.Context, agentID string) error {
	return s.c.Delete(ctx, "/admin/agents/"+pathEscape(agentID), nil)
}

func (s *AgentService) Stats(ctx context.Context) (AgentStats, error) {
	return getAs[AgentStats](ctx, s.c, "/admin/agents/stats", nil)
}

func (s *AgentService) ForceOffline(ctx context.Context, agentID string) error {
	return s.c.Post(ctx, "/admin/agents/"+pathEscape(agentID)+"/offline", nil, nil)
}

// DownloadURL returns the absolute URL of the agent package for a platform
// and architecture. Nothing is requested.
func (s *AgentService) DownloadURL(platform, arch string) string {
	return s.c.BaseURL() + "/admin/agents/download/" + pathEscape(platform) + "/" + pathEscape(arch)
}

// Download fetches the agent package bytes.
func (s *AgentService) Download(ctx context.Context, platform, arch string) ([]byte, error) {
	var data []byte
	err := s.c.Do(ctx, Request{
		Method:  http.MethodGet,
		Path:    "/admin/agents/download/" + pathEscape(platform) + "/" + pathEscape(arch),
		Timeout: s.c.uploadTimeout,
	}, &data)
	return data, err
}
