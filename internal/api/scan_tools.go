package api

import (
	"context"
	"net/http"
)

// ScanTool is a scanner binary managed by the server.
type ScanTool struct {
	ID               int64   `json:"id,omitempty"`
	Name             string  `json:"name"`
	DisplayName      string  `json:"displayName"`
	CurrentVersion   string  `json:"currentVersion,omitempty"`
	LatestVersion    string  `json:"latestVersion,omitempty"`
	InstallPath      string  `json:"installPath,omitempty"`
	ConfigPath       string  `json:"configPath,omitempty"`
	Status           string  `json:"status"`
	AutoUpdate       bool    `json:"autoUpdate"`
	DownloadURL      string  `json:"downloadUrl,omitempty"`
	Checksum         string  `json:"checksum,omitempty"`
	LastCheckTime    string  `json:"lastCheckTime,omitempty"`
	LastUpdateTime   string  `json:"lastUpdateTime,omitempty"`
	ErrorMessage     string  `json:"errorMessage,omitempty"`
	FileSize         int64   `json:"fileSize,omitempty"`
	DownloadProgress float64 `json:"downloadProgress"`
}

// ScanToolStatus is the live status of one tool.
type ScanToolStatus struct {
	Name             string  `json:"name"`
	DisplayName      string  `json:"displayName"`
	Status           string  `json:"status"`
	CurrentVersion   string  `json:"currentVersion,omitempty"`
	LatestVersion    string  `json:"latestVersion,omitempty"`
	DownloadProgress float64 `json:"downloadProgress"`
	ErrorMessage     string  `json:"errorMessage,omitempty"`
	NeedsUpdate      bool    `json:"needsUpdate"`
	IsInstalled      bool    `json:"isInstalled"`
	LastCheckTime    string  `json:"lastCheckTime,omitempty"`
	LastUpdateTime   string  `json:"lastUpdateTime,omitempty"`
}

// ScanToolStatistics summarises the tool inventory.
type ScanToolStatistics struct {
	TotalTools         int64            `json:"totalTools"`
	InstalledTools     int64            `json:"installedTools"`
	NeedUpdateTools    int64            `json:"needUpdateTools"`
	StatusDistribution map[string]int64 `json:"statusDistribution"`
}

// ToolDownload selects a downloadable tool build.
type ToolDownload struct {
	ToolType string
	Version  string
	Platform string
	Arch     string
}

// ScanToolService covers /scan-tools, /admin/scan-tools and /admin/tools.
type ScanToolService struct {
	c *Client
}

// ScanTools returns the scan tool endpoints.
func (c *Client) ScanTools() *ScanToolService {
	return &ScanToolService{c: c}
}

func toolPath(name, suffix string) string {
	return "/scan-tools/" + pathEscape(name) + suffix
}

func (s *ScanToolService) All(ctx context.Context) ([]ScanTool, error) {
	return getAs[[]ScanTool](ctx, s.c, "/scan-tools", nil)
}

func (s *ScanToolService) Status(ctx context.Context, name string) (ScanToolStatus, error) {
	return getAs[ScanToolStatus](ctx, s.c, toolPath(name, "/status"), nil)
}

func (s *ScanToolService) Install(ctx context.Context, name string) error {
	return s.c.Post(ctx, toolPath(name, "/install"), nil, nil)
}

func (s *ScanToolService) Update(ctx context.Context, name string) error {
	return s.c.Post(ctx, toolPath(name, "/update"), nil, nil)
}

func (s *ScanToolService) CheckUpdates(ctx context.Context) error {
	return s.c.Post(ctx, "/scan-tools/check-updates", nil, nil)
}

func (s *ScanToolService) Statistics(ctx context.Context) (ScanToolStatistics, error) {
	return getAs[ScanToolStatistics](ctx, s.c, "/scan-tools/statistics", nil)
}

func (s *ScanToolService) Installed(ctx context.Context) ([]ScanTool, error) {
	return getAs[[]ScanTool](ctx, s.c, "/scan-tools/installed", nil)
}

// Available reports whether a tool can be installed on the server.
func (s *ScanToolService) Available(ctx context.Context, name string) (bool, error) {
	return getAs[bool](ctx, s.c, toolPath(name, "/available"), nil)
}

func (s *ScanToolService) Initialize(ctx context.Context) error {
	return s.c.Post(ctx, "/scan-tools/initialize", nil, nil)
}

// Admin endpoints.

func (s *ScanToolService) AdminList(ctx context.Context) ([]ScanTool, error) {
	return getAs[[]ScanTool](ctx, s.c, "/admin/scan-tools", nil)
}

func (s *ScanToolService) AdminAdd(ctx context.Context, t ScanTool) (ScanTool, error) {
	t.ID = 0
	return postAs[ScanTool](ctx, s.c, "/admin/scan-tools", t)
}

func (s *ScanToolService) AdminUpdate(ctx context.Context, toolID int64, t ScanTool) (ScanTool, error) {
	return putAs[ScanTool](ctx, s.c, "/admin/scan-tools/"+id(toolID), t)
}

func (s *ScanToolService) AdminDelete(ctx context.Context, toolID int64) error {
	return s.c.Delete(ctx, "/admin/scan-tools/"+id(toolID), nil)
}

// Downloadable lists tools the server can fetch.
func (s *ScanToolService) Downloadable(ctx context.Context) ([]map[string]any, error) {
	return getAs[[]map[string]any](ctx, s.c, "/admin/tools/available", nil)
}

// DownloadURL asks the server for a download link.
func (s *ScanToolService) DownloadURL(ctx context.Context, d ToolDownload) (string, error) {
	q := NewQuery().String("version", d.Version).String("platform", d.Platform).String("arch", d.Arch)
	var link string
	err := s.c.Do(ctx, Request{Method: http.MethodPost, Path: "/admin/tools/download/" + pathEscape(d.ToolType), Query: q.Values()}, &link)
	return link, err
}

// InstallStatus reports the installation status of a tool type.
func (s *ScanToolService) InstallStatus(ctx context.Context, toolType string) (map[string]any, error) {
	return getAs[map[string]any](ctx, s.c, "/admin/tools/status/"+pathEscape(toolType), nil)
}
