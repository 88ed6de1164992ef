package api

import (
	"context"
	"net/http"
)

// Asset is an inventoried host, service or application.
type Asset struct {
	ID                 int64  `json:"id,omitempty"`
	Name               string `json:"name"`
	Description        string `json:"description,omitempty"`
	Type               string `json:"type"`
	Status             string `json:"status"`
	IPAddress          string `json:"ipAddress,omitempty"`
	Domain             string `json:"domain,omitempty"`
	Port               int    `json:"port,omitempty"`
	Protocol           string `json:"protocol,omitempty"`
	Service            string `json:"service,omitempty"`
	Version            string `json:"version,omitempty"`
	OperatingSystem    string `json:"operatingSystem,omitempty"`
	Importance         string `json:"importance"`
	OwnerID            int64  `json:"ownerId,omitempty"`
	Location           string `json:"location,omitempty"`
	Vendor             string `json:"vendor,omitempty"`
	Tags               string `json:"tags,omitempty"`
	Notes              string `json:"notes,omitempty"`
	VulnerabilityCount int    `json:"vulnerabilityCount,omitempty"`
	CreatedTime        string `json:"createdTime,omitempty"`
	UpdatedTime        string `json:"updatedTime,omitempty"`
}

// AssetTypes and friends enumerate the accepted values.
var (
	AssetTypes       = []string{"SERVER", "WORKSTATION", "NETWORK_DEVICE", "DATABASE", "WEB_APPLICATION", "MOBILE_APPLICATION", "IOT_DEVICE", "CLOUD_SERVICE", "OTHER"}
	AssetStatuses    = []string{"ACTIVE", "INACTIVE", "MAINTENANCE", "DECOMMISSIONED"}
	AssetImportances = []string{"LOW", "MEDIUM", "HIGH", "CRITICAL"}
)

// AssetFilter narrows an asset listing.
type AssetFilter struct {
	PageParams
	Name       string
	Type       string
	Status     string
	Importance string
	OwnerID    int64
	IPAddress  string
	Domain     string
	Keyword    string
}

// AssetStats summarises the inventory.
type AssetStats struct {
	TotalAssets        int64            `json:"totalAssets"`
	AssetsByType       map[string]int64 `json:"assetsByType"`
	AssetsByStatus     map[string]int64 `json:"assetsByStatus"`
	AssetsByImportance map[string]int64 `json:"assetsByImportance"`
}

// AssetService covers /assets.
type AssetService struct {
	c *Client
}

// Assets returns the asset endpoints.
func (c *Client) Assets() *AssetService {
	return &AssetService{c: c}
}

func (s *AssetService) List(ctx context.Context, f AssetFilter) (Page[Asset], error) {
	q := f.PageParams.apply(NewQuery()).
		String("name", f.Name).
		String("type", f.Type).
		String("status", f.Status).
		String("importance", f.Importance).
		Int64("ownerId", f.OwnerID).
		String("ipAddress", f.IPAddress).
		String("domain", f.Domain).
		String("keyword", f.Keyword)
	return getAs[Page[Asset]](ctx, s.c, "/assets", q.Values())
}

func (s *AssetService) Get(ctx context.Context, assetID int64) (Asset, error) {
	return getAs[Asset](ctx, s.c, "/assets/"+id(assetID), nil)
}

func (s *AssetService) Create(ctx context.Context, a Asset) (Asset, error) {
	a.ID = 0
	return postAs[Asset](ctx, s.c, "/assets", a)
}

func (s *AssetService) Update(ctx context.Context, assetID int64, a Asset) (Asset, error) {
	return putAs[Asset](ctx, s.c, "/assets/"+id(assetID), a)
}

func (s *AssetService) Delete(ctx context.Context, assetID int64) error {
	return s.c.Delete(ctx, "/assets/"+id(assetID), nil)
}

func (s *AssetService) BatchDelete(ctx context.Context, ids []int64) error {
	return s.c.Post(ctx, "/assets/batch-delete", map[string][]int64{"ids": ids}, nil)
}

func (s *AssetService) UpdateStatus(ctx context.Context, assetID int64, status string) (Asset, error) {
	return putAs[Asset](ctx, s.c, "/assets/"+id(assetID)+"/status", map[string]string{"status": status})
}

// Import uploads assets in bulk.
func (s *AssetService) Import(ctx context.Context, assets []Asset) ([]Asset, error) {
	var out []Asset
	err := s.c.Do(ctx, Request{Method: http.MethodPost, Path: "/assets/import", Body: assets, Timeout: s.c.uploadTimeout}, &out)
	return out, err
}

// Export returns the selected assets, or all of them when ids is empty.
func (s *AssetService) Export(ctx context.Context, ids []int64) ([]Asset, error) {
	return getAs[[]Asset](ctx, s.c, "/assets/export", NewQuery().Int64s("ids", ids).Values())
}

func (s *AssetService) All(ctx context.Context) ([]Asset, error) {
	return getAs[[]Asset](ctx, s.c, "/assets/all", nil)
}

func (s *AssetService) ByOwner(ctx context.Context, ownerID int64) ([]Asset, error) {
	return getAs[[]Asset](ctx, s.c, "/assets/owner/"+id(ownerID), nil)
}

func (s *AssetService) Recent(ctx context.Context, limit int) ([]Asset, error) {
	if limit <= 0 {
		limit = 10
	}
	return getAs[[]Asset](ctx, s.c, "/assets/recent", NewQuery().Int("limit", limit).Values())
}

func (s *AssetService) Stats(ctx context.Context) (AssetStats, error) {
	return getAs[AssetStats](ctx, s.c, "/assets/stats", nil)
}

func (s *AssetService) Search(ctx context.Context, keyword string) ([]Asset, error) {
	return getAs[[]Asset](ctx, s.c, "/assets/search", NewQuery().String("keyword", keyword).Values())
}
