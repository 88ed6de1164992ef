package tui

import (
	"context"

	"github.com/felixgeelhaar/vulnark/internal/api"
	"github.com/felixgeelhaar/vulnark/internal/router"
)

// Loader fetches the data shown for a route.
type Loader interface {
	Load(ctx context.Context, path string) (Page, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, path string) (Page, error)

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context, path string) (Page, error) { return f(ctx, path) }

// APILoader loads pages from the REST API. The caller has already passed
// the route guard; the server still enforces its own checks.
type APILoader struct {
	Client   *api.Client
	PageSize int
}

// Load implements Loader.
func (l APILoader) Load(ctx context.Context, path string) (Page, error) {
	fetch, ok := l.pages()[router.Normalize(path)]
	if !ok {
		return Page{Path: path, Message: "Nothing to list on this page."}, nil
	}
	p, err := fetch(ctx)
	if err != nil {
		return Page{Path: path}, err
	}
	p.Path = path
	if p.Empty() && p.Message == "" {
		p.Message = "No records."
	}
	return p, nil
}

func (l APILoader) params() api.PageParams {
	return api.PageParams{Size: l.PageSize}
}

func (l APILoader) pages() map[string]func(context.Context) (Page, error) {
	c := l.Client
	return map[string]func(context.Context) (Page, error){
		router.PathDashboard: func(ctx context.Context) (Page, error) {
			s, err := c.Dashboard().Stats(ctx)
			return StatsPage(s), err
		},
		router.PathVulnerabilities: func(ctx context.Context) (Page, error) {
			shares, err := c.Dashboard().SeverityDistribution(ctx)
			return SharePage("Severity", shares), err
		},
		router.PathAssets: func(ctx context.Context) (Page, error) {
			res, err := c.Assets().List(ctx, api.AssetFilter{PageParams: l.params()})
			p := AssetPage(res.Content)
			p.Total = res.TotalElements
			return p, err
		},
		router.PathAssetDiscovery: func(ctx context.Context) (Page, error) {
			assets, err := c.Assets().Recent(ctx, 20)
			return AssetPage(assets), err
		},
		router.PathAssetDependency: func(ctx context.Context) (Page, error) {
			dist, err := c.Dashboard().AssetDistribution(ctx)
			return MapPage(dist), err
		},
		router.PathBaselineCheck: func(ctx context.Context) (Page, error) {
			shares, err := c.Dashboard().AssetStatusDistribution(ctx)
			return SharePage("Status", shares), err
		},
		router.PathBaselineScans: func(ctx context.Context) (Page, error) {
			res, err := c.BaselineScans().List(ctx, api.ScanFilter{PageParams: l.params()})
			p := ScanPage(res.Content)
			p.Total = res.TotalElements
			return p, err
		},
		router.PathScanTools: func(ctx context.Context) (Page, error) {
			tools, err := c.ScanTools().All(ctx)
			return ToolPage(tools), err
		},
		router.PathScanLogs: func(context.Context) (Page, error) {
			return Page{Message: "Open a task's logs with: vulnark logs <task-id>"}, nil
		},
		router.PathUsers: func(ctx context.Context) (Page, error) {
			res, err := c.Users().List(ctx, api.UserFilter{PageParams: l.params()})
			p := UserPage(res.Content)
			p.Total = res.TotalElements
			return p, err
		},
		router.PathAgents: func(ctx context.Context) (Page, error) {
			res, err := c.Agents().List(ctx, api.AgentFilter{PageParams: l.params()})
			p := AgentPage(res.Content)
			p.Total = res.TotalElements
			return p, err
		},
		router.PathBaselineTasks: func(ctx context.Context) (Page, error) {
			res, err := c.Baseline().Tasks(ctx, api.TaskFilter{PageParams: l.params()})
			p := TaskPage(res.Content)
			p.Total = res.TotalElements
			return p, err
		},
		router.PathBaselineRules: func(ctx context.Context) (Page, error) {
			res, err := c.Baseline().Rules(ctx, api.RuleFilter{PageParams: l.params()})
			p := RulePage(res.Content)
			p.Total = res.TotalElements
			return p, err
		},
		router.PathAdminScanTools: func(ctx context.Context) (Page, error) {
			tools, err := c.ScanTools().AdminList(ctx)
			return ToolPage(tools), err
		},
	}
}
