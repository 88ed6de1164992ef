package api

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DashboardStats is the headline counters block.
type DashboardStats struct {
	Vulnerabilities struct {
		Total      int64 `json:"total"`
		Critical   int64 `json:"critical"`
		High       int64 `json:"high"`
		Medium     int64 `json:"medium"`
		Low        int64 `json:"low"`
		Info       int64 `json:"info"`
		Open       int64 `json:"open"`
		InProgress int64 `json:"inProgress"`
		Resolved   int64 `json:"resolved"`
		Closed     int64 `json:"closed"`
		Reopened   int64 `json:"reopened"`
	} `json:"vulnerabilities"`
	Assets struct {
		Total       int64 `json:"total"`
		Online      int64 `json:"online"`
		Offline     int64 `json:"offline"`
		Maintenance int64 `json:"maintenance"`
		High        int64 `json:"high"`
		Critical    int64 `json:"critical"`
	} `json:"assets"`
	Users struct {
		Total    int64 `json:"total"`
		Active   int64 `json:"active"`
		Inactive int64 `json:"inactive"`
		Admin    int64 `json:"admin"`
		Analyst  int64 `json:"analyst"`
		Viewer   int64 `json:"viewer"`
	} `json:"users"`
	Projects struct {
		Total     int64 `json:"total"`
		Active    int64 `json:"active"`
		Completed int64 `json:"completed"`
		Archived  int64 `json:"archived"`
		Overdue   int64 `json:"overdue"`
	} `json:"projects"`
}

// TrendPoint is one day of the vulnerability trend.
type TrendPoint struct {
	Date       string `json:"date"`
	Discovered int64  `json:"discovered"`
	Resolved   int64  `json:"resolved"`
}

// Share is a bucket of a distribution.
type Share struct {
	Severity   string  `json:"severity,omitempty"`
	Status     string  `json:"status,omitempty"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Label returns whichever of severity or status is set.
func (s Share) Label() string {
	if s.Severity != "" {
		return s.Severity
	}
	return s.Status
}

// Activity is an entry of the recent activity feed. Its shape is server
// defined.
type Activity map[string]any

// Overview is everything the dashboard page shows.
type Overview struct {
	Stats       DashboardStats `json:"stats"`
	Trend       []TrendPoint   `json:"trend"`
	Severity    []Share        `json:"severity"`
	AssetStatus []Share        `json:"assetStatus"`
	Activities  []Activity     `json:"activities"`
}

// DashboardService covers /dashboard.
type DashboardService struct {
	c *Client
}

// Dashboard returns the dashboard endpoints.
func (c *Client) Dashboard() *DashboardService {
	return &DashboardService{c: c}
}

func (s *DashboardService) Stats(ctx context.Context) (DashboardStats, error) {
	return getAs[DashboardStats](ctx, s.c, "/dashboard/stats", nil)
}

func (s *DashboardService) VulnerabilityTrend(ctx context.Context, days int) ([]TrendPoint, error) {
	if days <= 0 {
		days = 30
	}
	return getAs[[]TrendPoint](ctx, s.c, "/dashboard/vulnerability-trends", NewQuery().Int("days", days).Values())
}

func (s *DashboardService) SeverityDistribution(ctx context.Context) ([]Share, error) {
	return getAs[[]Share](ctx, s.c, "/dashboard/vulnerability-severity-distribution", nil)
}

func (s *DashboardService) AssetStatusDistribution(ctx context.Context) ([]Share, error) {
	return getAs[[]Share](ctx, s.c, "/dashboard/asset-status-distribution", nil)
}

func (s *DashboardService) RecentActivities(ctx context.Context, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 10
	}
	return getAs[[]Activity](ctx, s.c, "/dashboard/recent-activities", NewQuery().Int("limit", limit).Values())
}

func (s *DashboardService) AssetDistribution(ctx context.Context) (map[string]any, error) {
	return getAs[map[string]any](ctx, s.c, "/dashboard/asset-distribution", nil)
}

// Overview loads every dashboard section concurrently. The first failure
// cancels the remaining calls.
func (s *DashboardService) Overview(ctx context.Context, days, activityLimit int) (Overview, error) {
	var ov Overview
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		ov.Stats, err = s.Stats(ctx)
		return err
	})
	g.Go(func() (err error) {
		ov.Trend, err = s.VulnerabilityTrend(ctx, days)
		return err
	})
	g.Go(func() (err error) {
		ov.Severity, err = s.SeverityDistribution(ctx)
		return err
	})
	g.Go(func() (err error) {
		ov.AssetStatus, err = s.AssetStatusDistribution(ctx)
		return err
	})
	g.Go(func() (err error) {
		ov.Activities, err = s.RecentActivities(ctx, activityLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return ov, nil
}
