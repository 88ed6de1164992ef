package api

import (
	"context"
)

// BaselineScan is a compliance scan of a single asset.
type BaselineScan struct {
	ID              int64   `json:"id"`
	ScanName        string  `json:"scanName"`
	Description     string  `json:"description,omitempty"`
	AssetID         int64   `json:"assetId"`
	AssetName       string  `json:"assetName,omitempty"`
	AssetIPAddress  string  `json:"assetIpAddress,omitempty"`
	ScanType        string  `json:"scanType"`
	Status          string  `json:"status"`
	StartTime       string  `json:"startTime,omitempty"`
	EndTime         string  `json:"endTime,omitempty"`
	TotalChecks     int     `json:"totalChecks"`
	PassedChecks    int     `json:"passedChecks"`
	FailedChecks    int     `json:"failedChecks"`
	WarningChecks   int     `json:"warningChecks"`
	ComplianceScore float64 `json:"complianceScore"`
	ErrorMessage    string  `json:"errorMessage,omitempty"`
	CreatedTime     string  `json:"createdTime"`
	UpdatedTime     string  `json:"updatedTime"`
}

// BaselineScanRequest creates a scan.
type BaselineScanRequest struct {
	ScanName           string `json:"scanName"`
	Description        string `json:"description,omitempty"`
	AssetID            int64  `json:"assetId"`
	ScanType           string `json:"scanType"`
	ExecuteImmediately bool   `json:"executeImmediately,omitempty"`
	TimeoutMinutes     int    `json:"timeoutMinutes,omitempty"`
}

// BaselineScanResult is one check outcome of a scan.
type BaselineScanResult struct {
	ID               int64  `json:"id"`
	CheckID          string `json:"checkId"`
	CheckName        string `json:"checkName"`
	CheckDescription string `json:"checkDescription,omitempty"`
	Category         string `json:"category"`
	Severity         string `json:"severity"`
	Status           string `json:"status"`
	ExpectedValue    string `json:"expectedValue,omitempty"`
	ActualValue      string `json:"actualValue,omitempty"`
	CheckCommand     string `json:"checkCommand,omitempty"`
	Remediation      string `json:"remediation,omitempty"`
	Reference        string `json:"reference,omitempty"`
	ExecutionTime    int64  `json:"executionTime,omitempty"`
	ErrorMessage     string `json:"errorMessage,omitempty"`
}

// ScanStatistics summarises baseline scans.
type ScanStatistics struct {
	TotalScans             int64            `json:"totalScans"`
	CompletedScans         int64            `json:"completedScans"`
	RunningScans           int64            `json:"runningScans"`
	FailedScans            int64            `json:"failedScans"`
	AverageComplianceScore float64          `json:"averageComplianceScore"`
	StatusDistribution     map[string]int64 `json:"statusDistribution"`
	TypeDistribution       map[string]int64 `json:"typeDistribution"`
	RecentScans            []BaselineScan   `json:"recentScans"`
}

// ScanFilter narrows a scan listing.
type ScanFilter struct {
	PageParams
	Status   string
	ScanType string
	AssetID  int64
}

// BaselineScanService covers /baseline-scans.
type BaselineScanService struct {
	c *Client
}

// BaselineScans returns the baseline scan endpoints.
func (c *Client) BaselineScans() *BaselineScanService {
	return &BaselineScanService{c: c}
}

const scansPath = "/baseline-scans"

func scanPath(scanID int64, suffix string) string {
	return scansPath + "/" + id(scanID) + suffix
}

func (s *BaselineScanService) List(ctx context.Context, f ScanFilter) (Page[BaselineScan], error) {
	q := f.PageParams.apply(NewQuery()).
		String("status", f.Status).
		String("scanType", f.ScanType).
		Int64("assetId", f.AssetID)
	return getAs[Page[BaselineScan]](ctx, s.c, scansPath, q.Values())
}

func (s *BaselineScanService) Get(ctx context.Context, scanID int64) (BaselineScan, error) {
	return getAs[BaselineScan](ctx, s.c, scanPath(scanID, ""), nil)
}

func (s *BaselineScanService) Create(ctx context.Context, req BaselineScanRequest) (BaselineScan, error) {
	return postAs[BaselineScan](ctx, s.c, scansPath, req)
}

func (s *BaselineScanService) Execute(ctx context.Context, scanID int64) error {
	return s.c.Post(ctx, scanPath(scanID, "/execute"), nil, nil)
}

func (s *BaselineScanService) Cancel(ctx context.Context, scanID int64) error {
	return s.c.Post(ctx, scanPath(scanID, "/cancel"), nil, nil)
}

func (s *BaselineScanService) Rerun(ctx context.Context, scanID int64) error {
	return s.c.Post(ctx, scanPath(scanID, "/rerun"), nil, nil)
}

func (s *BaselineScanService) Delete(ctx context.Context, scanID int64) error {
	return s.c.Delete(ctx, scanPath(scanID, ""), nil)
}

func (s *BaselineScanService) Results(ctx context.Context, scanID int64) ([]BaselineScanResult, error) {
	return getAs[[]BaselineScanResult](ctx, s.c, scanPath(scanID, "/results"), nil)
}

func (s *BaselineScanService) FailedChecks(ctx context.Context, scanID int64) ([]BaselineScanResult, error) {
	return getAs[[]BaselineScanResult](ctx, s.c, scanPath(scanID, "/failed-checks"), nil)
}

func (s *BaselineScanService) HighRiskFailedChecks(ctx context.Context, scanID int64) ([]BaselineScanResult, error) {
	return getAs[[]BaselineScanResult](ctx, s.c, scanPath(scanID, "/high-risk-failed-checks"), nil)
}

func (s *BaselineScanService) Statistics(ctx context.Context) (ScanStatistics, error) {
	return getAs[ScanStatistics](ctx, s.c, scansPath+"/statistics", nil)
}

func (s *BaselineScanService) AssetHistory(ctx context.Context, assetID int64) ([]BaselineScan, error) {
	return getAs[[]BaselineScan](ctx, s.c, scansPath+"/asset/"+id(assetID)+"/history", nil)
}
