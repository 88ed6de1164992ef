package api

import (
	"context"
	"net/http"
)

// BaselineTask is a compliance check dispatched to an agent.
type BaselineTask struct {
	ID            int64  `json:"id"`
	TaskID        string `json:"taskId"`
	AgentID       string `json:"agentId"`
	AgentName     string `json:"agentName,omitempty"`
	Name          string `json:"name"`
	TaskType      string `json:"taskType"`
	Status        string `json:"status"`
	Configuration string `json:"configuration"`
	CheckRules    string `json:"checkRules"`
	ScheduledTime string `json:"scheduledTime"`
	StartTime     string `json:"startTime,omitempty"`
	EndTime       string `json:"endTime,omitempty"`
	ErrorMessage  string `json:"errorMessage,omitempty"`
	CreateTime    string `json:"createTime"`
	UpdateTime    string `json:"updateTime"`
}

// Task statuses and types.
var (
	BaselineTaskStatuses = []string{"PENDING", "RUNNING", "COMPLETED", "FAILED", "CANCELLED"}
	BaselineTaskTypes    = []string{"CIS_BENCHMARK", "CUSTOM_BASELINE", "SECURITY_POLICY", "SYSTEM_CONFIG"}
)

// NewBaselineTask is the body of a task creation.
type NewBaselineTask struct {
	AgentID       string   `json:"agentId"`
	Name          string   `json:"name"`
	TaskType      string   `json:"taskType"`
	RuleIDs       []string `json:"ruleIds,omitempty"`
	ScheduledTime string   `json:"scheduledTime,omitempty"`
}

// BaselineResult is one check outcome of a task.
type BaselineResult struct {
	ID             int64   `json:"id"`
	TaskID         string  `json:"taskId"`
	AgentID        string  `json:"agentId"`
	CheckID        string  `json:"checkId"`
	CheckName      string  `json:"checkName"`
	Category       string  `json:"category"`
	Severity       string  `json:"severity"`
	Status         string  `json:"status"`
	Description    string  `json:"description"`
	ExpectedValue  string  `json:"expectedValue"`
	ActualValue    string  `json:"actualValue"`
	Evidence       string  `json:"evidence"`
	Recommendation string  `json:"recommendation"`
	Reference      string  `json:"reference"`
	Score          float64 `json:"score"`
	CreateTime     string  `json:"createTime"`
}

// BaselineRule is a single compliance rule.
type BaselineRule struct {
	ID             int64   `json:"id,omitempty"`
	RuleID         string  `json:"ruleId"`
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Description    string  `json:"description"`
	Severity       string  `json:"severity"`
	Platform       string  `json:"platform"`
	Standard       string  `json:"standard"`
	Version        string  `json:"version"`
	CheckScript    string  `json:"checkScript"`
	ExpectedValue  string  `json:"expectedValue"`
	Recommendation string  `json:"recommendation"`
	Reference      string  `json:"reference"`
	Enabled        bool    `json:"enabled"`
	Score          float64 `json:"score"`
	Tags           string  `json:"tags,omitempty"`
	CreateTime     string  `json:"createTime,omitempty"`
	UpdateTime     string  `json:"updateTime,omitempty"`
}

// TaskFilter narrows a task listing.
type TaskFilter struct {
	PageParams
	AgentID  string
	Status   string
	TaskType string
}

// RuleFilter narrows a rule listing.
type RuleFilter struct {
	PageParams
	Keyword  string
	Category string
	Severity string
	Platform string
	Standard string
	Enabled  *bool
}

// BaselineService covers /admin/baseline.
type BaselineService struct {
	c *Client
}

// Baseline returns the baseline task and rule endpoints.
func (c *Client) Baseline() *BaselineService {
	return &BaselineService{c: c}
}

const (
	tasksPath = "/admin/baseline/tasks"
	rulesPath = "/admin/baseline/rules"
)

func (s *BaselineService) Tasks(ctx context.Context, f TaskFilter) (Page[BaselineTask], error) {
	q := f.PageParams.apply(NewQuery()).
		String("agentId", f.AgentID).
		String("status", f.Status).
		String("taskType", f.TaskType)
	return getAs[Page[BaselineTask]](ctx, s.c, tasksPath, q.Values())
}

func (s *BaselineService) CreateTask(ctx context.Context, t NewBaselineTask) (BaselineTask, error) {
	return postAs[BaselineTask](ctx, s.c, tasksPath, t)
}

func (s *BaselineService) Task(ctx context.Context, taskID string) (BaselineTask, error) {
	return getAs[BaselineTask](ctx, s.c, tasksPath+"/"+pathEscape(taskID), nil)
}

func (s *BaselineService) CancelTask(ctx context.Context, taskID string) error {
	return s.c.Post(ctx, tasksPath+"/"+pathEscape(taskID)+"/cancel", nil, nil)
}

func (s *BaselineService) RetryTask(ctx context.Context, taskID string) error {
	return s.c.Post(ctx, tasksPath+"/"+pathEscape(taskID)+"/retry", nil, nil)
}

func (s *BaselineService) TaskResults(ctx context.Context, taskID string) ([]BaselineResult, error) {
	return getAs[[]BaselineResult](ctx, s.c, tasksPath+"/"+pathEscape(taskID)+"/results", nil)
}

func (s *BaselineService) Rules(ctx context.Context, f RuleFilter) (Page[BaselineRule], error) {
	q := f.PageParams.apply(NewQuery()).
		String("keyword", f.Keyword).
		String("category", f.Category).
		String("severity", f.Severity).
		String("platform", f.Platform).
		String("standard", f.Standard).
		Bool("enabled", f.Enabled)
	return getAs[Page[BaselineRule]](ctx, s.c, rulesPath, q.Values())
}

func (s *BaselineService) CreateRule(ctx context.Context, r BaselineRule) (BaselineRule, error) {
	r.ID, r.CreateTime, r.UpdateTime = 0, "", ""
	return postAs[BaselineRule](ctx, s.c, rulesPath, r)
}

func (s *BaselineService) UpdateRule(ctx context.Context, ruleID string, r BaselineRule) (BaselineRule, error) {
	return putAs[BaselineRule](ctx, s.c, rulesPath+"/"+pathEscape(ruleID), r)
}

func (s *BaselineService) DeleteRule(ctx context.Context, ruleID string) error {
	return s.c.Delete(ctx, rulesPath+"/"+pathEscape(ruleID), nil)
}

func (s *BaselineService) ToggleRule(ctx context.Context, ruleID string, enabled bool) (BaselineRule, error) {
	return putAs[BaselineRule](ctx, s.c, rulesPath+"/"+pathEscape(ruleID)+"/toggle", map[string]bool{"enabled": enabled})
}

func (s *BaselineService) Categories(ctx context.Context) ([]string, error) {
	return getAs[[]string](ctx, s.c, rulesPath+"/categories", nil)
}

func (s *BaselineService) Standards(ctx context.Context) ([]string, error) {
	return getAs[[]string](ctx, s.c, rulesPath+"/standards", nil)
}

func (s *BaselineService) ImportRules(ctx context.Context, rules []BaselineRule) error {
	return s.c.Do(ctx, Request{Method: http.MethodPost, Path: rulesPath + "/import", Body: map[string][]BaselineRule{"rules": rules}, Timeout: s.c.uploadTimeout}, nil)
}
