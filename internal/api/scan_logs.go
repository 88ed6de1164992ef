package api

import (
	"context"
)

// ScanLogMessage is one line of a scan task log.
type ScanLogMessage struct {
	ID            int64   `json:"id,omitempty"`
	TaskID        int64   `json:"taskId"`
	Timestamp     string  `json:"timestamp"`
	Level         string  `json:"level"`
	Message       string  `json:"message"`
	ScanEngine    string  `json:"scanEngine,omitempty"`
	CurrentTarget string  `json:"currentTarget,omitempty"`
	Progress      float64 `json:"progress,omitempty"`
	StackTrace    string  `json:"stackTrace,omitempty"`
}

// ScanLogFilter narrows a log query.
type ScanLogFilter struct {
	Level      string
	ScanEngine string
	StartTime  string
	EndTime    string
	Keyword    string
	Page       int
	Size       int
}

func (f ScanLogFilter) query() *Query {
	return NewQuery().
		String("level", f.Level).
		String("scanEngine", f.ScanEngine).
		String("startTime", f.StartTime).
		String("endTime", f.EndTime).
		String("keyword", f.Keyword).
		Int("page", f.Page).
		Int("size", f.Size)
}

// ScanLogService covers /scan-logs.
type ScanLogService struct {
	c *Client
}

// ScanLogs returns the scan log endpoints.
func (c *Client) ScanLogs() *ScanLogService {
	return &ScanLogService{c: c}
}

func (s *ScanLogService) List(ctx context.Context, taskID int64, f ScanLogFilter) ([]ScanLogMessage, error) {
	return getAs[[]ScanLogMessage](ctx, s.c, "/scan-logs/"+id(taskID), f.query().Values())
}

func (s *ScanLogService) Clear(ctx context.Context, taskID int64) error {
	return s.c.Delete(ctx, "/scan-logs/"+id(taskID)+"/clear", nil)
}

// Export returns the raw exported log file.
func (s *ScanLogService) Export(ctx context.Context, taskID int64, f ScanLogFilter) ([]byte, error) {
	var data []byte
	err := s.c.Get(ctx, "/scan-logs/"+id(taskID)+"/export", f.query().Values(), &data)
	return data, err
}
