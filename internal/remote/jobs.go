package remote

import "context"

const (
	jobsPath         = "/jobs/"
	resultsPath      = "/results/"
	clearHistoryPath = "/history/clear"
)

// HistoricalResult is one stored scoring run for a job.
type HistoricalResult struct {
	ID             int     `json:"id"`
	JobDescription string  `json:"job_description"`
	ResumeFilename string  `json:"resume_filename"`
	FinalScore     float64 `json:"final_score"`
	Verdict        string  `json:"verdict"`
}

// ListJobs returns the distinct job labels that have stored results.
func (c *Client) ListJobs(ctx context.Context) ([]string, error) {
	var jobs []string
	if err := c.Get(ctx, jobsPath, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (c *Client) ResultsForJob(ctx context.Context, job string) ([]HistoricalResult, error) {
	var results []HistoricalResult
	if err := c.Get(ctx, resultsPath+segment(job), &results); err != nil {
		return nil, err
	}
	return results, nil
}

// ClearJobHistory deletes every stored result for the job.
func (c *Client) ClearJobHistory(ctx context.Context, job string) error {
	return c.Delete(ctx, clearHistoryPath+"/"+segment(job), nil)
}

// ClearHistory deletes every stored result for every job.
func (c *Client) ClearHistory(ctx context.Context) error {
	return c.Delete(ctx, clearHistoryPath, nil)
}
