package remote

import "context"

const analyticsPath = "/analytics/"

type Analytics struct {
	TotalAnalyses       int `json:"total_analyses"`
	TotalIndexedResumes int `json:"total_indexed_resumes"`
	TotalUsers          int `json:"total_users"`
}

func (c *Client) Analytics(ctx context.Context) (*Analytics, error) {
	var a Analytics
	if err := c.Get(ctx, analyticsPath, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
