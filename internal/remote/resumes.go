package remote

import "context"

const (
	resumesPath = "/resumes/"
	indexPath   = "/index/"
)

func (c *Client) ListResumes(ctx context.Context) ([]string, error) {
	var resp struct {
		Resumes []string `json:"resumes"`
	}
	if err := c.Get(ctx, resumesPath, &resp); err != nil {
		return nil, err
	}
	return resp.Resumes, nil
}

func (c *Client) DeleteResume(ctx context.Context, filename string) error {
	return c.Delete(ctx, resumesPath+segment(filename), nil)
}

// IndexResume adds a single resume to the searchable corpus.
func (c *Client) IndexResume(ctx context.Context, resume File) error {
	return c.PostMultipart(ctx, indexPath, []Part{{Field: "resume_file", File: resume}}, nil)
}
