package remote

import "context"

const keywordSearchPath = "/keyword-search/"

type Match struct {
	ResumeFilename string  `json:"resume_filename"`
	Score          float64 `json:"score"`
}

// KeywordSearch returns the indexed resumes ranked against the keywords.
func (c *Client) KeywordSearch(ctx context.Context, keywords []string) ([]Match, error) {
	body := map[string][]string{"keywords": keywords}

	var resp struct {
		TopMatches []Match `json:"top_matches"`
	}
	if err := c.Post(ctx, keywordSearchPath, body, &resp); err != nil {
		return nil, err
	}
	return resp.TopMatches, nil
}
