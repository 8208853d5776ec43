package remote

import (
	"context"
	"errors"
)

const (
	evaluatePath    = "/evaluate/"
	analyzeBulkPath = "/analyze-bulk/"
	feedbackPath    = "/feedback/"
)

type Scores struct {
	HardMatchPercent    float64 `json:"hard_match_percent"`
	SemanticFitPercent  float64 `json:"semantic_fit_percent"`
	FinalRelevanceScore float64 `json:"final_relevance_score"`
	Verdict             string  `json:"verdict"`
}

// Evaluation is the single-resume result. FoundSkills is not guaranteed to be
// a subset of IdentifiedSkills.
type Evaluation struct {
	Scores           Scores   `json:"scores"`
	IdentifiedSkills []string `json:"identified_skills"`
	FoundSkills      []string `json:"found_skills_in_resume"`
}

// RankedResult is one row of a bulk analysis. Rank is the position in the slice.
type RankedResult struct {
	ResumeFilename string   `json:"resume_filename"`
	FinalScore     float64  `json:"final_score"`
	Verdict        string   `json:"verdict"`
	FoundSkills    []string `json:"found_skills"`
}

type FeedbackRequest struct {
	JDText         string   `json:"jd_text"`
	ResumeText     string   `json:"resume_text"`
	FoundSkills    []string `json:"found_skills"`
	RequiredSkills []string `json:"required_skills"`
}

// Evaluate scores one resume against a job description.
func (c *Client) Evaluate(ctx context.Context, jd, resume File) (*Evaluation, error) {
	parts := []Part{
		{Field: "jd_file", File: jd},
		{Field: "resume_file", File: resume},
	}

	var evaluation Evaluation
	if err := c.PostMultipart(ctx, evaluatePath, parts, &evaluation); err != nil {
		return nil, err
	}
	return &evaluation, nil
}

// AnalyzeBulk scores every resume against a job description in one request.
// The remote returns the rows already ranked.
func (c *Client) AnalyzeBulk(ctx context.Context, jd File, resumes []File) ([]RankedResult, error) {
	if len(resumes) == 0 {
		return nil, errors.New("at least one resume is required")
	}

	parts := make([]Part, 0, len(resumes)+1)
	parts = append(parts, Part{Field: "jd_file", File: jd})
	for _, resume := range resumes {
		parts = append(parts, Part{Field: "resume_files", File: resume})
	}

	var resp struct {
		Results []RankedResult `json:"results"`
	}
	if err := c.PostMultipart(ctx, analyzeBulkPath, parts, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Feedback asks the remote for written improvement advice on a resume.
func (c *Client) Feedback(ctx context.Context, req FeedbackRequest) (string, error) {
	var resp struct {
		Feedback string `json:"feedback"`
	}
	if err := c.Post(ctx, feedbackPath, req, &resp); err != nil {
		return "", err
	}
	return resp.Feedback, nil
}
