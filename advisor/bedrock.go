// Package advisor turns a finished run's report into a short list of
// follow-up recommendations using an LLM. It is optional: when Bedrock is
// not configured the orchestrator simply skips it.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/hairizuan-noorazman/webtester/results"
)

// Advisor produces recommendations from a normalized run report.
type Advisor interface {
	Recommend(ctx context.Context, report *results.Report) ([]string, error)
}

// BedrockAdvisor implements Advisor using AWS Bedrock.
type BedrockAdvisor struct {
	client    *bedrockruntime.Client
	modelID   string
	maxTokens int
}

// NewBedrockAdvisor creates a Bedrock-backed advisor. Credentials come from
// the default AWS chain.
func NewBedrockAdvisor(region, modelID string, maxTokens int) (*BedrockAdvisor, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &BedrockAdvisor{
		client:    bedrockruntime.NewFromConfig(cfg),
		modelID:   modelID,
		maxTokens: maxTokens,
	}, nil
}

// Recommend asks the model for follow-up recommendations.
func (a *BedrockAdvisor) Recommend(ctx context.Context, report *results.Report) ([]string, error) {
	prompt := BuildPrompt(report)

	requestBody := map[string]interface{}{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        a.maxTokens,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{"type": "text", "text": prompt},
				},
			},
		},
	}

	payload, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	output, err := a.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(a.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	var response struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(response.Content) == 0 {
		return nil, fmt.Errorf("no content in response")
	}

	text := strings.TrimSpace(response.Content[0].Text)

	// Strip markdown code fences if the model wrapped its answer anyway.
	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx != -1 {
			text = text[idx+1:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	recs := parseRecommendations(text)
	if len(recs) == 0 {
		return nil, fmt.Errorf("empty recommendation list")
	}
	return recs, nil
}
