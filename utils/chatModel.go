package utils

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"lms/config"
	chatService "lms/services/chat"

	"github.com/go-resty/resty/v2"
)

// ChatModelClient streams completions from the model provider's
// SSE-compatible endpoint.
type ChatModelClient struct {
	client *resty.Client
}

// NewChatModelClient builds the model client from AppConfig.
func NewChatModelClient() *ChatModelClient {
	client := resty.New().
		SetBaseURL(config.AppConfig.ChatModelURL).
		SetHeader("Authorization", "Bearer "+config.AppConfig.ChatModelKey)
	return &ChatModelClient{client: client}
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// StreamCompletion posts the conversation and reads the streamed reply line
// by line, forwarding each piece through onChunk. Returns whatever was
// accumulated together with ctx.Err() if the caller cancels mid-stream.
func (c *ChatModelClient) StreamCompletion(ctx context.Context, model string, messages []chatService.ModelMessage, onChunk func(string) error) (string, error) {
	if model == "" {
		model = "gpt-4o-mini"
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"model":    model,
			"messages": messages,
			"stream":   true,
		}).
		SetDoNotParseResponse(true).
		Post("chat/completions")
	if err != nil {
		return "", err
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() >= 400 {
		return "", fmt.Errorf("model provider error: %s", resp.Status())
	}

	var full strings.Builder
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return full.String(), ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			full.WriteString(choice.Delta.Content)
			if onChunk != nil {
				if err := onChunk(choice.Delta.Content); err != nil {
					return full.String(), err
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return full.String(), ctx.Err()
		}
		return full.String(), err
	}

	return full.String(), nil
}
