package pipeline

import (
	"context"
	"strings"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/finextract/pkg/anthropic"
)

// mockAIClient is a testify mock for the Anthropic client interface.
type mockAIClient struct {
	mock.Mock
}

func (m *mockAIClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

// textResponse builds a single-block response with nominal token usage.
func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
		Usage: anthropic.TokenUsage{
			InputTokens:  100,
			OutputTokens: 50,
		},
	}
}

// forModel matches requests by model ID.
func forModel(model string) interface{} {
	return mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == model
	})
}

// userContains matches requests whose user message contains the substring.
func userContains(sub string) interface{} {
	return mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return len(req.Messages) > 0 && strings.Contains(req.Messages[0].Content, sub)
	})
}
