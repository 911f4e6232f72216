// Package ai wraps the Anthropic client behind the small sending and parsing
// surface the interview engine needs. Model output is treated as untrusted
// text: callers get the raw concatenated response and validate it against
// their own contracts.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/crafty-arl/etherith/internal/logger"
	"github.com/crafty-arl/etherith/internal/transport"
)

// MessageSender sends one message exchange to the generative model. It is the
// seam tests use to stub the model out.
type MessageSender interface {
	SendMessage(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (anthropic.Message, error)
}

// NewClient builds an Anthropic client that dials through the rate-limited
// transport.
func NewClient(apiKey string, log *logger.Logger) anthropic.Client {
	httpClient := &http.Client{
		Transport: transport.WithRateLimiting(nil, log),
	}
	// One attempt per operation: the engine falls back immediately rather
	// than stacking SDK retries on top of the caller's timeout.
	return anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	)
}

// StreamingMessageSender implements MessageSender by streaming the response
// and accumulating it into a single message.
type StreamingMessageSender struct {
	client anthropic.Client
	log    *logger.Logger
}

func NewStreamingMessageSender(client anthropic.Client, log *logger.Logger) StreamingMessageSender {
	if log == nil {
		log = logger.NewNop()
	}
	return StreamingMessageSender{client: client, log: log}
}

func (sms StreamingMessageSender) SendMessage(
	ctx context.Context,
	params anthropic.MessageNewParams,
	opts ...option.RequestOption,
) (anthropic.Message, error) {
	stream := sms.client.Messages.NewStreaming(ctx, params, opts...)
	response := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := response.Accumulate(event); err != nil {
			return anthropic.Message{}, fmt.Errorf("failed to accumulate response content stream: %w", err)
		}
	}
	if stream.Err() != nil {
		return anthropic.Message{}, fmt.Errorf("failed to stream response: %w", stream.Err())
	}
	if response.StopReason == "" {
		b, err := json.Marshal(response)
		if err != nil {
			sms.log.Warn("error while marshalling corrupt message for inspection", "error", err)
		}
		return anthropic.Message{}, fmt.Errorf("malformed message: %v", string(b))
	}

	sms.log.Debug("model token usage",
		"input", response.Usage.InputTokens,
		"output", response.Usage.OutputTokens,
		"cacheCreate", response.Usage.CacheCreationInputTokens,
		"cacheRead", response.Usage.CacheReadInputTokens,
	)

	return response, nil
}

// ResponseText concatenates the text blocks of a model response. It reads
// the union's flattened fields rather than AsAny, which only works for
// messages that went through JSON decoding.
func ResponseText(msg anthropic.Message) string {
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

// JSONPayload extracts the first JSON object embedded in model output, which
// may be wrapped in prose or a markdown code fence. Returns false when no
// object delimiters are found.
func JSONPayload(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
