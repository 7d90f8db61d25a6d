package qa

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"resultscraper/internal/components/assert"
	"resultscraper/internal/components/telemetry"
	"resultscraper/internal/results"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	DefaultBaseUrl = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama3-70b-8192"
	// SampleRows is how much of the table is sent along with a question.
	SampleRows = 20
)

const report_qa_ask = "qa.ask"

var (
	ErrNoData        = errors.New("there are no successful results to ask about")
	ErrMissingAPIKey = errors.New("no api key configured for the question answering endpoint")
	ErrNoAnswer      = errors.New("the model returned no answer")
)

type Options struct {
	BaseUrl    string
	Model      string
	ApiKey     string
	MaxRetries int
	// RequestOptions are appended to the client's options.
	RequestOptions []option.RequestOption
}

// Client answers natural language questions about a results table using
// an OpenAI compatible chat endpoint.
type Client struct {
	client openai.Client
	model  string
	tel    telemetry.API
}

func NewClient(opts Options, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)

	if opts.ApiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}

	requestOpts := []option.RequestOption{
		option.WithAPIKey(opts.ApiKey),
		option.WithBaseURL(opts.BaseUrl),
		option.WithMaxRetries(opts.MaxRetries),
	}
	requestOpts = append(requestOpts, opts.RequestOptions...)

	return &Client{
		client: openai.NewClient(requestOpts...),
		model:  opts.Model,
		tel:    telemetry.NewScopedAPI("qa", tel),
	}, nil
}

func Prompt(sample results.Table, question string) string {
	var b strings.Builder
	b.WriteString("You are an AI assistant helping to analyze student results data.\n\n")
	fmt.Fprintf(&b, "Here is a sample of the data (limited to %d rows for brevity):\n", SampleRows)
	b.WriteString(sample.Render(table.StyleDefault))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "The user asks: %s\n\n", strings.TrimSpace(question))
	b.WriteString("Please provide a detailed and accurate answer based on this data.\n")
	b.WriteString("If the information is not available in the data, please state that clearly.\n")
	return b.String()
}

type Answer struct {
	Text string
	// Sample is the part of the table the answer is based on.
	Sample results.Table
}

func (c *Client) Ask(ctx context.Context, t results.Table, question string) (Answer, error) {
	if t.Empty() {
		return Answer{}, ErrNoData
	}
	sample := t.Head(SampleRows)

	res, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(Prompt(sample, question)),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		c.tel.ReportBroken(report_qa_ask, err, c.model)
		return Answer{}, fmt.Errorf("ask %s: %w", c.model, err)
	}
	if len(res.Choices) == 0 {
		c.tel.ReportWarning(report_qa_ask, ErrNoAnswer, c.model)
		return Answer{}, ErrNoAnswer
	}

	return Answer{
		Text:   strings.TrimSpace(res.Choices[0].Message.Content),
		Sample: sample,
	}, nil
}
