// Package gemini provides an implementation of model.Model on top of the
// Google Gen AI SDK (Gemini API or Vertex AI backends).
package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/Sjoneon/DaySync-Server/core"
	"github.com/Sjoneon/DaySync-Server/model"
)

// Options configures the Gemini model adapter.
type Options struct {
	Model           string
	Temperature     float32
	MaxOutputTokens int32
	APIKey          string
	BaseURL         string
}

// Model wraps genai Models.GenerateContent behind the generic model.Model interface.
type Model struct {
	client *genai.Client
	opts   Options
}

func defaultOptions() Options {
	return Options{
		Model:           "gemini-2.5-flash",
		Temperature:     0.3,
		MaxOutputTokens: 1024,
	}
}

// NewModel creates a Gemini API client. An empty APIKey lets the SDK read
// GOOGLE_API_KEY / GEMINI_API_KEY from the environment.
func NewModel(ctx context.Context, optFns ...func(o *Options)) (*Model, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &Model{client: client, opts: opts}, nil
}

// NewModelFromClient creates a Gemini model from an existing client.
func NewModelFromClient(client *genai.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate implements model.Model.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		contents, err := toGenaiContents(req.Contents)
		if err != nil {
			errCh <- err
			return
		}

		resp, err := m.client.Models.GenerateContent(ctx, m.opts.Model, contents, m.buildConfig(req))
		if err != nil {
			errCh <- fmt.Errorf("gemini api error: %w", err)
			return
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			errCh <- fmt.Errorf("no candidates returned")
			return
		}

		cand := resp.Candidates[0]
		out <- model.Response{
			ID:           resp.ResponseID,
			Content:      fromGenaiContent(cand.Content),
			FinishReason: string(cand.FinishReason),
			Usage:        usage(resp.UsageMetadata),
		}
	}()

	return out, errCh
}

func (m *Model) buildConfig(req model.Request) *genai.GenerateContentConfig {
	temp := m.opts.Temperature
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: m.opts.MaxOutputTokens,
	}
	if req.Instructions != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.Instructions, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:                 t.Function.Name,
				Description:          t.Function.Description,
				ParametersJsonSchema: t.Function.Parameters,
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	return cfg
}

// toGenaiContents maps normalized contents onto Gemini roles. Tool results
// travel as function response parts in a user turn.
func toGenaiContents(contents []core.Content) ([]*genai.Content, error) {
	out := make([]*genai.Content, 0, len(contents))
	for _, c := range contents {
		gc := &genai.Content{Role: genai.RoleUser}
		switch core.Role(c.Role) {
		case core.RoleSystem:
			continue
		case core.RoleAssistant:
			gc.Role = genai.RoleModel
		}

		for _, p := range c.Parts {
			switch part := p.(type) {
			case core.TextPart:
				if part.Text != "" {
					gc.Parts = append(gc.Parts, genai.NewPartFromText(part.Text))
				}
			case core.FunctionCallPart:
				args, err := part.FunctionCall.DecodeArgs()
				if err != nil {
					return nil, err
				}
				gc.Parts = append(gc.Parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   part.FunctionCall.ID,
					Name: part.FunctionCall.Name,
					Args: args,
				}})
			case core.FunctionResponsePart:
				gc.Parts = append(gc.Parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
					ID:       part.FunctionResponse.ID,
					Name:     part.FunctionResponse.Name,
					Response: part.FunctionResponse.Response,
				}})
			}
		}
		if len(gc.Parts) > 0 {
			out = append(out, gc)
		}
	}
	return out, nil
}

func fromGenaiContent(c *genai.Content) core.Content {
	content := core.Content{Role: string(core.RoleAssistant)}
	for _, p := range c.Parts {
		if p == nil || p.Thought {
			continue
		}
		if p.Text != "" {
			content.Parts = append(content.Parts, core.TextPart{Text: p.Text})
		}
		if p.FunctionCall != nil {
			args := "{}"
			if p.FunctionCall.Args != nil {
				if b, err := json.Marshal(p.FunctionCall.Args); err == nil {
					args = string(b)
				}
			}
			content.Parts = append(content.Parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
				ID:        p.FunctionCall.ID,
				Name:      p.FunctionCall.Name,
				Arguments: args,
			}})
		}
	}
	return content
}

func usage(u *genai.GenerateContentResponseUsageMetadata) *model.TokenUsage {
	if u == nil {
		return nil
	}
	return &model.TokenUsage{
		PromptTokens:     int(u.PromptTokenCount),
		CompletionTokens: int(u.CandidatesTokenCount),
		TotalTokens:      int(u.TotalTokenCount),
	}
}

// Info returns metadata describing this Gemini model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "gemini",
		SupportsTools: true,
	}
}
