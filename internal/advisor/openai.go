/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	applog "floorplanner/internal/log"
)

const (
	toolSuggestLayout       = "suggest_layout"
	toolEvaluateArrangement = "evaluate_arrangement"
)

// OpenAI answers both flows with a chat completion that is forced to call
// a strict function tool, so the reply arrives as typed JSON arguments.
type OpenAI struct {
	client *openai.Client
	model  string
	log    *slog.Logger
}

type OpenAIOptions struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint; empty uses the default.
	BaseURL string
}

// NewOpenAI creates the backend. An empty key yields a backend whose calls
// fail with ErrDisabled.
func NewOpenAI(o OpenAIOptions) *OpenAI {
	model := o.Model
	if model == "" {
		model = string(shared.ChatModelGPT4oMini)
	}
	a := &OpenAI{model: model, log: applog.WithComponent("advisor")}
	if o.APIKey == "" {
		return a
	}
	opts := []option.RequestOption{option.WithAPIKey(o.APIKey), option.WithMaxRetries(1)}
	if o.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(o.BaseURL))
	}
	c := openai.NewClient(opts...)
	a.client = &c
	return a
}

func (a *OpenAI) Enabled() bool { return a.client != nil }

var layoutSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"layoutSuggestions": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"furnitureName": map[string]string{"type": "string"},
					"x":             map[string]string{"type": "number"},
					"y":             map[string]string{"type": "number"},
					"rotation":      map[string]string{"type": "number"},
				},
				"required":             []string{"furnitureName", "x", "y", "rotation"},
				"additionalProperties": false,
			},
		},
		"reasoning": map[string]string{"type": "string"},
	},
	"required":             []string{"layoutSuggestions", "reasoning"},
	"additionalProperties": false,
}

var evaluationSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"overallAssessment":     map[string]string{"type": "string"},
		"flowFeedback":          map[string]string{"type": "string"},
		"aestheticsFeedback":    map[string]string{"type": "string"},
		"functionalityFeedback": map[string]string{"type": "string"},
		"suggestions": map[string]any{
			"type":  "array",
			"items": map[string]string{"type": "string"},
		},
	},
	"required":             []string{"overallAssessment", "flowFeedback", "aestheticsFeedback", "functionalityFeedback", "suggestions"},
	"additionalProperties": false,
}

func layoutPrompt(req LayoutRequest) string {
	var b strings.Builder
	b.WriteString("You are an expert interior designer specializing in efficient furniture layouts.\n\n")
	b.WriteString("Use the room dimensions and the list of furniture pieces to suggest an optimal layout. ")
	b.WriteString("Consider traffic flow, natural light and the function of the room.\n\n")
	fmt.Fprintf(&b, "Room Dimensions:\nWidth: %s meters\nLength: %s meters\n\nFurniture:\n", trimFloat(req.Room.Width), trimFloat(req.Room.Length))
	for _, f := range req.Furniture {
		fmt.Fprintf(&b, "- Name: %s, Width: %s meters, Length: %s meters\n", f.Name, trimFloat(f.Width), trimFloat(f.Length))
	}
	b.WriteString("\nGive x and y in meters from the top-left corner of the room and rotation in degrees for each piece, ")
	b.WriteString("then explain the layout. Answer by calling " + toolSuggestLayout + ".")
	return b.String()
}

func evaluationPrompt(req EvaluationRequest) string {
	prefs := req.UserPreferences
	if prefs == "" {
		prefs = "none given"
	}
	return fmt.Sprintf(`You are an interior design expert providing feedback on furniture arrangements.

Room Dimensions: %s
Furniture Arrangement Description: %s
User Preferences: %s

Give an overall assessment, feedback on flow and movement, aesthetics and functionality,
and specific suggestions for improving the arrangement. Answer by calling %s.`,
		req.RoomDimensions, req.ArrangementDescription, prefs, toolEvaluateArrangement)
}

// callTool runs one forced tool call and decodes its arguments into out.
func (a *OpenAI) callTool(ctx context.Context, name, description string, schema map[string]any, prompt string, out any) error {
	if a.client == nil {
		return ErrDisabled
	}
	fn := shared.FunctionDefinitionParam{
		Name:        name,
		Description: openai.String(description),
		Strict:      openai.Bool(true),
		Parameters:  schema,
	}
	req := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfArrayOfContentParts: []openai.ChatCompletionContentPartUnionParam{
						openai.TextContentPart(prompt),
					},
				},
			},
		}},
		Tools: []openai.ChatCompletionToolParam{{
			Function: fn,
		}},
		ToolChoice: openai.ChatCompletionToolChoiceOptionUnionParam{
			OfChatCompletionNamedToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
				Function: openai.ChatCompletionNamedToolChoiceFunctionParam{
					Name: name,
				},
			},
		},
	}
	l := applog.WithOperation(a.log, name)
	resp, err := a.client.Chat.Completions.New(ctx, req)
	if err != nil {
		l.Warn("completion failed", slog.Any("err", err))
		return fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.ToolCalls) == 0 {
		return fmt.Errorf("%w: no function call returned", ErrBadResponse)
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.ToolCalls[0].Function.Arguments), out); err != nil {
		return fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	l.Debug("completion done", slog.String("model", a.model))
	return nil
}

func (a *OpenAI) SuggestLayout(ctx context.Context, req LayoutRequest) (*LayoutSuggestion, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	var out LayoutSuggestion
	if err := a.callTool(ctx, toolSuggestLayout, "Return furniture placements for the room and the reasoning behind them.", layoutSchema, layoutPrompt(req), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *OpenAI) Evaluate(ctx context.Context, req EvaluationRequest) (*Evaluation, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	var out Evaluation
	if err := a.callTool(ctx, toolEvaluateArrangement, "Return structured feedback on the furniture arrangement.", evaluationSchema, evaluationPrompt(req), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
