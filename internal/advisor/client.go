/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Route paths served by the advisor HTTP service.
const (
	PathSuggestLayout       = "/api/ai/suggest-layout"
	PathEvaluateArrangement = "/api/ai/evaluate-arrangement"
)

// HTTPClient is a minimal client for the advisor HTTP service.
type HTTPClient struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewHTTPClient creates a new client. baseURL may include a trailing slash; it will be normalized.
func NewHTTPClient(baseURL string, token string, timeout time.Duration) *HTTPClient {
	b := strings.TrimRight(baseURL, "/")
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPClient{
		BaseURL: b,
		Token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// errorBody is the service's failure envelope.
type errorBody struct {
	Error string `json:"error"`
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		if json.NewDecoder(resp.Body).Decode(&eb) == nil && eb.Error != "" {
			return fmt.Errorf("server %s %s: %s: %s", method, u.Path, resp.Status, eb.Error)
		}
		return fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	return nil
}

// SuggestLayout posts a layout request to the service.
func (c *HTTPClient) SuggestLayout(ctx context.Context, req LayoutRequest) (*LayoutSuggestion, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	var out LayoutSuggestion
	if err := c.doJSON(ctx, http.MethodPost, PathSuggestLayout, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Evaluate posts an evaluation request to the service.
func (c *HTTPClient) Evaluate(ctx context.Context, req EvaluationRequest) (*Evaluation, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	var out Evaluation
	if err := c.doJSON(ctx, http.MethodPost, PathEvaluateArrangement, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
