/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"floorplanner/internal/domain"
)

// ErrInvalidProject wraps every import failure.
var ErrInvalidProject = errors.New("invalid project file")

//go:embed schema/project.schema.json
var projectSchema []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(projectSchema))
	})
	return schema, schemaErr
}

// Schema returns the embedded JSON Schema of the project file.
func Schema() []byte { return append([]byte(nil), projectSchema...) }

// Decode runs the import pipeline: parse, minimal shape check, migration
// of older files, schema validation, typed decoding. Nothing is returned
// unless every step succeeds.
func Decode(data []byte) (domain.Project, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Project{}, fmt.Errorf("%w: parse: %w", ErrInvalidProject, err)
	}
	if doc == nil {
		return domain.Project{}, fmt.Errorf("%w: document is not an object", ErrInvalidProject)
	}
	if err := domain.ValidateDocument(doc); err != nil {
		return domain.Project{}, fmt.Errorf("%w: %w", ErrInvalidProject, err)
	}
	domain.Migrate(doc)
	if err := validateSchema(doc); err != nil {
		return domain.Project{}, err
	}
	migrated, err := json.Marshal(doc)
	if err != nil {
		return domain.Project{}, fmt.Errorf("%w: re-encode: %w", ErrInvalidProject, err)
	}
	var p domain.Project
	if err := json.Unmarshal(migrated, &p); err != nil {
		return domain.Project{}, fmt.Errorf("%w: %w", ErrInvalidProject, err)
	}
	if err := p.CheckIDs(); err != nil {
		return domain.Project{}, fmt.Errorf("%w: %w", ErrInvalidProject, err)
	}
	return p, nil
}

func validateSchema(doc map[string]any) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("load project schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: schema: %w", ErrInvalidProject, err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidProject, strings.Join(msgs, "; "))
}

// Import reads and decodes a project from r.
func Import(r io.Reader) (domain.Project, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.Project{}, fmt.Errorf("read project: %w", err)
	}
	return Decode(data)
}

// Encode renders p as indented JSON at the current schema version.
func Encode(p domain.Project) ([]byte, error) {
	p.Version = domain.SchemaVersion
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal project: %w", err)
	}
	return append(data, '\n'), nil
}

// Export writes p to w.
func Export(w io.Writer, p domain.Project) error {
	data, err := Encode(p)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write project: %w", err)
	}
	return nil
}
