// Copyright 2023 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package local is an implementation of the Retriever Interface for the CQL engine. The
// implementation can be initialized from a json FHIR bundle of all the patient's FHIR Resources.
package local

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/clinacode/cql/internal/resourcewrapper"
)

// Retriever implements the Retriever Interface for the CQL engine.
type Retriever struct {
	resources map[string][]map[string]any
}

// NewRetrieverFromR4Bundle initializes a local Retriever from a json R4 FHIR bundle of all the
// patient's FHIR Resources. Each entry.resource is grouped by its resourceType field.
func NewRetrieverFromR4Bundle(jsonBundle []byte) (*Retriever, error) {
	var bundle struct {
		Entry []struct {
			Resource map[string]any `json:"resource"`
		} `json:"entry"`
	}
	if err := json.Unmarshal(jsonBundle, &bundle); err != nil {
		return nil, fmt.Errorf("could not parse FHIR bundle: %w", err)
	}

	r := &Retriever{resources: make(map[string][]map[string]any)}
	for _, e := range bundle.Entry {
		if e.Resource == nil {
			continue
		}
		rw := resourcewrapper.New(e.Resource)
		resourceType, err := rw.ResourceType()
		if err != nil {
			return nil, err
		}
		r.resources[resourceType] = append(r.resources[resourceType], rw.Resource)
	}
	return r, nil
}

// Retrieve returns all FHIR resources of type fhirResourceType for the patient.
func (r *Retriever) Retrieve(ctx context.Context, fhirResourceType string) ([]map[string]any, error) {
	if resources, ok := r.resources[fhirResourceType]; ok {
		return resources, nil
	}
	return []map[string]any{}, nil
}
