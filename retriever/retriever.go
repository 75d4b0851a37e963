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

// Package retriever defines the interface between the CQL engine and the data source CQL will be
// computed over. Those using the CQL engine must provide an implementation of the Retriever
// Interface.
package retriever

import (
	"context"
)

// Retriever defines the interface between the CQL engine and the data source CQL will be computed
// over. Resources are returned as decoded JSON (map[string]any), matching the shape a data model
// (e.g. FHIR) would produce for each resource type, so the engine never depends on a generated
// schema for the data it evaluates over.
type Retriever interface {
	// Retrieve returns all resources of type resourceType (e.g. "Patient", "Observation") for the
	// patient currently in scope.
	Retrieve(ctx context.Context, resourceType string) ([]map[string]any, error)
}
