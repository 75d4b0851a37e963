// Copyright 2024 Google LLC
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

// Package resourcewrapper provides helper methods to work with decoded JSON FHIR resources, as
// they appear inside a bundle entry or a retriever result.
package resourcewrapper

import "fmt"

// ResourceWrapper holds helper methods to work with a decoded JSON FHIR resource.
type ResourceWrapper struct {
	Resource map[string]any
}

// New returns a ResourceWrapper that wraps the decoded JSON resource.
func New(in map[string]any) *ResourceWrapper {
	return &ResourceWrapper{
		Resource: in,
	}
}

// ResourceType gets the resourceType field of the underlying resource, e.g. "Patient".
func (m *ResourceWrapper) ResourceType() (string, error) {
	if m.Resource == nil {
		return "", fmt.Errorf("resource is nil")
	}
	rt, ok := m.Resource["resourceType"].(string)
	if !ok || rt == "" {
		return "", fmt.Errorf("no resource type was populated")
	}
	return rt, nil
}

// ResourceID gets the id field of the underlying resource.
func (m *ResourceWrapper) ResourceID() (string, error) {
	if m.Resource == nil {
		return "", fmt.Errorf("resource is nil")
	}
	id, ok := m.Resource["id"].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("resource is missing an id field")
	}
	return id, nil
}
