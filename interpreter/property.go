// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package interpreter

import (
	"fmt"
	"strings"
	"time"

	"github.com/clinacode/cql/internal/datehelpers"
	"github.com/clinacode/cql/model"
	"github.com/clinacode/cql/result"
	"github.com/clinacode/cql/types"
)

// evalProperty evaluates the ELM property expression passed in.
func (i *interpreter) evalProperty(expr *model.Property) (result.Value, error) {
	if expr.Source == nil {
		return result.Value{}, fmt.Errorf("internal error - source must be populated when accessing property %s", expr.Path)
	}
	obj, err := i.evalExpression(expr.Source)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(obj) {
		return result.NewWithSources(nil, expr, obj)
	}
	subObj, err := i.valueProperty(obj, expr.Path, expr.GetResultType())
	if err != nil {
		return result.Value{}, err
	}
	return subObj.WithSources(expr, obj), nil
}

// valueProperty computes the specified property on the given result.Value.
func (i *interpreter) valueProperty(v result.Value, property string, staticResultType types.IType) (result.Value, error) {
	if property == "" {
		return v, nil
	}

	switch ot := v.GolangValue().(type) {
	case result.Tuple:
		elem, ok := ot.Value[property]
		if !ok {
			// The parser should have already validated that this is a valid property for the Tuple or
			// Class type. If is not set in map return null.
			return result.New(nil)
		}
		return elem, nil
	case result.Named:
		return i.namedProperty(ot, property, staticResultType)
	case result.List:
		return i.listProperty(ot, property, staticResultType)
	case result.Interval:
		switch property {
		case "low":
			return ot.Low, nil
		case "high":
			return ot.High, nil
		case "lowClosed":
			return result.New(ot.LowInclusive)
		case "highClosed":
			return result.New(ot.HighInclusive)
		default:
			return result.Value{}, fmt.Errorf("property %s is not supported on Intervals", property)
		}
	case result.Quantity:
		switch property {
		case "value":
			return result.New(ot.Value)
		case "unit":
			return result.New(string(ot.Unit))
		default:
			return result.Value{}, fmt.Errorf("property %s is not supported on %v", property, types.Quantity)
		}
	case result.Code:
		switch property {
		case "code":
			return result.New(ot.Code)
		case "system":
			return result.New(ot.System)
		case "version":
			return result.New(ot.Version)
		case "display":
			return result.New(ot.Display)
		default:
			return result.Value{}, fmt.Errorf("property %s is not supported on %v", property, types.Code)
		}
	case result.Concept:
		switch property {
		case "codes":
			return result.New(ot.Codes)
		case "display":
			return result.New(ot.Display)
		default:
			return result.Value{}, fmt.Errorf("property %s is not supported on %v", property, types.Concept)
		}
	case result.ValueSet:
		switch property {
		case "id":
			return result.New(ot.ID)
		case "version":
			return result.New(ot.Version)
		default:
			return result.Value{}, fmt.Errorf("property %s is not supported on %v", property, types.ValueSet)
		}
	case result.CodeSystem:
		switch property {
		case "id":
			return result.New(ot.ID)
		case "version":
			return result.New(ot.Version)
		default:
			return result.Value{}, fmt.Errorf("property %s is not supported on %v", property, types.CodeSystem)
		}
		// TODO(b/301606416): Support Ratio and Vocabulary properties.
	default:
		return result.Value{}, fmt.Errorf("unable to eval property %s on unsupported type %v", property, ot)
	}
}

// namedProperty computes a property access on a result.Named value, where Value holds generic
// decoded JSON (typically a map[string]any decoded from a retrieved resource). This mirrors
// path-based property access over a FHIR-shaped JSON document rather than a generated proto.
func (i *interpreter) namedProperty(source result.Named, property string, staticResultType types.IType) (result.Value, error) {
	// FHIR primitive types (FHIR.boolean, FHIR.string, FHIR.dateTime, ...) wrap a bare decoded-JSON
	// scalar rather than a map, since FHIR JSON represents e.g. Patient.active as a raw `true`, not
	// an object. Accessing .value on such a wrapper unwraps the underlying scalar.
	if _, isMap := source.Value.(map[string]any); !isMap && property == "value" {
		switch source.RuntimeType.TypeName {
		case "FHIR.dateTime", "FHIR.time", "FHIR.date":
			return handleDateTimeValueProperty(source.Value, source.RuntimeType.TypeName, i.evaluationTimestamp.Location())
		}
		return result.New(source.Value)
	}

	m, ok := source.Value.(map[string]any)
	if !ok {
		if source.Value == nil {
			return result.New(nil)
		}
		return result.Value{}, fmt.Errorf("internal error - cannot access property %v on Named type %v with underlying golang value %T", property, source.RuntimeType, source.Value)
	}

	sub, ok := m[property]
	if !ok {
		// FHIR choice-typed elements (value[x], effective[x], ...) are declared in modelinfo under
		// their base name (e.g. "effective") but are serialized in JSON under a type-suffixed key
		// (e.g. "effectiveDateTime"). Resolve the concrete key and narrow the static type to match.
		if choice, isChoice := staticResultType.(*types.Choice); isChoice {
			key, narrowedType, found := choiceFieldKey(m, property, choice)
			if !found {
				return result.New(nil)
			}
			return namedValueToResult(m[key], property, narrowedType)
		}
		// An absent JSON key is a Null property only if the data model declares the property.
		if source.RuntimeType != nil {
			if _, err := i.modelInfo.PropertyTypeSpecifier(source.RuntimeType, property); err != nil {
				return result.Value{}, err
			}
		}
		return result.New(nil)
	}

	return namedValueToResult(sub, property, staticResultType)
}

// choiceFieldKey finds which type-suffixed JSON key (e.g. "effectiveDateTime") is actually present
// in m for a choice-typed property (e.g. "effective"), returning the matched key and the specific
// choice type it corresponds to.
func choiceFieldKey(m map[string]any, property string, choice *types.Choice) (string, types.IType, bool) {
	for _, ct := range choice.ChoiceTypes {
		named, ok := ct.(*types.Named)
		if !ok {
			continue
		}
		suffix := named.TypeName
		if idx := strings.LastIndex(suffix, "."); idx >= 0 {
			suffix = suffix[idx+1:]
		}
		if suffix == "" {
			continue
		}
		key := property + strings.ToUpper(suffix[:1]) + suffix[1:]
		if _, ok := m[key]; ok {
			return key, ct, true
		}
	}
	return "", nil, false
}

// namedValueToResult converts a raw decoded-JSON value (sub) found at property into a typed
// result.Value, given the expected static result type of that property.
func namedValueToResult(sub any, property string, staticResultType types.IType) (result.Value, error) {
	switch typed := sub.(type) {
	case []any:
		return sliceToValue(typed, staticResultType)
	case map[string]any:
		namedResultType, ok := staticResultType.(*types.Named)
		if !ok {
			return result.Value{}, fmt.Errorf("internal error - expected property %v to have a Named static result type, got: %v", property, staticResultType)
		}
		return result.New(result.Named{Value: typed, RuntimeType: namedResultType})
	default:
		// A FHIR primitive property (e.g. Patient.active) is a bare scalar in decoded JSON but is
		// still modeled as a Named FHIR.* type so that a later .value access can unwrap it.
		if namedResultType, ok := staticResultType.(*types.Named); ok {
			return result.New(result.Named{Value: sub, RuntimeType: namedResultType})
		}
		obj, err := result.New(sub)
		if err != nil {
			return result.Value{}, fmt.Errorf("error at property %s: %w", property, err)
		}
		return obj, nil
	}
}

// handleDateTimeValueProperty computes the value property for FHIR.date, FHIR.dateTime and
// FHIR.time, whose .value property is a bare string in decoded JSON.
func handleDateTimeValueProperty(raw any, fieldTypeName string, evaluationLoc *time.Location) (result.Value, error) {
	str, ok := raw.(string)
	if !ok {
		if raw == nil {
			return result.New(nil)
		}
		return result.Value{}, fmt.Errorf("internal error - handleDateTimeValueProperty expected a string, got: %T", raw)
	}
	switch fieldTypeName {
	case "FHIR.date":
		t, prec, err := datehelpers.ParseDataModelDate(str, evaluationLoc)
		if err != nil {
			return result.Value{}, err
		}
		return result.New(result.Date{Date: t, Precision: prec})
	case "FHIR.dateTime":
		t, prec, err := datehelpers.ParseDataModelDateTime(str, evaluationLoc)
		if err != nil {
			return result.Value{}, err
		}
		return result.New(result.DateTime{Date: t, Precision: prec})
	}
	// TODO: add support for FHIR.time, which uses a distinct hh:mm:ss[.fff] layout with no date
	// portion.
	return result.Value{}, fmt.Errorf("internal error - handleDateTimeValueProperty got an unsupported field type: %v", fieldTypeName)
}

func (i *interpreter) listProperty(l result.List, property string, staticResultType types.IType) (result.Value, error) {
	// The result type should be a list, so let's check that and grab the element type.
	resultListType, ok := staticResultType.(*types.List)
	if !ok {
		return result.Value{}, fmt.Errorf("internal error -- evalPropertyList expects a staticResultType of list, got :%v", staticResultType.String())
	}
	var subList []result.Value
	for idx, elem := range l.Value {
		// To compute a property on a list, we compute the property on each element (elem) in the list
		// and return the combined result list. In cases where the output is a list of lists, the inner
		// lists are later flattened. Because of this, it is possible that the property evaluation for a
		// given element will result in a runtime list but the parser resultListType.ElementType will
		// _not_ be a list for properties that were nested, because the flattening happens after the
		// element property computation. This flattening is defined
		// in https://build.fhir.org/ig/HL7/cql/03-developersguide.html#path-traversal and implemented
		// in the parser static type computation in the internal/modelinfo package.
		//
		// For evalPropertyValue(elem, elemResultType), we want to ensure the passed elemResultType
		// will match the interim runtime type, even in cases where flattening may be later applied. To
		// ensure this, we recompute the property result type using the type helper directly on the list
		// element (elem.property) instead of relying on the parser resultType, where flattening may
		// have been applied.
		//
		// For example, consider the property name.given, where both name and given are repeated:
		// name: [{given: ["a", "b"]}, {given: ["c", "d"]}]
		// Evaluating ".given" should result in ["a", "b", "c", "d"], a flattened list in CQL for the
		// completed computation of evalPropertyList. The parser result type would be List<String>, with
		// the element type being String. However, inside this loop we compute the property
		// ".given" for each input name in the list. When computing a property on a single name element
		// inside this loop (e.g. {given: ["a", "b"]}) the property should result in a runtime slice
		// (["a", "b"]) for each element, so we must ensure we actually pass List<String> for this
		// element result type instead of just String, which would be the parser result type's element
		// type.
		elemResultType, err := i.modelInfo.PropertyTypeSpecifier(elem.RuntimeType(), property)
		if err != nil {
			return result.Value{}, err
		}
		subObj, err := i.valueProperty(elem, property, elemResultType)
		if err != nil {
			return result.Value{}, fmt.Errorf("at index %d: %w", idx, err)
		}

		isSub, err := i.modelInfo.IsSubType(subObj.RuntimeType(), &types.List{ElementType: types.Any})
		if err != nil {
			return result.Value{}, err
		}
		if isSub {
			// When accessing repeated fields such as Patient.name.given we want to return a list of all
			// given's in all names. This flattens the givens into a single list.
			subList = append(subList, subObj.GolangValue().(result.List).Value...)
		} else {
			subList = append(subList, subObj)
		}
	}
	return result.New(result.List{Value: subList, StaticType: resultListType})
}

// sliceToValue takes a slice of decoded JSON values ([]any) and converts it to a properly typed
// *result.List Value, based on the expected static result type of the overall slice (listType).
func sliceToValue(v []any, staticResultType types.IType) (result.Value, error) {
	listType, ok := staticResultType.(*types.List)
	if !ok {
		return result.Value{}, fmt.Errorf("internal error -- sliceToValue expects a staticResultType of list, got :%v", staticResultType.String())
	}

	l := make([]result.Value, len(v))
	for idx, val := range v {
		switch typedVal := val.(type) {
		case map[string]any:
			elementType, ok := listType.ElementType.(*types.Named)
			if !ok {
				return result.Value{}, fmt.Errorf("internal error -- sliceToValue expects a staticResultType of list with named elements, got :%v", staticResultType.String())
			}
			o, err := result.New(result.Named{Value: typedVal, RuntimeType: elementType})
			if err != nil {
				return result.Value{}, fmt.Errorf("unable to create Value at index %d: %w", idx, err)
			}
			l[idx] = o
			continue
		case []any:
			// This means we have a nested list. This would happen when computing "value" property on
			// something like {"value": [[1,2], [3,4]]}.
			innerList, ok := listType.ElementType.(*types.List)
			if !ok {
				return result.Value{}, fmt.Errorf("internal error -- sliceToValue got element value of type Slice, so expected it to be a list but got :%v", listType.ElementType)
			}
			o, err := sliceToValue(typedVal, innerList)
			if err != nil {
				return result.Value{}, fmt.Errorf("unable to create Value at index %d: %w", idx, err)
			}
			l[idx] = o
			continue
		}

		// Other primitive types. If the list holds FHIR primitives (e.g. a list of FHIR.string), wrap
		// each bare scalar as a Named value so a later .value access can unwrap it.
		var o result.Value
		var err error
		if namedResultType, ok := listType.ElementType.(*types.Named); ok {
			o, err = result.New(result.Named{Value: val, RuntimeType: namedResultType})
		} else {
			o, err = result.New(val)
		}
		if err != nil {
			return result.Value{}, fmt.Errorf("unable to create Value at index %d: %w", idx, err)
		}
		l[idx] = o
	}
	return result.New(result.List{Value: l, StaticType: listType})
}
