package result

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/clinacode/cql/decimal"
	"github.com/clinacode/cql/internal/datehelpers"
	"github.com/clinacode/cql/model"
	"github.com/clinacode/cql/types"
)

// Value is a CQL Value evaluated by the interpreter.
type Value struct {
	goValue     any
	runtimeType types.IType
	sourceExpr  model.IExpression
	sourceVals  []Value
}

// GolangValue returns the underlying Golang value representing the CQL value. Specifically:
// CQL Null returns Golang nil
// CQL Boolean returns Golang bool
// CQL String returns Golang string
// CQL Integer returns Golang int32
// CQL Long returns Golang int64
// CQL Decimal returns a decimal.Decimal
// CQL Quantity returns Golang Quantity struct
// CQL Ratio returns Golang Ratio struct
// CQL Date returns Golang Date struct
// CQL DateTime returns Golang DateTime struct
// CQL Time returns Golang Time struct
// CQL Interval returns Golang Interval struct
// CQL List returns Golang List struct
// CQL Tuple returns Golang Tuple struct
// CQL Named (a type defined in the data model) returns Golang Named struct
// CQL CodeSystem returns Golang CodeSystem struct
// CQL ValueSet returns Golang ValueSet struct
// CQL Concept returns Golang Concept struct
// CQL Code returns Golang Code struct
//
// You can call GolangValue() and type switch to handle values. Alternatively, if you know that the
// result will be a specific type such as an int32, it is recommended to use the result.ToInt32()
// helper function.
func (v Value) GolangValue() any { return v.goValue }

// RuntimeType returns the type used by the Is system operator
// https://cql.hl7.org/09-b-cqlreference.html#is. This may be different than the type statically
// determined by the analyzer. For example, if the analyzer statically determined the type to be
// Choice<String, Integer> the runtime type will be the actual type during evaluation, either
// Integer, String or Null. In some cases where a runtime type is not known (for example an empty
// list, or an interval whose low and high are both null) this falls back to the static type.
func (v Value) RuntimeType() types.IType {
	switch t := v.goValue.(type) {
	case Interval:
		return inferIntervalType(t)
	case List:
		return inferListType(t.Value, t.StaticType)
	default:
		return v.runtimeType
	}
}

// SourceExpression is the CQL expression that created this value. For instance, if the returned
// result is from the CQL expression "a < b", the source expression will be the `model.Less` struct.
func (v Value) SourceExpression() model.IExpression { return v.sourceExpr }

// SourceValues returns the underlying values that were used by the SourceExpression to compute the
// returned value. The ordering of source values is not guaranteed to have any meaning, although
// expressions that produce them should attempt to preserve order when it does have meaning. For
// instance, for the value returned by "a < b", the source values are `a` and `b`.
//
// Source values have their own sources, creating a recursive tree structure that allows callers to
// trace through the tree of expressions and values used to create a result.
func (v Value) SourceValues() []Value { return v.sourceVals }

// For simple types, we can just marshal the value and type.
// More complex representations are handled in marshalJSON() functions of specific types.
type simpleJSONMessage struct {
	Type  json.RawMessage `json:"@type"`
	Value any             `json:"value"`
}

// customJSONMarshaler is implemented by types that need to render their own JSON representation,
// i.e. types whose wire shape isn't just {"@type": ..., "value": ...}.
type customJSONMarshaler interface {
	marshalJSON(json.RawMessage) ([]byte, error)
}

// MarshalJSON returns the value as a JSON string, loosely following the shape described by the
// CQL-Serialization spec: https://github.com/cqframework/clinical_quality_language/wiki/CQL-Serialization
func (v Value) MarshalJSON() ([]byte, error) {
	rt, err := v.RuntimeType().MarshalJSON()
	if err != nil {
		return nil, err
	}

	switch gv := v.goValue.(type) {
	case customJSONMarshaler:
		return gv.marshalJSON(rt)
	case bool, int32, int64, string, nil:
		return json.Marshal(simpleJSONMessage{
			Value: gv,
			Type:  rt,
		})
	case decimal.Decimal:
		return json.Marshal(simpleJSONMessage{
			Value: json.RawMessage(gv.String()),
			Type:  rt,
		})
	case Date:
		date, err := datehelpers.DateString(gv.Date, gv.Precision)
		if err != nil {
			return nil, err
		}
		return json.Marshal(simpleJSONMessage{
			Type:  rt,
			Value: date,
		})
	case DateTime:
		dt, err := datehelpers.DateTimeString(gv.Date, gv.Precision)
		if err != nil {
			return nil, err
		}
		return json.Marshal(simpleJSONMessage{
			Type:  rt,
			Value: dt,
		})
	case Time:
		t, err := datehelpers.TimeString(gv.Date, gv.Precision)
		if err != nil {
			return nil, err
		}
		return json.Marshal(simpleJSONMessage{
			Type:  rt,
			Value: t,
		})
	case List:
		// Lists don't embed the type so they can be directly marshalled.
		return json.Marshal(gv.Value)
	case Tuple:
		// Tuples don't embed the type so they can be directly marshalled.
		return json.Marshal(gv.Value)
	default:
		return nil, fmt.Errorf("tried to marshal unsupported type %T, %w", gv, errUnsupportedType)
	}
}

// Equal is our custom implementation of equality used primarily by cmp.Diff in tests. This is not
// CQL equality. Equal only compares the GolangValue and RuntimeType, ignoring SourceExpression and
// SourceValues.
func (v Value) Equal(a Value) bool {
	if !v.RuntimeType().Equal(a.RuntimeType()) {
		return false
	}

	switch t := v.goValue.(type) {
	case decimal.Decimal:
		vDec, ok := a.GolangValue().(decimal.Decimal)
		if !ok {
			return false
		}
		return t.Equal(vDec)
	case Date:
		vDate, ok := a.GolangValue().(Date)
		if !ok {
			return false
		}
		return t.Equal(vDate)
	case DateTime:
		vDateTime, ok := a.GolangValue().(DateTime)
		if !ok {
			return false
		}
		return t.Equal(vDateTime)
	case Time:
		vTime, ok := a.GolangValue().(Time)
		if !ok {
			return false
		}
		return t.Equal(vTime)
	case Interval:
		vInterval, ok := a.GolangValue().(Interval)
		if !ok {
			return false
		}
		return t.Equal(vInterval)
	case List:
		vList, ok := a.GolangValue().(List)
		if !ok {
			return false
		}
		return t.Equal(vList)
	case Tuple:
		vTuple, ok := a.GolangValue().(Tuple)
		if !ok {
			return false
		}
		return t.Equal(vTuple)
	case Named:
		vNamed, ok := a.GolangValue().(Named)
		if !ok {
			return false
		}
		return t.Equal(vNamed)
	case ValueSet:
		vValueSet, ok := a.GolangValue().(ValueSet)
		if !ok {
			return false
		}
		return t.Equal(vValueSet)
	case Concept:
		vConcept, ok := a.GolangValue().(Concept)
		if !ok {
			return false
		}
		return t.Equal(vConcept)
	default:
		return v.GolangValue() == a.GolangValue()
	}
}

var errUnsupportedType = errors.New("unsupported type")

// New converts Golang values to CQL values. This function should be used when creating values from
// call sites where the supporting sources are not known; use NewWithSources when they are. See the
// GolangValue doc comment above for the full type correspondence table.
func New(val any) (Value, error) {
	if val == nil {
		return Value{runtimeType: types.Any, goValue: nil}, nil
	}
	switch v := val.(type) {
	case int:
		return Value{runtimeType: types.Integer, goValue: int32(v)}, nil
	case int32:
		return Value{runtimeType: types.Integer, goValue: v}, nil
	case int64:
		return Value{runtimeType: types.Long, goValue: v}, nil
	case decimal.Decimal:
		return Value{runtimeType: types.Decimal, goValue: v}, nil
	case float64:
		d, err := decimal.NewFromFloat(v)
		if err != nil {
			return Value{}, fmt.Errorf("could not convert float64 %v to a CQL Decimal: %w", v, err)
		}
		return Value{runtimeType: types.Decimal, goValue: d}, nil
	case Quantity:
		return Value{runtimeType: types.Quantity, goValue: v}, nil
	case Ratio:
		return Value{runtimeType: types.Ratio, goValue: v}, nil
	case bool:
		return Value{runtimeType: types.Boolean, goValue: v}, nil
	case string:
		return Value{runtimeType: types.String, goValue: v}, nil
	case Date:
		switch v.Precision {
		case model.YEAR, model.MONTH, model.DAY, model.UNSETDATETIMEPRECISION:
			return Value{runtimeType: types.Date, goValue: v}, nil
		}
		return Value{}, fmt.Errorf("unsupported precision in Date with value %v %w", v.Precision, datehelpers.ErrUnsupportedPrecision)
	case DateTime:
		switch v.Precision {
		case model.YEAR,
			model.MONTH,
			model.DAY,
			model.HOUR,
			model.MINUTE,
			model.SECOND,
			model.MILLISECOND,
			model.UNSETDATETIMEPRECISION:
			return Value{runtimeType: types.DateTime, goValue: v}, nil
		}
		return Value{}, fmt.Errorf("unsupported precision in DateTime with value %v %w", v.Precision, datehelpers.ErrUnsupportedPrecision)
	case Time:
		switch v.Precision {
		case model.HOUR, model.MINUTE, model.SECOND, model.MILLISECOND, model.UNSETDATETIMEPRECISION:
			if v.Date.Year() != 0 || v.Date.Month() != 1 || v.Date.Day() != 1 {
				return Value{}, fmt.Errorf("internal error - Time must be Year 0000, Month 01, Day 01, instead got %v", v.Date)
			}
			return Value{runtimeType: types.Time, goValue: v}, nil
		}
		return Value{}, fmt.Errorf("unsupported precision in Time with value %v %w", v.Precision, datehelpers.ErrUnsupportedPrecision)
	case Interval:
		// RuntimeType is not set here because it is inferred when RuntimeType() is called.
		return Value{goValue: v}, nil
	case List:
		// RuntimeType is not set here because it is inferred when RuntimeType() is called.
		return Value{goValue: v}, nil
	case Named:
		return Value{runtimeType: v.RuntimeType, goValue: v}, nil
	case Tuple:
		return Value{runtimeType: v.RuntimeType, goValue: v}, nil
	case CodeSystem:
		if v.ID == "" {
			return Value{}, fmt.Errorf("%v must have an ID", types.CodeSystem)
		}
		return Value{runtimeType: types.CodeSystem, goValue: v}, nil
	case Concept:
		if len(v.Codes) == 0 {
			return Value{}, fmt.Errorf("%v must have at least one %v", types.Concept, types.Code)
		}
		return Value{runtimeType: types.Concept, goValue: v}, nil
	case ValueSet:
		if v.ID == "" {
			return Value{}, fmt.Errorf("%v must have an ID", types.ValueSet)
		}
		return Value{runtimeType: types.ValueSet, goValue: v}, nil
	case Code:
		if v.Code == "" {
			return Value{}, fmt.Errorf("%v must have a Code", types.Code)
		}
		return Value{runtimeType: types.Code, goValue: v}, nil
	default:
		return Value{}, fmt.Errorf("%T %w", v, errUnsupportedType)
	}
}

// NewWithSources converts Golang values to CQL values when the sources are known. See New()
// for the full type correspondence table.
func NewWithSources(val any, sourceExp model.IExpression, sourceObjs ...Value) (Value, error) {
	o, err := New(val)
	if err != nil {
		return Value{}, err
	}
	return o.WithSources(sourceExp, sourceObjs...), nil
}

// WithSources returns a version of the value with the given sources. This function has the
// following semantics to ensure all child values and expressions are recursively preserved as
// values propagate through the evaluation tree:
//
// First, if the value already has sources, this creates a copy of that value with the newly
// provided sources, so the original and its sources are preserved. An value with existing sources
// is therefore never mutated and can be safely stored or reused across many consuming expressions.
//
// Second, if a caller does not explicitly provide a new set of source values, this function uses
// the existing value it is invoked on as the source. For instance, function implementations can do
// this to propagate a trace up the call stack by simply calling
// `valueToReturn.WithSources(theFunctionExpression)` prior to returning.
func (v Value) WithSources(sourceExp model.IExpression, sourceObjs ...Value) Value {
	if v.sourceExpr == nil {
		v.sourceExpr = sourceExp
		v.sourceVals = sourceObjs
		return v
	}

	if len(sourceObjs) == 0 {
		return Value{runtimeType: v.runtimeType, goValue: v.goValue, sourceExpr: sourceExp, sourceVals: []Value{v}}
	}
	return Value{runtimeType: v.runtimeType, goValue: v.goValue, sourceExpr: sourceExp, sourceVals: sourceObjs}
}

// Quantity represents a decimal value with an associated unit string.
type Quantity struct {
	Value float64
	Unit  model.Unit
}

func (q Quantity) marshalJSON(t json.RawMessage) ([]byte, error) {
	return json.Marshal(struct {
		Type  json.RawMessage `json:"@type"`
		Value float64         `json:"value"`
		Unit  string          `json:"unit"`
	}{
		Type:  t,
		Value: q.Value,
		Unit:  string(q.Unit),
	})
}

// Ratio represents a ratio of two quantities.
type Ratio struct {
	Numerator   Quantity
	Denominator Quantity
}

func (r Ratio) marshalJSON(t json.RawMessage) ([]byte, error) {
	quantityType, err := types.Quantity.MarshalJSON()
	if err != nil {
		return nil, err
	}
	marshalledNumerator, err := r.Numerator.marshalJSON(quantityType)
	if err != nil {
		return nil, err
	}
	marshalledDenominator, err := r.Denominator.marshalJSON(quantityType)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Type        json.RawMessage `json:"@type"`
		Numerator   json.RawMessage `json:"numerator"`
		Denominator json.RawMessage `json:"denominator"`
	}{
		Type:        t,
		Numerator:   marshalledNumerator,
		Denominator: marshalledDenominator,
	})
}

// Date is the Golang representation of a CQL Date. CQL Dates do not have timezone offsets, but
// Golang time.Time requires a location. The time.Time should always have the offset of the
// evaluation timestamp. The precision is Year, Month or Day.
type Date DateTime

// Equal returns true if this Date matches the provided one, otherwise false.
func (d Date) Equal(v Date) bool {
	return DateTime(d).Equal(DateTime(v))
}

// DateTime is the Golang representation of a CQL DateTime. The time.Time may carry different
// offsets. The precision is anything from Year to Millisecond.
type DateTime struct {
	Date      time.Time
	Precision model.DateTimePrecision
}

// Equal returns true if this DateTime matches the provided one, otherwise false.
func (d DateTime) Equal(v DateTime) bool {
	if !d.Date.Equal(v.Date) {
		return false
	}
	if d.Precision != v.Precision {
		return false
	}
	return true
}

// Time is the Golang representation of a CQL Time. CQL Times do not have year, month, day or a
// timezone, but Golang time.Time does. We use the date 0000-01-01 and timezone UTC for all golang
// time.Time values representing a Time. The precision is between Hour and Millisecond.
type Time DateTime

// Equal returns true if this Time matches the provided one, otherwise false.
func (t Time) Equal(v Time) bool {
	return DateTime(t).Equal(DateTime(v))
}

// Interval is the Golang representation of a CQL Interval.
type Interval struct {
	Low           Value
	High          Value
	LowInclusive  bool
	HighInclusive bool
	// StaticType is used for the RuntimeType() of the interval when the interval contains only
	// runtime nulls (meaning the runtime type cannot be reliably inferred).
	StaticType *types.Interval
}

// Equal returns true if this Interval matches the provided one, otherwise false.
func (i Interval) Equal(v Interval) bool {
	if !i.StaticType.Equal(v.StaticType) {
		return false
	}
	if !i.Low.Equal(v.Low) || !i.High.Equal(v.High) || i.LowInclusive != v.LowInclusive || i.HighInclusive != v.HighInclusive || !i.StaticType.Equal(v.StaticType) {
		return false
	}
	return true
}

func inferIntervalType(i Interval) types.IType {
	if !IsNull(i.Low) {
		return &types.Interval{PointType: i.Low.RuntimeType()}
	}
	if !IsNull(i.High) {
		return &types.Interval{PointType: i.High.RuntimeType()}
	}
	return i.StaticType
}

func (i Interval) marshalJSON(t json.RawMessage) ([]byte, error) {
	low, err := i.Low.MarshalJSON()
	if err != nil {
		return nil, err
	}
	high, err := i.High.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Type          json.RawMessage `json:"@type"`
		Low           json.RawMessage `json:"low"`
		High          json.RawMessage `json:"high"`
		LowInclusive  bool            `json:"lowClosed"`
		HighInclusive bool            `json:"highClosed"`
	}{
		Type:          t,
		Low:           low,
		High:          high,
		LowInclusive:  i.LowInclusive,
		HighInclusive: i.HighInclusive,
	})
}

// List is the Golang representation of a CQL List.
type List struct {
	Value []Value
	// StaticType is used for the RuntimeType() of the list when the list is empty.
	StaticType *types.List
}

// Equal returns true if this List matches the provided one, otherwise false.
func (l List) Equal(v List) bool {
	if !l.StaticType.Equal(v.StaticType) {
		return false
	}
	if len(l.Value) != len(v.Value) {
		return false
	}
	for idx, obj := range l.Value {
		if !obj.Equal(v.Value[idx]) {
			return false
		}
	}
	return true
}

func inferListType(l []Value, staticType types.IType) types.IType {
	// The analyzer should have already done type inference and conversions according to
	// https://cql.hl7.org/03-developersguide.html#literals-and-selectors, if necessary for a List
	// literal without a type specifier.
	//
	// At runtime, we simply return the runtime type of the first element, or fall back to the
	// static type if the list is empty.
	if len(l) == 0 {
		return staticType
	}
	return &types.List{ElementType: l[0].RuntimeType()}
}

// Named is the Golang representation of a CQL Class (aka a CQL Named Structured Value), e.g. a
// FHIR.Patient retrieved from the data retrieval adapter. The underlying model resource is held as
// a plain decoded JSON value (map[string]any, []any, or a scalar) rather than a generated struct,
// since the data model is pluggable and described only by its ModelInfo at runtime.
type Named struct {
	Value any
	// RuntimeType is the runtime type of this value. Often the same as the static named type, but
	// for Choice types the caller should resolve this to the specific runtime type.
	RuntimeType *types.Named
}

func (n Named) marshalJSON(_ json.RawMessage) ([]byte, error) {
	v, err := json.Marshal(n.Value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Type  types.IType     `json:"@type"`
		Value json.RawMessage `json:"value"`
	}{
		Type:  n.RuntimeType,
		Value: v,
	})
}

// Equal returns true if this Named matches the provided one, otherwise false.
func (n Named) Equal(v Named) bool {
	if !n.RuntimeType.Equal(v.RuntimeType) {
		return false
	}
	nb, err1 := json.Marshal(n.Value)
	vb, err2 := json.Marshal(v.Value)
	if err1 != nil || err2 != nil {
		return false
	}
	return string(nb) == string(vb)
}

// Tuple is the Golang representation of a CQL Tuple (aka a CQL Structured Value).
type Tuple struct {
	// Value is the map of element name to CQL Value.
	Value map[string]Value
	// RuntimeType could be a tuple type, or, if this was a Class instance, the class type
	// (FHIR.Patient, System.Quantity, ...). For Choice types this should resolve to the specific
	// runtime type.
	RuntimeType types.IType
}

// Equal returns true if this Tuple matches the provided one, otherwise false.
func (t Tuple) Equal(vTuple Tuple) bool {
	if !t.RuntimeType.Equal(vTuple.RuntimeType) {
		return false
	}
	if len(t.Value) != len(vTuple.Value) {
		return false
	}
	for k, v := range t.Value {
		if !v.Equal(vTuple.Value[k]) {
			return false
		}
	}
	return true
}

// ValueSet is the Golang representation of a CQL ValueSet.
type ValueSet struct {
	ID      string // 1..1
	Version string // 0..1
	// Unlike the CQL reference model we do not include the local name, since it is not useful once
	// resolved to a value.
	CodeSystems []CodeSystem // 0..*
}

// Equal returns true if this ValueSet matches the provided one, otherwise false.
func (v ValueSet) Equal(a ValueSet) bool {
	if v.ID != a.ID ||
		v.Version != a.Version ||
		len(v.CodeSystems) != len(a.CodeSystems) {
		return false
	}
	slices.SortFunc(v.CodeSystems, compareCodeSystem)
	slices.SortFunc(a.CodeSystems, compareCodeSystem)
	for i, c := range a.CodeSystems {
		if c != v.CodeSystems[i] {
			return false
		}
	}
	return true
}

func (v ValueSet) marshalJSON(runtimeType json.RawMessage) ([]byte, error) {
	var cs []byte
	if len(v.CodeSystems) > 0 {
		var err error
		if cs, err = json.Marshal(v.CodeSystems); err != nil {
			return nil, err
		}
	}

	return json.Marshal(struct {
		Type        json.RawMessage `json:"@type"`
		ID          string          `json:"id"`
		Version     string          `json:"version,omitempty"`
		CodeSystems json.RawMessage `json:"codesystems,omitempty"`
	}{
		Type:        runtimeType,
		ID:          v.ID,
		Version:     v.Version,
		CodeSystems: cs,
	})
}

// CodeSystem is the Golang representation of a CQL CodeSystem.
type CodeSystem struct {
	ID      string // 1..1
	Version string // 0..1
}

func (c CodeSystem) marshalJSON(runtimeType json.RawMessage) ([]byte, error) {
	return json.Marshal(struct {
		Type    json.RawMessage `json:"@type"`
		ID      string          `json:"id"`
		Version string          `json:"version,omitempty"`
	}{
		Type:    runtimeType,
		ID:      c.ID,
		Version: c.Version,
	})
}

func compareCodeSystem(a, b CodeSystem) int {
	if a.ID != b.ID {
		return strings.Compare(a.ID, b.ID)
	}
	return strings.Compare(a.Version, b.Version)
}

// Concept is the Golang representation of a CQL Concept.
type Concept struct {
	Codes   []Code // 1..*
	Display string // 0..1
}

// Equal returns true if this Concept matches the provided one, otherwise false.
func (c Concept) Equal(v Concept) bool {
	if len(c.Codes) != len(v.Codes) || c.Display != v.Display {
		return false
	}
	slices.SortFunc(c.Codes, compareCode)
	slices.SortFunc(v.Codes, compareCode)
	for i, c := range c.Codes {
		if c != v.Codes[i] {
			return false
		}
	}
	return true
}

func (c Concept) marshalJSON(runtimeType json.RawMessage) ([]byte, error) {
	codeType, err := types.Code.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var codes []json.RawMessage
	for _, code := range c.Codes {
		code, err := code.marshalJSON(codeType)
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}

	return json.Marshal(struct {
		Type    json.RawMessage   `json:"@type"`
		Codes   []json.RawMessage `json:"codes"`
		Display string            `json:"display,omitempty"`
	}{
		Type:    runtimeType,
		Codes:   codes,
		Display: c.Display,
	})
}

// Code is the Golang representation of a CQL Code.
type Code struct {
	Code    string // 1..1
	Display string // 0..1
	System  string // 0..1
	Version string // 0..1
}

func (c Code) marshalJSON(runtimeType json.RawMessage) ([]byte, error) {
	return json.Marshal(struct {
		Type    json.RawMessage `json:"@type"`
		Code    string          `json:"code"`
		Display string          `json:"display,omitempty"`
		System  string          `json:"system"`
		Version string          `json:"version,omitempty"`
	}{
		Type:    runtimeType,
		Code:    c.Code,
		Display: c.Display,
		System:  c.System,
		Version: c.Version,
	})
}

// compareCode is used for sorting in Equal(). Unlike CQL equality, this comparison does not
// ignore Display.
func compareCode(a, b Code) int {
	if a.Code != b.Code {
		return strings.Compare(a.Code, b.Code)
	} else if a.System != b.System {
		return strings.Compare(a.System, b.System)
	} else if a.Version != b.Version {
		return strings.Compare(a.Version, b.Version)
	}
	return strings.Compare(a.Display, b.Display)
}
