// Package types holds the CQL/ELM type lattice used by both the translator and the evaluator.
//
// The lattice roots at System.Any. System types are the built-in primitives; Named types are
// declared by a ModelInfo (for example FHIR.Patient); List, Interval, Choice and Tuple are
// structural types built from other types.
package types

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// IType is implemented by every node in the CQL type lattice.
type IType interface {
	// Equal is a strict equal. X.Equal(Y) is true when X and Y are the exact same type.
	Equal(IType) bool

	// String returns a print friendly representation of the type.
	String() string

	// ModelInfoName returns the key for this type in the model info. For Named and System types
	// this is the fully qualified name (FHIR.Patient, System.Integer). For structural types the CQL
	// type specifier syntax is used with fully qualified inner names (Interval<System.Integer>,
	// Choice<System.Integer, System.String>, Tuple { address System.String }). Tuple and Choice inner
	// types are sorted alphabetically so the name
	// is deterministic.
	ModelInfoName() (string, error)

	// MarshalJSON implements json.Marshaler.
	MarshalJSON() ([]byte, error)
}

// System represents the primitive types built into CQL
// (https://cql.hl7.org/09-b-cqlreference.html#types-2).
type System string

// The complete set of CQL System types.
const (
	// Unset indicates that the parser has not yet computed a result type for a node.
	Unset System = "System.UnsetType"
	// Any is the top of the type lattice. A value of type Any could be anything, including Null.
	Any        System = "System.Any"
	String     System = "System.String"
	Integer    System = "System.Integer"
	Decimal    System = "System.Decimal"
	Long       System = "System.Long"
	Quantity   System = "System.Quantity"
	Ratio      System = "System.Ratio"
	Boolean    System = "System.Boolean"
	DateTime   System = "System.DateTime"
	Date       System = "System.Date"
	Time       System = "System.Time"
	ValueSet   System = "System.ValueSet"
	CodeSystem System = "System.CodeSystem"
	Vocabulary System = "System.Vocabulary"
	Code       System = "System.Code"
	Concept    System = "System.Concept"
)

// ToSystem converts a bare or qualified name into a System type, returning Unset if the name is
// not a recognized system type.
func ToSystem(s string) System {
	switch s {
	case "System.Any", "Any":
		return Any
	case "System.String", "String":
		return String
	case "System.Integer", "Integer":
		return Integer
	case "System.Decimal", "Decimal":
		return Decimal
	case "System.Long", "Long":
		return Long
	case "System.Quantity", "Quantity":
		return Quantity
	case "System.Ratio", "Ratio":
		return Ratio
	case "System.Boolean", "Boolean":
		return Boolean
	case "System.DateTime", "DateTime":
		return DateTime
	case "System.Date", "Date":
		return Date
	case "System.Time", "Time":
		return Time
	case "System.ValueSet", "ValueSet":
		return ValueSet
	case "System.CodeSystem", "CodeSystem":
		return CodeSystem
	case "System.Vocabulary", "Vocabulary":
		return Vocabulary
	case "System.Code", "Code":
		return Code
	case "System.Concept", "Concept":
		return Concept
	default:
		return Unset
	}
}

// Equal is a strict equal. X.Equal(Y) is true when X and Y are the exact same type.
func (s System) Equal(a IType) bool {
	aBase, ok := a.(System)
	if !ok {
		return false
	}
	return s == aBase
}

// String implements fmt.Stringer.
func (s System) String() string { return string(s) }

// ModelInfoName returns the fully qualified type name in model info convention.
func (s System) ModelInfoName() (string, error) { return string(s), nil }

// MarshalJSON implements json.Marshaler.
func (s System) MarshalJSON() ([]byte, error) { return defaultTypeNameJSON(s) }

// IsNumeric reports whether s is one of the CQL numeric System types.
func (s System) IsNumeric() bool {
	switch s {
	case Integer, Long, Decimal, Quantity:
		return true
	default:
		return false
	}
}

// Named names a single type declared by a ModelInfo, for example FHIR.Patient.
type Named struct {
	// TypeName is the fully qualified name of the type, ex FHIR.Patient.
	TypeName string
}

// Equal is a strict equal.
func (n *Named) Equal(a IType) bool {
	aName, ok := a.(*Named)
	if !ok {
		return false
	}
	if n == nil || aName == nil {
		return n == aName
	}
	return aName.TypeName == n.TypeName
}

// String implements fmt.Stringer.
func (n *Named) String() string {
	if n == nil {
		return "nil Named"
	}
	return fmt.Sprintf("Named<%s>", n.TypeName)
}

// ModelInfoName returns the fully qualified type name.
func (n *Named) ModelInfoName() (string, error) {
	if n == nil {
		return "", errTypeNil
	}
	return n.TypeName, nil
}

// MarshalJSON implements json.Marshaler.
func (n Named) MarshalJSON() ([]byte, error) { return defaultTypeNameJSON(&n) }

// Interval is the type of an Interval[low, high] value.
type Interval struct {
	PointType IType
}

// Equal is a strict equal.
func (i *Interval) Equal(a IType) bool {
	aInterval, ok := a.(*Interval)
	if !ok {
		return false
	}
	if i == nil || aInterval == nil {
		return i == aInterval
	}
	if i.PointType == nil || aInterval.PointType == nil {
		return i.PointType == aInterval.PointType
	}
	return i.PointType.Equal(aInterval.PointType)
}

// String implements fmt.Stringer.
func (i *Interval) String() string {
	if i == nil {
		return "nil Interval"
	}
	if i.PointType == nil {
		return "Interval<nil>"
	}
	return fmt.Sprintf("Interval<%s>", i.PointType.String())
}

// ModelInfoName returns name as the CQL interval type specifier.
func (i *Interval) ModelInfoName() (string, error) {
	if i == nil {
		return "", errTypeNil
	}
	if i.PointType == nil {
		return "", errors.New("internal error - nil PointType for Interval")
	}
	pt, err := i.PointType.ModelInfoName()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Interval<%s>", pt), nil
}

// MarshalJSON implements json.Marshaler.
func (i Interval) MarshalJSON() ([]byte, error) {
	if i.PointType == nil {
		return []byte(`"Interval<` + Any.String() + `>"`), nil
	}
	return defaultTypeNameJSON(&i)
}

// List is the type of an ordered, possibly-null-containing sequence of values.
type List struct {
	ElementType IType
}

// Equal is a strict equal.
func (l *List) Equal(a IType) bool {
	aList, ok := a.(*List)
	if !ok {
		return false
	}
	if l == nil || aList == nil {
		return l == aList
	}
	if l.ElementType == nil || aList.ElementType == nil {
		return l.ElementType == aList.ElementType
	}
	return l.ElementType.Equal(aList.ElementType)
}

// String implements fmt.Stringer.
func (l *List) String() string {
	if l == nil {
		return "nil List"
	}
	if l.ElementType == nil {
		return "List<nil>"
	}
	return fmt.Sprintf("List<%s>", l.ElementType.String())
}

// ModelInfoName returns name as the CQL list type specifier.
func (l *List) ModelInfoName() (string, error) {
	if l == nil {
		return "", errTypeNil
	}
	if l.ElementType == nil {
		return "", errors.New("internal error - nil ElementType for List")
	}
	et, err := l.ElementType.ModelInfoName()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("List<%s>", et), nil
}

// MarshalJSON implements json.Marshaler.
func (l List) MarshalJSON() ([]byte, error) {
	if l.ElementType == nil {
		return []byte(`"List<` + Any.String() + `>"`), nil
	}
	return defaultTypeNameJSON(&l)
}

// Choice is the type of a value that may hold any one of ChoiceTypes.
type Choice struct {
	ChoiceTypes []IType
}

// Equal is a strict equal, order independent.
func (c *Choice) Equal(a IType) bool {
	if c == nil || a == nil {
		return c == a
	}
	aChoice, ok := a.(*Choice)
	if !ok {
		return false
	}
	if len(aChoice.ChoiceTypes) != len(c.ChoiceTypes) {
		return false
	}
	remaining := make([]IType, len(c.ChoiceTypes))
	copy(remaining, c.ChoiceTypes)
	for _, aType := range aChoice.ChoiceTypes {
		matched := false
		for idx, cType := range remaining {
			if cType.Equal(aType) {
				remaining = append(remaining[:idx], remaining[idx+1:]...)
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer.
func (c *Choice) String() string {
	if c == nil {
		return "nil Choice"
	}
	return fmt.Sprintf("Choice<%s>", ToStrings(c.ChoiceTypes))
}

// ModelInfoName returns name as the CQL choice type specifier with ChoiceTypes sorted.
func (c *Choice) ModelInfoName() (string, error) {
	if c == nil {
		return "", errTypeNil
	}
	if c.ChoiceTypes == nil {
		return "", errors.New("internal error - nil ChoiceTypes for Choice")
	}
	names := make([]string, 0, len(c.ChoiceTypes))
	for _, ct := range c.ChoiceTypes {
		n, err := ct.ModelInfoName()
		if err != nil {
			return "", err
		}
		names = append(names, n)
	}
	sort.Strings(names)
	return fmt.Sprintf("Choice<%s>", strings.Join(names, ", ")), nil
}

// MarshalJSON implements json.Marshaler.
func (c Choice) MarshalJSON() ([]byte, error) {
	if c.ChoiceTypes == nil {
		return []byte(`"Choice"`), nil
	}
	if len(c.ChoiceTypes) == 0 {
		return []byte(`"Choice<>"`), nil
	}
	return defaultTypeNameJSON(&c)
}

// Tuple is the type of a structured value with a fixed set of named elements.
type Tuple struct {
	// ElementTypes maps element name to its type.
	ElementTypes map[string]IType
}

// Equal is a strict equal.
func (t *Tuple) Equal(a IType) bool {
	if t == nil || a == nil {
		return t == a
	}
	aTuple, ok := a.(*Tuple)
	if !ok {
		return false
	}
	if len(aTuple.ElementTypes) != len(t.ElementTypes) {
		return false
	}
	for name, typ := range t.ElementTypes {
		aTyp, ok := aTuple.ElementTypes[name]
		if !ok || !aTyp.Equal(typ) {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer.
func (t *Tuple) String() string {
	if t == nil {
		return "nil Tuple"
	}
	if t.ElementTypes == nil {
		return "Tuple<nil>"
	}
	names := sortedKeys(t.ElementTypes)
	var sb strings.Builder
	sb.WriteString("Tuple<")
	for i, name := range names {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %s", name, t.ElementTypes[name].String())
	}
	sb.WriteString(">")
	return sb.String()
}

// ModelInfoName returns name as the CQL tuple type specifier with elements sorted by name.
func (t *Tuple) ModelInfoName() (string, error) {
	if t == nil {
		return "", errTypeNil
	}
	if t.ElementTypes == nil {
		return "", errors.New("internal error - nil ElementTypes for Tuple")
	}
	if len(t.ElementTypes) == 0 {
		return "Tuple { }", nil
	}
	names := sortedKeys(t.ElementTypes)
	var sb strings.Builder
	sb.WriteString("Tuple { ")
	for i, name := range names {
		if i > 0 {
			sb.WriteString(", ")
		}
		elemName, err := t.ElementTypes[name].ModelInfoName()
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "%s %s", name, elemName)
	}
	sb.WriteString(" }")
	return sb.String(), nil
}

// MarshalJSON implements json.Marshaler.
func (t Tuple) MarshalJSON() ([]byte, error) {
	if t.ElementTypes == nil {
		return []byte(`"Tuple"`), nil
	}
	return defaultTypeNameJSON(&t)
}

func sortedKeys(m map[string]IType) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ToStrings returns a print friendly representation of a slice of types.
func ToStrings(ts []IType) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		if t == nil {
			parts[i] = "nil"
		} else {
			parts[i] = t.String()
		}
	}
	return strings.Join(parts, ", ")
}

var errTypeNil = errors.New("internal error -- unsupported function call on a nil type")

func defaultTypeNameJSON(t IType) ([]byte, error) {
	name, err := t.ModelInfoName()
	if err != nil {
		return nil, err
	}
	return []byte(`"` + name + `"`), nil
}
