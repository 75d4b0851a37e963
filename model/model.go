// Package model provides an ELM-like data structure used as the intermediate representation
// between the CQL parser and the expression evaluator. It intentionally does not try to be a
// byte-for-byte rendering of the official ELM XSD; it is a hand-rolled Go tree shaped the same
// way, using Go idioms (exported fields, small interfaces) instead of a generated binding.
package model

import (
	"fmt"

	"github.com/clinacode/cql/types"
	"github.com/kylelemons/godebug/pretty"
)

// Library represents a single CQL library, typically compiled from one CQL source file.
type Library struct {
	Identifier  *LibraryIdentifier
	Usings      []*Using
	Includes    []*Include
	Parameters  []*ParameterDef
	CodeSystems []*CodeSystemDef
	Concepts    []*ConceptDef
	Valuesets   []*ValuesetDef
	Codes       []*CodeDef
	Statements  *Statements
}

func (l *Library) String() string {
	return pretty.Sprint(l)
}

// Pos is the source position of a node: a half-open byte range plus the 1-based line/column of
// its first byte. Column counts runes, not bytes.
type Pos struct {
	StartByte, EndByte int
	Line, Col          int
}

// String renders the position as "line:col".
func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// IElement is implemented by every node in the tree, giving callers access to its result type and
// its location in the originating CQL source.
type IElement interface {
	Row() int
	Col() int
	Pos() Pos
	GetResultType() types.IType
}

// Element is the base embedded by every CQL node. It carries the node's resolved type (set by the
// analyzer, nil/Unset until then) and the span of source text the node was parsed from.
type Element struct {
	ResultType types.IType
	Span       Pos
}

// Row returns the 1-based line the element starts on, or 0 if unknown.
func (e *Element) Row() int {
	if e == nil {
		return 0
	}
	return e.Span.Line
}

// Col returns the 1-based column the element starts on, or 0 if unknown.
func (e *Element) Col() int {
	if e == nil {
		return 0
	}
	return e.Span.Col
}

// Pos returns the element's full source span.
func (e *Element) Pos() Pos {
	if e == nil {
		return Pos{}
	}
	return e.Span
}

// GetResultType returns the type of the result, which may be types.Unset if unknown or not yet
// resolved by the analyzer.
func (e *Element) GetResultType() types.IType {
	if e == nil {
		return types.Unset
	}
	return e.ResultType
}

// DateTimePrecision is the precision of a Date, DateTime or Time value or operation.
// It is a string, not an integer, so the default JSON marshaling is readable.
type DateTimePrecision string

const (
	// UNSETDATETIMEPRECISION represents unknown precision.
	UNSETDATETIMEPRECISION DateTimePrecision = ""
	// YEAR represents year precision.
	YEAR DateTimePrecision = "year"
	// MONTH represents month precision.
	MONTH DateTimePrecision = "month"
	// WEEK represents week precision. Not valid for Date / DateTime values.
	WEEK DateTimePrecision = "week"
	// DAY represents day precision.
	DAY DateTimePrecision = "day"
	// HOUR represents hour precision.
	HOUR DateTimePrecision = "hour"
	// MINUTE represents minute precision.
	MINUTE DateTimePrecision = "minute"
	// SECOND represents second precision.
	SECOND DateTimePrecision = "second"
	// MILLISECOND represents millisecond precision.
	MILLISECOND DateTimePrecision = "millisecond"
)

// Unit is a UCUM unit code (e.g. "a", "mg", "mg/dL") or one of the calendar duration keywords
// (e.g. "year", "day") CQL allows as a Quantity unit. Unlike the fixed enum the teacher used, any
// string the UCUM package recognizes (or the lexer accepted verbatim) is a valid Unit; conversion
// and comparison between units is resolved at evaluation time, not parse time.
type Unit string

const (
	// UNSETUNIT represents an unknown/unspecified unit.
	UNSETUNIT Unit = ""
	// ONEUNIT is the dimensionless unit "1", typically the result of dividing two quantities that
	// share a unit.
	ONEUNIT Unit = "1"
	// YEARUNIT represents a calendar year duration.
	YEARUNIT Unit = "year"
	// MONTHUNIT represents a calendar month duration.
	MONTHUNIT Unit = "month"
	// WEEKUNIT represents a calendar week duration.
	WEEKUNIT Unit = "week"
	// DAYUNIT represents a calendar day duration.
	DAYUNIT Unit = "day"
	// HOURUNIT represents an hour duration.
	HOURUNIT Unit = "hour"
	// MINUTEUNIT represents a minute duration.
	MINUTEUNIT Unit = "minute"
	// SECONDUNIT represents a second duration.
	SECONDUNIT Unit = "second"
	// MILLISECONDUNIT represents a millisecond duration.
	MILLISECONDUNIT Unit = "millisecond"
)

// AccessLevel is the access modifier of a definition (ExpressionDef, ParameterDef, ValuesetDef,
// ...). Defaults to Public when the CQL source does not specify one. Definitions in an unnamed
// library are always treated as private by the evaluator, regardless of AccessLevel.
type AccessLevel string

const (
	// Public means other libraries that include this one can reference the definition.
	Public AccessLevel = "PUBLIC"
	// Private means only statements within the same library can reference the definition.
	Private AccessLevel = "PRIVATE"
)

// ValuesetDef is a named valueset definition that references an external value set by ID.
type ValuesetDef struct {
	*Element
	Name        string
	ID          string // 1..1, typically a canonical URL.
	Version     string // 0..1
	CodeSystems []*CodeSystemRef
	AccessLevel AccessLevel
}

// CodeSystemDef is a named definition referencing an external code system by ID and version.
type CodeSystemDef struct {
	*Element
	Name        string
	ID          string
	Version     string
	AccessLevel AccessLevel
}

// ConceptDef is a named definition composed of one or more codes from one or more code systems.
type ConceptDef struct {
	*Element
	Name        string
	Codes       []*CodeRef // 1..*
	Display     string
	AccessLevel AccessLevel
}

// CodeDef is a named definition referencing a single code from a CodeSystem.
type CodeDef struct {
	*Element
	Name        string
	Code        string
	CodeSystem  *CodeSystemRef
	Display     string
	AccessLevel AccessLevel
}

// ParameterDef is a top-level statement declaring a named, optionally-defaulted CQL parameter.
type ParameterDef struct {
	*Element
	Name        string
	Default     IExpression
	AccessLevel AccessLevel
}

// LibraryIdentifier names a library definition, mirroring ELM's VersionedIdentifier. A nil
// Identifier on a Library means that library is unnamed.
type LibraryIdentifier struct {
	*Element
	Local     string
	Qualified string
	Version   string
}

// Using declares the data model (and version) a library retrieves data against, e.g. `using FHIR
// version '4.0.1'`.
type Using struct {
	*Element
	LocalIdentifier string
	// URI is the model's namespace URI, e.g. "http://hl7.org/fhir" for FHIR.
	URI     string
	Version string
}

// Include declares a dependency on another library.
type Include struct {
	*Element
	Identifier *LibraryIdentifier
}

// Statements is the ordered collection of expression and function definitions in a library.
type Statements struct {
	Defs []IExpressionDef
}

// IExpressionDef is implemented by both ExpressionDef and FunctionDef.
type IExpressionDef interface {
	IElement
	GetName() string
	GetContext() string
	GetExpression() IExpression
	GetAccessLevel() AccessLevel
}

// ExpressionDef is a top-level named `define` statement.
type ExpressionDef struct {
	*Element
	Name        string
	Context     string
	Expression  IExpression
	AccessLevel AccessLevel
}

// GetName returns the definition's name.
func (e *ExpressionDef) GetName() string { return e.Name }

// GetContext returns the definition's declared context ("Patient", "Population", ...).
func (e *ExpressionDef) GetContext() string { return e.Context }

// GetExpression returns the definition's body expression.
func (e *ExpressionDef) GetExpression() IExpression { return e.Expression }

// GetAccessLevel returns the definition's access level.
func (e *ExpressionDef) GetAccessLevel() AccessLevel { return e.AccessLevel }

// FunctionDef is a user (or system) defined function. Its body is the Expression embedded via
// ExpressionDef; its return type is the ExpressionDef's ResultType.
type FunctionDef struct {
	*ExpressionDef
	Operands []OperandDef
	Fluent   bool
	// External functions have no body; the evaluator dispatches them by name instead of walking
	// Expression.
	External bool
}

// OperandDef declares one parameter of a FunctionDef. Its type is the embedded Expression's
// ResultType.
type OperandDef struct {
	*Expression
	Name string
}

// Everything below is a CQL expression node. Each embeds *Expression (itself embedding *Element)
// and implements IExpression, letting the tree hold heterogeneous nodes behind one interface.

// IExpression is implemented by every CQL expression node.
type IExpression interface {
	IElement
	isExpression()
}

// Expression is the base embedded by every expression node.
type Expression struct {
	*Element
}

func (e *Expression) isExpression() {}

// GetResultType returns the type of the result, or types.Unset if the receiver is nil or
// unresolved.
func (e *Expression) GetResultType() types.IType {
	if e == nil {
		return types.Unset
	}
	return e.Element.GetResultType()
}

// Literal is a CQL literal (integer, decimal, string, boolean, ...); Value holds its source text,
// parsed into a typed result.Value by the evaluator according to ResultType.
type Literal struct {
	*Expression
	Value string
}

// Interval is an interval expression over an ordered point type.
type Interval struct {
	*Expression
	Low  IExpression
	High IExpression

	// Exactly one of LowClosedExpression or LowInclusive is meaningful: a dynamic closed/open
	// flag (an expression) or a literal one.
	LowClosedExpression IExpression
	LowInclusive        bool

	HighClosedExpression IExpression
	HighInclusive        bool
}

// Quantity is a literal clinical quantity: a decimal value paired with a UCUM (or calendar
// duration) unit.
type Quantity struct {
	*Expression
	Value float64
	Unit  Unit
}

// Ratio expresses a ratio between two Quantities, e.g. `1:128`.
type Ratio struct {
	*Expression
	Numerator   Quantity
	Denominator Quantity
}

// List is a list selector expression, e.g. `{1, 2, 3}`.
type List struct {
	*Expression
	List []IExpression
}

// Code is a literal code selector, e.g. `Code 'some-code' from "SomeCodeSystem"`.
type Code struct {
	*Expression
	System  *CodeSystemRef
	Code    string
	Display string
}

// Tuple is a tuple (structured value) selector, e.g. `Tuple { a: 1, b: 'x' }`.
type Tuple struct {
	*Expression
	Elements []*TupleElement
}

// TupleElement is one named field of a Tuple selector.
type TupleElement struct {
	Name  string
	Value IExpression
}

// Instance constructs an instance of a named model class, e.g. `FHIR.Patient { ... }`.
type Instance struct {
	*Expression
	ClassType types.IType
	Elements  []*InstanceElement
}

// InstanceElement is one named field of an Instance selector.
type InstanceElement struct {
	Name  string
	Value IExpression
}

// MessageSeverity controls how a Message expression's side-effect is processed.
type MessageSeverity string

const (
	// UNSETMESSAGESEVERITY denotes a severity that should never reach the evaluator.
	UNSETMESSAGESEVERITY MessageSeverity = ""
	// TRACE denotes a message that should be logged with trace-level detail.
	TRACE MessageSeverity = "Trace"
	// MESSAGE denotes a plain informational message.
	MESSAGE MessageSeverity = "Message"
	// WARNING denotes a message that should be logged as a warning.
	WARNING MessageSeverity = "Warning"
	// ERROR denotes a message that halts evaluation with an error.
	ERROR MessageSeverity = "Error"
)

// Message is CQL's equivalent of a conditional print/log statement with an optional hard error.
type Message struct {
	*Expression
	Source    IExpression
	Condition IExpression
	Code      IExpression
	Severity  IExpression
	Message   IExpression
}

// SortDirection orders a query's SortClause or SortByItem.
type SortDirection string

const (
	// UNSETSORTDIRECTION denotes a direction that should never reach the evaluator.
	UNSETSORTDIRECTION SortDirection = ""
	// ASCENDING sorts smallest to largest.
	ASCENDING SortDirection = "ASCENDING"
	// DESCENDING sorts largest to smallest.
	DESCENDING SortDirection = "DESCENDING"
)

// Query is a CQL query expression: one or more sources, optional let/with/without clauses, an
// optional where filter, and exactly one of a sort, an aggregate, or a return clause.
type Query struct {
	*Expression
	Source       []*AliasedSource
	Let          []*LetClause
	Relationship []IRelationshipClause
	Where        IExpression
	Sort         *SortClause
	Aggregate    *AggregateClause // Mutually exclusive with Return.
	Return       *ReturnClause
}

// LetClause binds a named sub-expression inside a query, re-evaluated per source tuple.
type LetClause struct {
	*Element
	Expression IExpression
	Identifier string
}

// IRelationshipClause is implemented by With and Without.
type IRelationshipClause interface {
	IElement
	isRelationshipClause()
}

// RelationshipClause is the shared shape of With and Without.
type RelationshipClause struct {
	*Element
	Expression IExpression
	Alias      string
	SuchThat   IExpression
}

func (c *RelationshipClause) isRelationshipClause() {}

// With filters a query's Cartesian product to tuples that have at least one related match.
type With struct{ *RelationshipClause }

// Without filters a query's Cartesian product to tuples with no related match.
type Without struct{ *RelationshipClause }

// SortClause orders a query's result list.
type SortClause struct {
	*Element
	ByItems []ISortByItem
}

// AggregateClause folds a query's tuples into a single accumulated value.
type AggregateClause struct {
	*Element
	Expression IExpression
	// Starting is always set; the parser inserts a null literal when the source omits it.
	Starting   IExpression
	Identifier string
	Distinct   bool
}

// ReturnClause projects each of a query's tuples to a result expression.
type ReturnClause struct {
	*Element
	Expression IExpression
	Distinct   bool
}

// ISortByItem is implemented by every item a SortClause can order by.
type ISortByItem interface {
	IElement
	isSortByItem()
}

// SortByItem is the shared shape of all sort-by item kinds.
type SortByItem struct {
	*Element
	Direction SortDirection
}

// SortByDirection sorts non-tuple results directly by direction.
type SortByDirection struct {
	*SortByItem
}

func (c *SortByDirection) isSortByItem() {}

// SortByColumn sorts tuple results by a named column.
type SortByColumn struct {
	*SortByItem
	Path string
}

func (c *SortByColumn) isSortByItem() {}

// SortByExpression sorts results by the value of an expression evaluated against each result.
type SortByExpression struct {
	*SortByItem
	SortExpression IExpression
}

func (c *SortByExpression) isSortByItem() {}

// AliasedSource is one source of a query, bound to an alias for reference within the query.
type AliasedSource struct {
	*Expression
	Alias  string
	Source IExpression
}

// Property accesses a named property of an expression's result (or, when Source is an AliasRef,
// of the currently-iterated alias value).
type Property struct {
	*Expression
	Source IExpression
	Path   string
}

// Retrieve fetches resources of a given type from the configured data retrieval adapter, filtered
// by an optional code path/value and an optional date path/range.
type Retrieve struct {
	*Expression
	// DataType is the qualified model type name being retrieved, e.g. "FHIR.Condition".
	DataType   string
	TemplateID string
	// CodeProperty is the model property codes/valueset are filtered against; defaults to the
	// model's primary code path when omitted in CQL source.
	CodeProperty string
	// Codes is an expression producing the list of Code/Concept values to filter by. Mutually
	// exclusive with Valueset.
	Codes IExpression
	// Valueset is an expression producing the ValuesetRef to filter by. Mutually exclusive with
	// Codes.
	Valueset IExpression
	// DateProperty is the model property a DateRange filters against, e.g. "onsetDateTime".
	DateProperty string
	// DateRange is an expression producing the Interval<DateTime> to filter DateProperty by.
	DateRange IExpression
}

// Case is a conditional expression, either comparand-driven or boolean-when-driven.
type Case struct {
	*Expression
	// Comparand, if present, is compared against each CaseItem's When; CaseItems must then have a
	// result type implicitly convertible to Comparand's type. If absent, every When must be
	// System.Boolean.
	Comparand IExpression
	CaseItem  []*CaseItem
	// Else is always present.
	Else IExpression
}

// CaseItem is one branch of a Case expression.
type CaseItem struct {
	*Element
	When IExpression
	Then IExpression
}

// IfThenElse is a simple conditional expression.
type IfThenElse struct {
	*Expression
	Condition IExpression
	Then      IExpression
	Else      IExpression
}

// MaxValue returns the maximum representable value of a type, e.g. `maximum Integer`.
type MaxValue struct {
	*Expression
	ValueType types.IType
}

// MinValue returns the minimum representable value of a type, e.g. `minimum Integer`.
type MinValue struct {
	*Expression
	ValueType types.IType
}

// IUnaryExpression is implemented by every expression with exactly one operand.
type IUnaryExpression interface {
	IExpression
	GetName() string
	GetOperand() IExpression
	SetOperand(IExpression)
	isUnaryExpression()
}

// UnaryExpression is the shared shape of all unary operator nodes.
type UnaryExpression struct {
	*Expression
	Operand IExpression
}

// GetOperand returns the operand.
func (a *UnaryExpression) GetOperand() IExpression { return a.Operand }

// SetOperand replaces the operand, used by the analyzer when inserting implicit conversions.
func (a *UnaryExpression) SetOperand(operand IExpression) { a.Operand = operand }

func (a *UnaryExpression) isUnaryExpression() {}

// As is an explicit type cast, e.g. `x as Integer` or `x as FHIR.Patient`.
type As struct {
	*UnaryExpression
	AsTypeSpecifier types.IType
	Strict          bool
}

var _ IUnaryExpression = &As{}

// Is is a runtime type test, e.g. `x is Integer`.
type Is struct {
	*UnaryExpression
	IsTypeSpecifier types.IType
}

var _ IUnaryExpression = &Is{}

// Negate is arithmetic negation, e.g. `-x`.
type Negate struct{ *UnaryExpression }

var _ IUnaryExpression = &Negate{}

// Truncate discards a Decimal or Quantity's fractional part.
type Truncate struct{ *UnaryExpression }

var _ IUnaryExpression = &Truncate{}

// Exists reports whether a list has at least one non-null element.
type Exists struct{ *UnaryExpression }

var _ IUnaryExpression = &Exists{}

// Not is Boolean negation under Kleene logic.
type Not struct{ *UnaryExpression }

var _ IUnaryExpression = &Not{}

// First returns a list's first element.
type First struct {
	*UnaryExpression
}

// Last returns a list's last element.
type Last struct {
	*UnaryExpression
}

var _ IUnaryExpression = &Last{}

// SingletonFrom extracts the sole element of a single-element list, or null for an empty one.
type SingletonFrom struct{ *UnaryExpression }

var _ IUnaryExpression = &SingletonFrom{}

// Start returns the low boundary of an Interval.
type Start struct{ *UnaryExpression }

var _ IUnaryExpression = &Start{}

// End returns the high boundary of an Interval.
type End struct{ *UnaryExpression }

var _ IUnaryExpression = &End{}

// Predecessor returns the value immediately preceding its operand in its type's value space.
type Predecessor struct{ *UnaryExpression }

var _ IUnaryExpression = &Predecessor{}

// Successor returns the value immediately following its operand in its type's value space.
type Successor struct{ *UnaryExpression }

var _ IUnaryExpression = &Successor{}

// IsNull reports whether the operand is CQL null.
type IsNull struct{ *UnaryExpression }

var _ IUnaryExpression = &IsNull{}

// IsFalse reports whether the operand is the Boolean literal false (null is not false).
type IsFalse struct{ *UnaryExpression }

var _ IUnaryExpression = &IsFalse{}

// IsTrue reports whether the operand is the Boolean literal true (null is not true).
type IsTrue struct{ *UnaryExpression }

var _ IUnaryExpression = &IsTrue{}

// ToBoolean converts its operand to System.Boolean, or null if the conversion is not possible.
type ToBoolean struct{ *UnaryExpression }

var _ IUnaryExpression = &ToBoolean{}

// ToDateTime converts its operand to System.DateTime.
type ToDateTime struct{ *UnaryExpression }

var _ IUnaryExpression = &ToDateTime{}

// ToDate converts its operand to System.Date.
type ToDate struct{ *UnaryExpression }

var _ IUnaryExpression = &ToDate{}

// ToDecimal converts its operand to System.Decimal.
type ToDecimal struct{ *UnaryExpression }

var _ IUnaryExpression = &ToDecimal{}

// ToLong converts its operand to System.Long.
type ToLong struct{ *UnaryExpression }

var _ IUnaryExpression = &ToLong{}

// ToInteger converts its operand to System.Integer.
type ToInteger struct{ *UnaryExpression }

var _ IUnaryExpression = &ToInteger{}

// ToQuantity converts its operand to System.Quantity.
type ToQuantity struct{ *UnaryExpression }

var _ IUnaryExpression = &ToQuantity{}

// ToConcept converts its operand (typically a Code) to System.Concept.
type ToConcept struct{ *UnaryExpression }

var _ IUnaryExpression = &ToConcept{}

// ToString converts its operand to System.String.
type ToString struct{ *UnaryExpression }

var _ IUnaryExpression = &ToString{}

// ToTime converts its operand to System.Time.
type ToTime struct{ *UnaryExpression }

var _ IUnaryExpression = &ToTime{}

// AllTrue reports whether every element of a list of Booleans is true, vacuously true for an
// empty list.
//
// ELM models this as an AggregateExpression; it is kept here as a UnaryExpression because the
// parser never needs to populate an aggregate's "path" property for this operator.
type AllTrue struct{ *UnaryExpression }

var _ IUnaryExpression = &AllTrue{}

// Count returns the number of non-null elements in a list. Like AllTrue, modeled here as a
// UnaryExpression rather than ELM's AggregateExpression.
type Count struct{ *UnaryExpression }

var _ IUnaryExpression = &Count{}

// CalculateAge computes a person's age as of now, at the given DateTimePrecision.
type CalculateAge struct {
	*UnaryExpression
	Precision DateTimePrecision
}

// IBinaryExpression is implemented by every expression with exactly two operands.
// Method names use a Get/no-get split (Left/Right have no Get prefix, GetName does) purely to
// avoid colliding with BinaryExpressionWithPrecision's embedded Precision field.
type IBinaryExpression interface {
	IExpression
	GetName() string
	Left() IExpression
	Right() IExpression
	SetOperands(left, right IExpression)
	isBinaryExpression()
}

// BinaryExpression is the shared shape of all binary operator nodes. The ELM representation of
// some of these operators carries additional fields (see BinaryExpressionWithPrecision); Operands
// always holds exactly the two operands.
type BinaryExpression struct {
	*Expression
	Operands []IExpression
}

// Left returns the first operand, or nil if absent.
func (b *BinaryExpression) Left() IExpression {
	if len(b.Operands) < 1 {
		return nil
	}
	return b.Operands[0]
}

// Right returns the second operand, or nil if absent.
func (b *BinaryExpression) Right() IExpression {
	if len(b.Operands) < 2 {
		return nil
	}
	return b.Operands[1]
}

// SetOperands replaces both operands, used by the analyzer when inserting implicit conversions.
func (b *BinaryExpression) SetOperands(left, right IExpression) {
	b.Operands = []IExpression{left, right}
}

func (b *BinaryExpression) isBinaryExpression() {}

// CanConvertQuantity reports whether a Quantity's unit is UCUM-convertible to a target unit.
type CanConvertQuantity struct{ *BinaryExpression }

var _ IBinaryExpression = &CanConvertQuantity{}

// Equal is value equality.
type Equal struct{ *BinaryExpression }

var _ IBinaryExpression = &Equal{}

// Equivalent is value equivalence (equality that treats null as comparable to null).
type Equivalent struct{ *BinaryExpression }

var _ IBinaryExpression = &Equivalent{}

// Less is ordered less-than.
type Less struct{ *BinaryExpression }

var _ IBinaryExpression = &Less{}

// Greater is ordered greater-than.
type Greater struct{ *BinaryExpression }

var _ IBinaryExpression = &Greater{}

// LessOrEqual is ordered less-than-or-equal.
type LessOrEqual struct{ *BinaryExpression }

var _ IBinaryExpression = &LessOrEqual{}

// GreaterOrEqual is ordered greater-than-or-equal.
type GreaterOrEqual struct{ *BinaryExpression }

var _ IBinaryExpression = &GreaterOrEqual{}

// And is Boolean conjunction under Kleene logic.
type And struct{ *BinaryExpression }

// Or is Boolean disjunction under Kleene logic.
type Or struct{ *BinaryExpression }

// XOr is Boolean exclusive-or under Kleene logic.
type XOr struct{ *BinaryExpression }

// Implies is Boolean implication under Kleene logic.
type Implies struct{ *BinaryExpression }

// Add is arithmetic (and interval/quantity) addition.
type Add struct{ *BinaryExpression }

// Subtract is arithmetic (and interval/quantity) subtraction.
type Subtract struct{ *BinaryExpression }

// Multiply is arithmetic multiplication.
type Multiply struct{ *BinaryExpression }

// Divide is arithmetic division; division by zero is null, not an error.
type Divide struct{ *BinaryExpression }

// Modulo is truncated-division remainder; modulo by zero is null.
type Modulo struct{ *BinaryExpression }

// TruncatedDivide is integer (truncating) division.
type TruncatedDivide struct{ *BinaryExpression }

// Except is set difference over two lists. ELM models this as n-ary; only two operands are
// supported here.
type Except struct{ *BinaryExpression }

// Intersect is set intersection over two lists. Also restricted to two operands.
type Intersect struct{ *BinaryExpression }

// Union is set union over two lists. Also restricted to two operands.
type Union struct{ *BinaryExpression }

// BinaryExpressionWithPrecision is a BinaryExpression that also carries a DateTimePrecision, used
// by the temporal comparison and interval operators.
type BinaryExpressionWithPrecision struct {
	*BinaryExpression
	Precision DateTimePrecision
}

// Before reports whether the left temporal operand precedes the right one.
type Before BinaryExpressionWithPrecision

var _ IBinaryExpression = &Before{}

// After reports whether the left temporal operand follows the right one.
type After BinaryExpressionWithPrecision

// SameOrBefore reports whether the left temporal operand is equal to or precedes the right one.
type SameOrBefore BinaryExpressionWithPrecision

// SameOrAfter reports whether the left temporal operand is equal to or follows the right one.
type SameOrAfter BinaryExpressionWithPrecision

// DifferenceBetween returns the number of precision boundaries crossed between two temporal
// values.
type DifferenceBetween BinaryExpressionWithPrecision

// In reports whether a point value falls within an Interval or List.
type In BinaryExpressionWithPrecision

// IncludedIn is an alias spelling of In for interval-in-interval containment.
type IncludedIn BinaryExpressionWithPrecision

// InCodeSystem reports whether a Code belongs to a CodeSystem.
//
// Not a literal 1:1 match for ELM, which defines Code/CodeSystem/CodeSystemExpression operands;
// CodeSystemExpression has no CQL surface syntax to populate, so this is modeled as a plain
// BinaryExpression.
type InCodeSystem struct{ *BinaryExpression }

// InValueSet reports whether a Code or Concept belongs to a ValueSet. Same simplification as
// InCodeSystem applies.
type InValueSet struct{ *BinaryExpression }

// Contains reports whether an Interval or List contains a point value.
type Contains BinaryExpressionWithPrecision

// CalculateAgeAt computes a person's age as of a given date, at the given precision.
type CalculateAgeAt BinaryExpressionWithPrecision

// INaryExpression is implemented by every expression taking zero or more operands.
type INaryExpression interface {
	IExpression
	GetName() string
	GetOperands() []IExpression
	SetOperands([]IExpression)
	isNaryExpression()
}

// NaryExpression is the shared shape of all variable-arity operator nodes.
type NaryExpression struct {
	*Expression
	Operands []IExpression
}

// GetOperands returns the operands.
func (n *NaryExpression) GetOperands() []IExpression {
	return n.Operands
}

// SetOperands replaces the operands.
func (n *NaryExpression) SetOperands(ops []IExpression) {
	n.Operands = ops
}

func (n *NaryExpression) isNaryExpression() {}

// Coalesce returns the first non-null operand, or null if all are null.
type Coalesce struct{ *NaryExpression }

// Concatenate joins its String operands, producing null if any operand is null.
type Concatenate struct{ *NaryExpression }

// Date is the functional constructor for a (possibly partial) System.Date.
type Date struct{ *NaryExpression }

// DateTime is the functional constructor for a (possibly partial) System.DateTime.
type DateTime struct{ *NaryExpression }

// Now returns the fixed DateTime captured at the start of evaluation.
type Now struct{ *NaryExpression }

// TimeOfDay returns the fixed Time captured at the start of evaluation.
type TimeOfDay struct{ *NaryExpression }

// Time is the functional constructor for a (possibly partial) System.Time.
type Time struct{ *NaryExpression }

// Today returns the fixed Date captured at the start of evaluation.
type Today struct{ *NaryExpression }

// ParameterRef references a ParameterDef.
type ParameterRef struct {
	*Expression
	Name string
	// LibraryName is empty for parameters defined locally, else the including library's local
	// identifier.
	LibraryName string
}

// ValuesetRef references a ValuesetDef.
type ValuesetRef struct {
	*Expression
	Name        string
	LibraryName string
}

// CodeSystemRef references a CodeSystemDef.
type CodeSystemRef struct {
	*Expression
	Name        string
	LibraryName string
}

// ConceptRef references a ConceptDef.
type ConceptRef struct {
	*Expression
	Name        string
	LibraryName string
}

// CodeRef references a CodeDef.
type CodeRef struct {
	*Expression
	Name        string
	LibraryName string
}

// ExpressionRef references an ExpressionDef.
type ExpressionRef struct {
	*Expression
	Name        string
	LibraryName string
}

// AliasRef references a query source by its alias, within the scope of that query.
type AliasRef struct {
	*Expression
	Name string
}

// QueryLetRef references a query LetClause by its identifier, within the scope of that query.
type QueryLetRef struct {
	*Expression
	Name string
}

// FunctionRef references a user-defined (or library-local built-in) function call site.
type FunctionRef struct {
	*Expression
	Name        string
	LibraryName string
	Operands    []IExpression
}

// OperandRef references an operand within the body of the function that declares it.
type OperandRef struct {
	*Expression
	Name string
}

// GetName implementations for unary operator nodes.

// GetName returns the operator's name.
func (a *As) GetName() string { return "As" }

// GetName returns the operator's name.
func (i *Is) GetName() string { return "Is" }

// GetName returns the operator's name.
func (e *Exists) GetName() string { return "Exists" }

// GetName returns the operator's name.
func (n *Not) GetName() string { return "Not" }

// GetName returns the operator's name.
func (a *Truncate) GetName() string { return "Truncate" }

// GetName returns the operator's name.
func (f *First) GetName() string { return "First" }

// GetName returns the operator's name.
func (l *Last) GetName() string { return "Last" }

// GetName returns the operator's name.
func (s *SingletonFrom) GetName() string { return "SingletonFrom" }

// GetName returns the operator's name.
func (a *Start) GetName() string { return "Start" }

// GetName returns the operator's name.
func (a *End) GetName() string { return "End" }

// GetName returns the operator's name.
func (a *Predecessor) GetName() string { return "Predecessor" }

// GetName returns the operator's name.
func (a *Successor) GetName() string { return "Successor" }

// GetName returns the operator's name.
func (a *IsNull) GetName() string { return "IsNull" }

// GetName returns the operator's name.
func (a *IsFalse) GetName() string { return "IsFalse" }

// GetName returns the operator's name.
func (a *IsTrue) GetName() string { return "IsTrue" }

// GetName returns the operator's name.
func (a *ToBoolean) GetName() string { return "ToBoolean" }

// GetName returns the operator's name.
func (a *ToDateTime) GetName() string { return "ToDateTime" }

// GetName returns the operator's name.
func (a *ToDate) GetName() string { return "ToDate" }

// GetName returns the operator's name.
func (a *ToDecimal) GetName() string { return "ToDecimal" }

// GetName returns the operator's name.
func (a *ToLong) GetName() string { return "ToLong" }

// GetName returns the operator's name.
func (a *ToInteger) GetName() string { return "ToInteger" }

// GetName returns the operator's name.
func (a *ToQuantity) GetName() string { return "ToQuantity" }

// GetName returns the operator's name.
func (a *ToConcept) GetName() string { return "ToConcept" }

// GetName returns the operator's name.
func (a *ToString) GetName() string { return "ToString" }

// GetName returns the operator's name.
func (a *ToTime) GetName() string { return "ToTime" }

// GetName returns the operator's name.
func (a *CalculateAge) GetName() string { return "CalculateAge" }

// GetName returns the operator's name.
func (a *Negate) GetName() string { return "Negate" }

// GetName implementations for binary operator nodes.

// GetName returns the operator's name.
func (a *CanConvertQuantity) GetName() string { return "CanConvertQuantity" }

// GetName returns the operator's name.
func (a *Equal) GetName() string { return "Equal" }

// GetName returns the operator's name.
func (a *Equivalent) GetName() string { return "Equivalent" }

// GetName returns the operator's name.
func (a *Less) GetName() string { return "Less" }

// GetName returns the operator's name.
func (a *Greater) GetName() string { return "Greater" }

// GetName returns the operator's name.
func (a *LessOrEqual) GetName() string { return "LessOrEqual" }

// GetName returns the operator's name.
func (a *GreaterOrEqual) GetName() string { return "GreaterOrEqual" }

// GetName returns the operator's name.
func (a *And) GetName() string { return "And" }

// GetName returns the operator's name.
func (a *Or) GetName() string { return "Or" }

// GetName returns the operator's name.
func (a *XOr) GetName() string { return "XOr" }

// GetName returns the operator's name.
func (a *Implies) GetName() string { return "Implies" }

// GetName returns the operator's name.
func (a *Add) GetName() string { return "Add" }

// GetName returns the operator's name.
func (a *Subtract) GetName() string { return "Subtract" }

// GetName returns the operator's name.
func (a *Multiply) GetName() string { return "Multiply" }

// GetName returns the operator's name.
func (a *Divide) GetName() string { return "Divide" }

// GetName returns the operator's name.
func (a *Modulo) GetName() string { return "Modulo" }

// GetName returns the operator's name.
func (a *TruncatedDivide) GetName() string { return "TruncatedDivide" }

// GetName returns the operator's name.
func (a *Before) GetName() string { return "Before" }

// GetName returns the operator's name.
func (a *After) GetName() string { return "After" }

// GetName returns the operator's name.
func (a *SameOrBefore) GetName() string { return "SameOrBefore" }

// GetName returns the operator's name.
func (a *SameOrAfter) GetName() string { return "SameOrAfter" }

// GetName returns the operator's name.
func (a *DifferenceBetween) GetName() string { return "DifferenceBetween" }

// GetName returns the operator's name.
func (a *In) GetName() string { return "In" }

// GetName returns the operator's name.
func (a *IncludedIn) GetName() string { return "IncludedIn" }

// GetName returns the operator's name.
func (a *InCodeSystem) GetName() string { return "InCodeSystem" }

// GetName returns the operator's name.
func (a *InValueSet) GetName() string { return "InValueSet" }

// GetName returns the operator's name.
func (a *Contains) GetName() string { return "Contains" }

// GetName returns the operator's name.
func (a *CalculateAgeAt) GetName() string { return "CalculateAgeAt" }

// GetName returns the operator's name.
func (a *Except) GetName() string { return "Except" }

// GetName returns the operator's name.
func (a *Intersect) GetName() string { return "Intersect" }

// GetName returns the operator's name.
func (a *Union) GetName() string { return "Union" }

// GetName implementations for n-ary operator nodes.

// GetName returns the operator's name.
func (a *Coalesce) GetName() string { return "Coalesce" }

// GetName returns the operator's name.
func (a *Concatenate) GetName() string { return "Concatenate" }

// GetName returns the operator's name.
func (a *Date) GetName() string { return "Date" }

// GetName returns the operator's name.
func (a *DateTime) GetName() string { return "DateTime" }

// GetName returns the operator's name.
func (a *Now) GetName() string { return "Now" }

// GetName returns the operator's name.
func (a *TimeOfDay) GetName() string { return "TimeOfDay" }

// GetName returns the operator's name.
func (a *Time) GetName() string { return "Time" }

// GetName returns the operator's name.
func (a *Today) GetName() string { return "Today" }

// GetName returns the operator's name.
func (a *AllTrue) GetName() string { return "AllTrue" }

// GetName returns the operator's name.
func (c *Count) GetName() string { return "Count" }
