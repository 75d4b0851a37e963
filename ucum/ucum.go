// Copyright 2025 Google LLC
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

// Package ucum provides UCUM (Unified Code for Units of Measure) support for the CQL engine:
// unit validity checking, unit conversion factors, and the unit algebra CQL's Quantity
// multiply/divide operators need.
package ucum

import (
	"fmt"
	"strings"
	"sync"
)

const (
	dateYearUnit        = "year"
	dateMonthUnit       = "month"
	dateDayUnit         = "day"
	dateHourUnit        = "hour"
	dateMinuteUnit      = "minute"
	dateSecondUnit      = "second"
	dateMillisecondUnit = "millisecond"
	// oneUnit is the dimensionless unit "1".
	oneUnit = "1"
)

// CQLToUCUMDateUnits maps CQL date/time keyword units (as written in CQL quantity literals, e.g.
// "3 days") to their UCUM equivalents.
var CQLToUCUMDateUnits = map[string]string{
	"years":        "a_g",
	"year":         "a_g",
	"months":       "mo_g",
	"month":        "mo_g",
	"weeks":        "wk",
	"week":         "wk",
	"days":         "d",
	"day":          "d",
	"hours":        "h",
	"hour":         "h",
	"minutes":      "min",
	"minute":       "min",
	"seconds":      "s",
	"second":       "s",
	"milliseconds": "ms",
	"millisecond":  "ms",
}

// UCUMToCQLDateUnits maps UCUM date/time unit codes back to CQL's singular keyword form.
var UCUMToCQLDateUnits = map[string]string{
	"a":    dateYearUnit,
	"a_j":  dateYearUnit,
	"a_g":  dateYearUnit,
	"mo":   dateMonthUnit,
	"mo_j": dateMonthUnit,
	"mo_g": dateMonthUnit,
	"wk":   "week",
	"d":    dateDayUnit,
	"h":    dateHourUnit,
	"min":  dateMinuteUnit,
	"s":    dateSecondUnit,
	"ms":   dateMillisecondUnit,
}

// commonUnitFactors groups UCUM units by physical quantity, each inner map giving the factor
// that converts one unit of the outer (base) key into one unit of the inner key
// (1 base = factor derived).
var commonUnitFactors = map[string]map[string]float64{
	// Length units (base: meter).
	"m": {
		"cm": 100,
		"mm": 1000,
		"km": 0.001,
		"in": 39.3701,
		"ft": 3.28084,
		"yd": 1.09361,
		"mi": 0.000621371,
	},
	// Mass units (base: gram).
	"g": {
		"mg":      1000,
		"kg":      0.001,
		"lb":      0.00220462,
		"oz":      0.03527396,
		"[oz_av]": 0.03527396,
	},
	// Volume units (base: liter).
	"L": {
		"mL":       1000,
		"dL":       10,
		"cL":       100,
		"kL":       0.001,
		"gal":      0.264172,
		"qt":       1.05669,
		"pt":       2.11338,
		"cup":      4.22675,
		"[foz_us]": 33.814,
	},
	// Time units (base: second).
	"s": {
		"min":  1 / 60.0,
		"h":    1 / 3600.0,
		"d":    1 / 86400.0,
		"wk":   1 / 604800.0,
		"mo_g": 1 / 2592000.0, // approximate
		"a_g":  1 / 31536000.0,
		"ms":   1000,
	},
	// Enzyme activity units (base: U, 1 U = 1 micromole substrate catalyzed per minute).
	"U": {
		"mU": 1000,
		"uU": 1000000,
		"nU": 1000000000,
		"kU": 0.001,
	},
	// Osmolality units (base: osmole), relevant to lab-result Observations.
	"osm": {
		"mosm": 1000,
	},
	// Equivalent units (base: equivalent), relevant to lab-result Observations.
	"eq": {
		"meq": 1000,
		"ueq": 1000000,
	},
}

// unitValidityCache memoizes CheckUnit's syntax validation, since the same unit strings recur
// across many Quantity literals within a single CQL evaluation.
var unitValidityCache = struct {
	sync.RWMutex
	cache map[string]bool
}{
	cache: make(map[string]bool),
}

// normalizeEmptyUnit replaces an empty unit string with the dimensionless unit "1".
func normalizeEmptyUnit(unit string) string {
	if unit == "" {
		return oneUnit
	}
	return unit
}

// normalizeCQLDateUnit rewrites a CQL date/time keyword unit into its UCUM code, leaving
// already-UCUM units untouched.
func normalizeCQLDateUnit(unit string) string {
	if ucumUnit, ok := CQLToUCUMDateUnits[unit]; ok {
		return ucumUnit
	}
	return unit
}

// normalizeUnit applies both the empty-unit and CQL-date-unit normalizations.
func normalizeUnit(unit string) string {
	return normalizeCQLDateUnit(normalizeEmptyUnit(unit))
}

// CheckUnit reports whether unit is syntactically valid UCUM, optionally treating an empty
// string and CQL date/time keywords as valid too. On failure it also returns a human-readable
// message describing the invalid unit.
func CheckUnit(unit string, allowEmptyUnits bool, allowCQLDateUnits bool) (bool, string) {
	if unit == "" {
		if allowEmptyUnits {
			return true, ""
		}
		return false, "empty unit is not allowed"
	}
	if allowEmptyUnits {
		unit = normalizeEmptyUnit(unit)
	}
	if allowCQLDateUnits {
		unit = normalizeCQLDateUnit(unit)
	}

	unitValidityCache.RLock()
	valid, found := unitValidityCache.cache[unit]
	unitValidityCache.RUnlock()
	if !found {
		valid = validateUCUMSyntax(unit)
		unitValidityCache.Lock()
		unitValidityCache.cache[unit] = valid
		unitValidityCache.Unlock()
	}
	if !valid {
		return false, fmt.Sprintf("Invalid UCUM unit: '%s'", unit)
	}
	return true, ""
}

// getConversionFactor determines the factor f such that 1 fromUnit == f toUnit, covering both
// the physical-quantity tables in commonUnitFactors and the UCUM date/time units.
func getConversionFactor(fromUnit, toUnit string) (bool, float64) {
	for baseUnit, conversions := range commonUnitFactors {
		if ok, factor := getMeasurementConversionFactor(fromUnit, toUnit, baseUnit, conversions); ok {
			return true, factor
		}
	}
	return getDateConversionFactor(fromUnit, toUnit)
}

// getMeasurementConversionFactor resolves a conversion factor between fromUnit and toUnit when
// both belong to the same physical-quantity table, relating each to baseUnit if needed.
func getMeasurementConversionFactor(fromUnit, toUnit, baseUnit string, conversions map[string]float64) (bool, float64) {
	toFactor, toOk := conversions[toUnit]
	if !toOk && toUnit != baseUnit {
		return false, 0
	}
	if fromUnit == baseUnit {
		return true, toFactor
	}
	fromFactor, fromOk := conversions[fromUnit]
	if !fromOk && fromUnit != baseUnit {
		return false, 0
	}
	if toUnit == baseUnit {
		return true, 1.0 / fromFactor
	}
	// fromUnit -> baseUnit -> toUnit.
	return true, toFactor / fromFactor
}

// getDateConversionFactor resolves a conversion factor between two UCUM date/time units,
// trying both directions of precision.
func getDateConversionFactor(fromUnit, toUnit string) (bool, float64) {
	if ok, factor := getDateConversionFactorLowerPrecision(fromUnit, toUnit); ok {
		return true, factor
	}
	if ok, factor := getDateConversionFactorLowerPrecision(toUnit, fromUnit); ok {
		return true, 1.0 / factor
	}
	return false, 0
}

// getDateConversionFactorLowerPrecision resolves the factor when fromUnit is a coarser (or
// equal) precision than toUnit, e.g. year -> month.
func getDateConversionFactorLowerPrecision(fromUnit, toUnit string) (bool, float64) {
	fromCQLUnit, fromOk := UCUMToCQLDateUnits[fromUnit]
	if !fromOk {
		return false, 0
	}
	toCQLUnit, toOk := UCUMToCQLDateUnits[toUnit]
	if !toOk {
		return false, 0
	}
	if fromCQLUnit == toCQLUnit {
		return true, 1.0
	}
	switch {
	case fromCQLUnit == dateYearUnit && toCQLUnit == dateMonthUnit:
		return true, 12.0
	case fromCQLUnit == dateYearUnit && toCQLUnit == dateDayUnit:
		return true, 365.25
	case fromCQLUnit == dateMonthUnit && toCQLUnit == dateDayUnit:
		return true, 30.44
	case fromCQLUnit == dateDayUnit && toCQLUnit == dateHourUnit:
		return true, 24.0
	case fromCQLUnit == dateHourUnit && toCQLUnit == dateMinuteUnit:
		return true, 60.0
	case fromCQLUnit == dateHourUnit && toCQLUnit == dateSecondUnit:
		return true, 3600.0
	case fromCQLUnit == dateHourUnit && toCQLUnit == dateMillisecondUnit:
		return true, 3600000.0
	case fromCQLUnit == dateMinuteUnit && toCQLUnit == dateSecondUnit:
		return true, 60.0
	case fromCQLUnit == dateMinuteUnit && toCQLUnit == dateMillisecondUnit:
		return true, 60000.0
	case fromCQLUnit == dateSecondUnit && toCQLUnit == dateMillisecondUnit:
		return true, 1000.0
	default:
		return false, 0
	}
}

// ConvertUnit converts fromVal, expressed in fromUnit, into the equivalent value in toUnit.
// Returns an error if no conversion path between the two units is known.
func ConvertUnit(fromVal float64, fromUnit, toUnit string) (float64, error) {
	fromUnit = normalizeUnit(fromUnit)
	toUnit = normalizeUnit(toUnit)

	if fromUnit == toUnit {
		return fromVal, nil
	}
	if ok, factor := getConversionFactor(fromUnit, toUnit); ok {
		return fromVal * factor, nil
	}
	return 0, fmt.Errorf("cannot convert from '%s' to '%s'", fromUnit, toUnit)
}

// GetProductOfUnits returns the unit resulting from multiplying a value in unit1 by a value in
// unit2, per CQL's Quantity multiplication semantics.
func GetProductOfUnits(unit1, unit2 string) string {
	unit1, unit2 = normalizeEmptyUnit(unit1), normalizeEmptyUnit(unit2)
	if unit1 == oneUnit {
		return unit2
	}
	if unit2 == oneUnit {
		return unit1
	}
	if unit1 == unit2 {
		return fmt.Sprintf("%s2", unit1)
	}
	return fmt.Sprintf("%s.%s", unit1, unit2)
}

// GetQuotientOfUnits returns the unit resulting from dividing a value in unit1 by a value in
// unit2, per CQL's Quantity division semantics.
func GetQuotientOfUnits(unit1, unit2 string) string {
	unit1, unit2 = normalizeEmptyUnit(unit1), normalizeEmptyUnit(unit2)
	if unit1 == unit2 {
		return oneUnit
	}
	if unit2 == oneUnit {
		return unit1
	}
	return fmt.Sprintf("%s/%s", unit1, unit2)
}

// validateUCUMSyntax gives a best-effort validation of UCUM unit syntax: known units from
// commonUnitFactors/CQLToUCUMDateUnits pass directly, and "/" (division) and "." (multiplication)
// compounds are validated recursively by operand. This is not a full UCUM grammar implementation
// (see the CQL spec's note that a conformant engine need only reject clearly malformed units).
func validateUCUMSyntax(unit string) bool {
	if unit == "" || unit == oneUnit {
		return true
	}

	for baseUnit, factors := range commonUnitFactors {
		if unit == baseUnit {
			return true
		}
		for derivedUnit := range factors {
			if unit == derivedUnit {
				return true
			}
		}
	}
	for _, ucumUnit := range CQLToUCUMDateUnits {
		if unit == ucumUnit {
			return true
		}
	}

	if strings.Contains(unit, "/") {
		parts := strings.Split(unit, "/")
		if len(parts) == 2 {
			return validateUCUMSyntax(parts[0]) && validateUCUMSyntax(parts[1])
		}
	}
	if strings.Contains(unit, ".") {
		for _, part := range strings.Split(unit, ".") {
			if !validateUCUMSyntax(part) {
				return false
			}
		}
		return true
	}

	// A trailing digit (e.g. "m2") is treated as an exponent suffix on the base unit.
	if len(unit) > 1 {
		lastChar := unit[len(unit)-1]
		if lastChar >= '0' && lastChar <= '9' {
			return validateUCUMSyntax(unit[:len(unit)-1])
		}
	}

	return false
}
