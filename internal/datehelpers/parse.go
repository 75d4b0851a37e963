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

// Package datehelpers provides functions for parsing CQL date, datetime and time strings.
package datehelpers

import (
	"errors"
	"fmt"
	regex "regexp"
	"strconv"
	"strings"
	"time"

	"github.com/clinacode/cql/model"
	"github.com/clinacode/cql/types"
)

// Constants for parsing CQL date, datetime and time strings.
var (
	// Date layout constants.
	dateYear  = "2006"
	dateMonth = "2006-01"
	dateDay   = "2006-01-02"

	// DateTime layout constants.
	dateTimeYear             = "2006T"
	dateTimeMonth            = "2006-01T"
	dateTimeDay              = "2006-01-02T"
	dateTimeHour             = "2006-01-02T15"
	dateTimeMinute           = "2006-01-02T15:04"
	dateTimeSecond           = "2006-01-02T15:04:05"
	dateTimeOneMillisecond   = "2006-01-02T15:04:05.0"
	dateTimeTwoMillisecond   = "2006-01-02T15:04:05.00"
	dateTimeThreeMillisecond = "2006-01-02T15:04:05.000"

	// Time layout constants.
	timeHour             = "T15"
	timeMinute           = "T15:04"
	timeSecond           = "T15:04:05"
	timeOneMillisecond   = "T15:04:05.0"
	timeTwoMillisecond   = "T15:04:05.00"
	timeThreeMillisecond = "T15:04:05.000"

	// Timezone constants.
	zuluTZ = "Z"
	tz     = "-07:00"
)

// ErrUnsupportedPrecision is returned when a precision is not supported.
var ErrUnsupportedPrecision = errors.New("unsupported precision")

// ParseDate parses a CQL Date string into a golang time. CQL Dates start with @ and follow a subset
// of ISO-8601.
//
// CQL Dates do not have timezone offsets, but when converting a Date to a DateTime the offset of
// the evaluation timestamp is used. Since all golang times require a location we set all Date
// offset to the offset of the evaluation timestamp.
func ParseDate(rawStr string, evaluationLoc *time.Location) (time.Time, model.DateTimePrecision, error) {
	if evaluationLoc == nil {
		return time.Time{}, model.UNSETDATETIMEPRECISION, fmt.Errorf("internal error - evaluationLoc must be set when calling ParseDate")
	}

	if len(rawStr) == 0 || rawStr[0] != '@' {
		return time.Time{}, model.UNSETDATETIMEPRECISION, fmt.Errorf("internal error - datetime string %v, must start with @", rawStr)
	}
	str := rawStr[1:]

	dates := []struct {
		layout    string
		precision model.DateTimePrecision
	}{
		{layout: dateYear, precision: model.YEAR},
		{layout: dateMonth, precision: model.MONTH},
		{layout: dateDay, precision: model.DAY},
	}

	var err error
	var parsedTime time.Time
	for _, d := range dates {
		parsedTime, err = time.ParseInLocation(d.layout, str, evaluationLoc)
		if err == nil {
			return parsedTime, d.precision, nil
		}
	}

	if parseErr, ok := err.(*time.ParseError); ok {
		return time.Time{}, model.UNSETDATETIMEPRECISION, fmtParsingErr(rawStr, types.Date, "@YYYY-MM-DD", parseErr)
	}
	return time.Time{}, model.UNSETDATETIMEPRECISION, err
}

// ParseDateTime parses a CQL DateTime string into a golang time. CQL Dates start with @ and follow
// a subset of ISO-8601. If rawStr does not include an offset then evaluationLoc will be used.
// Otherwise, the offset in rawStr is used.
func ParseDateTime(rawStr string, evaluationLoc *time.Location) (time.Time, model.DateTimePrecision, error) {
	if evaluationLoc == nil {
		return time.Time{}, model.UNSETDATETIMEPRECISION, fmt.Errorf("internal error - evaluationLoc must be set when calling ParseDateTime")
	}

	if len(rawStr) == 0 || rawStr[0] != '@' {
		return time.Time{}, model.UNSETDATETIMEPRECISION, fmt.Errorf("internal error - datetime string %v, must start with @", rawStr)
	}
	str := rawStr[1:]

	// Since time.ParseInLocation allows any number of fractional seconds no matter the layout, we
	// must manually check.
	re := regex.MustCompile(`\.\d{4}`)
	if re.MatchString(rawStr) {
		return time.Time{}, model.UNSETDATETIMEPRECISION, fmt.Errorf("%v %v can have at most 3 digits of milliseconds precision, want a layout like @YYYY-MM-DDThh:mm:ss.fff(Z|(+/-hh:mm)", types.DateTime, rawStr)
	}

	datetimes := []struct {
		layout    string
		precision model.DateTimePrecision
	}{
		{layout: dateTimeYear, precision: model.YEAR},
		{layout: dateTimeMonth, precision: model.MONTH},
		{layout: dateTimeDay, precision: model.DAY},
		{layout: dateTimeHour, precision: model.HOUR},
		{layout: dateTimeMinute, precision: model.MINUTE},
		// For ParseInLocation, the input may contain a fractional second field immediately after the
		// seconds field, even if the layout does not signify its presence. So, we have to do things in
		// this order.
		{layout: dateTimeOneMillisecond, precision: model.MILLISECOND},
		{layout: dateTimeTwoMillisecond, precision: model.MILLISECOND},
		{layout: dateTimeThreeMillisecond, precision: model.MILLISECOND},
		{layout: dateTimeSecond, precision: model.SECOND},
	}

	var err error
	var parsedTime time.Time
	for _, dt := range datetimes {
		for _, timezone := range []string{zuluTZ, tz, ""} {
			loc := evaluationLoc
			if timezone == zuluTZ {
				loc = time.UTC
			}
			parsedTime, err = time.ParseInLocation(fmt.Sprintf("%v%v", dt.layout, timezone), str, loc)
			if err == nil {
				return parsedTime, dt.precision, nil
			}
		}
	}

	if parseErr, ok := err.(*time.ParseError); ok {
		return time.Time{}, model.UNSETDATETIMEPRECISION, fmtParsingErr(rawStr, types.DateTime, "@YYYY-MM-DDThh:mm:ss.fff(Z|(+/-hh:mm)", parseErr)
	}
	return time.Time{}, model.UNSETDATETIMEPRECISION, err
}

// ParseTime parses a CQL Time string into a golang time. CQL Time start with @ and roughly follow
// ISO-8601.
func ParseTime(rawStr string, evaluationLoc *time.Location) (time.Time, model.DateTimePrecision, error) {
	if len(rawStr) == 0 || rawStr[0] != '@' {
		return time.Time{}, model.UNSETDATETIMEPRECISION, fmt.Errorf("internal error - datetime string %v, must start with @", rawStr)
	}
	str := rawStr[1:]

	// Since time.ParseInLocation allows any number of fractional seconds no matter the layout, we
	// must manually check.
	re := regex.MustCompile(`\.\d{4}`)
	if re.MatchString(rawStr) {
		return time.Time{}, model.UNSETDATETIMEPRECISION, fmt.Errorf("%v %v can have at most 3 digits of milliseconds precision, want a layout like @Thh:mm:ss.fff", types.Time, rawStr)
	}

	times := []struct {
		layout    string
		precision model.DateTimePrecision
	}{
		{layout: timeHour, precision: model.HOUR},
		{layout: timeMinute, precision: model.MINUTE},
		// For ParseInLocation, the input may contain a fractional second field immediately after the
		// seconds field, even if the layout does not signify its presence. So, we have to do things in
		// this order.
		{layout: timeOneMillisecond, precision: model.MILLISECOND},
		{layout: timeTwoMillisecond, precision: model.MILLISECOND},
		{layout: timeThreeMillisecond, precision: model.MILLISECOND},
		{layout: timeSecond, precision: model.SECOND},
	}

	var err error
	var parsedTime time.Time
	for _, t := range times {
		parsedTime, err = time.ParseInLocation(t.layout, str, evaluationLoc)
		if err == nil {
			return parsedTime, t.precision, nil
		}
	}

	if parseErr, ok := err.(*time.ParseError); ok {
		return time.Time{}, model.UNSETDATETIMEPRECISION, fmtParsingErr(rawStr, types.Time, "@Thh:mm:ss.fff", parseErr)
	}
	return time.Time{}, model.UNSETDATETIMEPRECISION, err
}

// dateDataModelLayouts and dateTimeDataModelLayouts describe the ISO-8601 subset used by data
// model date/dateTime string properties (FHIR's date and dateTime primitives are the motivating
// case), which unlike CQL date/dateTime literals are not prefixed with @.
var dateDataModelLayouts = []struct {
	layout    string
	precision model.DateTimePrecision
}{
	{layout: dateYear, precision: model.YEAR},
	{layout: dateMonth, precision: model.MONTH},
	{layout: dateDay, precision: model.DAY},
}

var dateTimeDataModelLayouts = []struct {
	layout    string
	precision model.DateTimePrecision
}{
	{layout: strings.TrimSuffix(dateTimeYear, "T"), precision: model.YEAR},
	{layout: strings.TrimSuffix(dateTimeMonth, "T"), precision: model.MONTH},
	{layout: strings.TrimSuffix(dateTimeDay, "T"), precision: model.DAY},
	// Millisecond before second: ParseInLocation accepts fractional seconds after a seconds field
	// even when the layout has none.
	{layout: dateTimeThreeMillisecond, precision: model.MILLISECOND},
	{layout: dateTimeSecond, precision: model.SECOND},
}

// ParseDataModelDate parses a data model date string property (e.g. a FHIR date) into a golang
// time. Unlike ParseDate, the string is not prefixed with @. If the string has no timezone,
// evaluationLoc is used.
func ParseDataModelDate(rawStr string, evaluationLoc *time.Location) (time.Time, model.DateTimePrecision, error) {
	if evaluationLoc == nil {
		return time.Time{}, model.UNSETDATETIMEPRECISION, fmt.Errorf("internal error - evaluationLoc must be set when calling ParseDataModelDate")
	}
	for _, d := range dateDataModelLayouts {
		if t, err := time.ParseInLocation(d.layout, rawStr, evaluationLoc); err == nil {
			return t, d.precision, nil
		}
	}
	return time.Time{}, model.UNSETDATETIMEPRECISION, fmt.Errorf("could not parse data model date %q, want a layout like YYYY-MM-DD", rawStr)
}

// ParseDataModelDateTime parses a data model dateTime string property (e.g. a FHIR dateTime) into
// a golang time. Unlike ParseDateTime, the string is not prefixed with @. If the string has no
// timezone, evaluationLoc is used.
func ParseDataModelDateTime(rawStr string, evaluationLoc *time.Location) (time.Time, model.DateTimePrecision, error) {
	if evaluationLoc == nil {
		return time.Time{}, model.UNSETDATETIMEPRECISION, fmt.Errorf("internal error - evaluationLoc must be set when calling ParseDataModelDateTime")
	}
	for _, dt := range dateTimeDataModelLayouts {
		for _, timezone := range []string{zuluTZ, tz, ""} {
			loc := evaluationLoc
			if timezone == zuluTZ {
				loc = time.UTC
			}
			if t, err := time.ParseInLocation(dt.layout+timezone, rawStr, loc); err == nil {
				return t, dt.precision, nil
			}
		}
	}
	return time.Time{}, model.UNSETDATETIMEPRECISION, fmt.Errorf("could not parse data model dateTime %q, want a layout like YYYY-MM-DDThh:mm:ss.fff(Z|(+/-hh:mm)", rawStr)
}

// getLocation parses tz as an IANA location or a UTC offset.
func getLocation(tz string) (*time.Location, error) {
	if tz == "UTC" {
		return time.UTC, nil
	}
	l, err := time.LoadLocation(tz)
	if err != nil {
		offset, err := offsetToSeconds(tz)
		if err != nil {
			return nil, err
		}
		return time.FixedZone(tz, offset), nil
	}
	return l, nil
}

func offsetToSeconds(offset string) (int, error) {
	if offset == "" || offset == "UTC" {
		return 0, nil
	}
	sign := offset[0]
	if sign != '+' && sign != '-' {
		return 0, fmt.Errorf("invalid timezone offset: %v", offset)
	}
	arr := strings.Split(offset[1:], ":")
	if len(arr) != 2 {
		return 0, fmt.Errorf("invalid timezone offset: %v", offset)
	}
	hour, err := strconv.Atoi(arr[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in timezone offset %v: %v", offset, err)
	}
	minute, err := strconv.Atoi(arr[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in timezone offset %v: %v", offset, err)
	}
	if sign == '-' {
		return -hour*3600 - minute*60, nil
	}
	return hour*3600 + minute*60, nil
}

func fmtParsingErr(rawStr string, t types.IType, layout string, e *time.ParseError) error {
	return fmt.Errorf("got %v %v but want a layout like %v%v", t, rawStr, layout, e.Message)
}
