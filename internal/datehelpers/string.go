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

package datehelpers

import (
	"fmt"
	"time"

	"github.com/clinacode/cql/model"
)

// dateLayouts maps each Date-applicable precision to its Go time layout.
var dateLayouts = map[model.DateTimePrecision]string{
	model.YEAR:  dateYear,
	model.MONTH: dateMonth,
	model.DAY:   dateDay,
}

// dateTimeLayouts maps each DateTime-applicable precision to its Go time layout, not including
// the trailing timezone offset.
var dateTimeLayouts = map[model.DateTimePrecision]string{
	model.YEAR:        dateTimeYear,
	model.MONTH:       dateTimeMonth,
	model.DAY:         dateTimeDay,
	model.HOUR:        dateTimeHour,
	model.MINUTE:      dateTimeMinute,
	model.SECOND:      dateTimeSecond,
	model.MILLISECOND: dateTimeThreeMillisecond,
}

// timeLayouts maps each Time-applicable precision to its Go time layout.
var timeLayouts = map[model.DateTimePrecision]string{
	model.HOUR:        timeHour,
	model.MINUTE:      timeMinute,
	model.SECOND:      timeSecond,
	model.MILLISECOND: timeThreeMillisecond,
}

// layoutForPrecision looks up the Go time layout for a precision in one of the maps above,
// wrapping a miss into the shared ErrUnsupportedPrecision so callers report a consistent error.
func layoutForPrecision(layouts map[model.DateTimePrecision]string, kind string, precision model.DateTimePrecision) (string, error) {
	layout, ok := layouts[precision]
	if !ok {
		return "", fmt.Errorf("unsupported precision in %s with value %v %w", kind, precision, ErrUnsupportedPrecision)
	}
	return layout, nil
}

// DateString returns a CQL Date string representation of a Date.
func DateString(d time.Time, precision model.DateTimePrecision) (string, error) {
	layout, err := layoutForPrecision(dateLayouts, "Date", precision)
	if err != nil {
		return "", err
	}
	return "@" + d.Format(layout), nil
}

// DateTimeString returns a CQL DateTime string representation of a DateTime.
func DateTimeString(d time.Time, precision model.DateTimePrecision) (string, error) {
	layout, err := layoutForPrecision(dateTimeLayouts, "DateTime", precision)
	if err != nil {
		return "", err
	}
	// "Z07:00" renders "Z" for UTC timezones and a "-07:00" style offset otherwise.
	const tzLayout = "Z07:00"
	return "@" + d.Format(layout+tzLayout), nil
}

// TimeString returns a CQL Time string representation of a Time.
func TimeString(d time.Time, precision model.DateTimePrecision) (string, error) {
	layout, err := layoutForPrecision(timeLayouts, "Time", precision)
	if err != nil {
		return "", err
	}
	return d.Format(layout), nil
}
