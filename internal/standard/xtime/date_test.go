// Copyright 2026 Peter Edge
//
// All rights reserved.

package xtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDateString(t *testing.T) {
	t.Parallel()
	require.Equal(t, "2014-07-29", Date{2014, 7, 29}.String())
	require.Equal(t, "0999-01-26", TimeToDate(time.Date(999, time.January, 26, 12, 0, 0, 0, time.UTC)).String())
	require.Equal(
		t,
		time.Date(2014, time.August, 20, 0, 0, 0, 0, time.UTC),
		TimeToDate(time.Date(2014, 8, 20, 15, 8, 43, 1, time.UTC)).In(time.UTC),
	)
}

func TestDateIsValid(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		date Date
		want bool
	}{
		{Date{2014, 7, 29}, true},
		{Date{2000, 2, 29}, true},
		{Date{0, 1, 1}, true},
		{Date{2023, 2, 29}, false},
		{Date{1, 0, 1}, false},
		{Date{1, 1, 0}, false},
		{Date{2016, 1, 32}, false},
		{Date{2016, 13, 1}, false},
	} {
		require.Equal(t, test.want, test.date.IsValid(), "%v", test.date)
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		str     string
		want    Date
		wantErr bool
	}{
		{str: "2016-01-02", want: Date{2016, 1, 2}},
		{str: "0003-02-04", want: Date{3, 2, 4}},
		{str: "999-01-26", wantErr: true},
		{str: "", wantErr: true},
		{str: "2016-01-02x", wantErr: true},
	} {
		got, err := ParseDate(test.str)
		if test.wantErr {
			require.Error(t, err, test.str)
			continue
		}
		require.NoError(t, err, test.str)
		require.Equal(t, test.want, got)
	}
}

func TestDateArithmetic(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		desc  string
		start Date
		end   Date
		days  int
	}{
		{"zero days", Date{2014, 5, 9}, Date{2014, 5, 9}, 0},
		{"year boundary", Date{2014, 12, 31}, Date{2015, 1, 1}, 1},
		{"negative", Date{2015, 1, 1}, Date{2014, 12, 31}, -1},
		{"leap year", Date{2004, 1, 1}, Date{2005, 1, 1}, 366},
		{"non-leap year", Date{2001, 1, 1}, Date{2002, 1, 1}, 365},
	} {
		require.Equal(t, test.end, test.start.AddDays(test.days), test.desc)
		require.Equal(t, test.days, test.end.DaysSince(test.start), test.desc)
	}
}

func TestDateAddMonths(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		start  Date
		months int
		want   Date
	}{
		{Date{2024, 1, 15}, 1, Date{2024, 2, 15}},
		{Date{2024, 1, 31}, 1, Date{2024, 2, 29}},
		{Date{2023, 1, 31}, 1, Date{2023, 2, 28}},
		{Date{2024, 12, 5}, 1, Date{2025, 1, 5}},
		{Date{2024, 3, 31}, -1, Date{2024, 2, 29}},
		{Date{2024, 5, 31}, 12, Date{2025, 5, 31}},
	} {
		require.Equal(t, test.want, test.start.AddMonths(test.months), "%v + %d", test.start, test.months)
	}
}

func TestDateOrdering(t *testing.T) {
	t.Parallel()
	earlier := Date{2016, 12, 31}
	later := Date{2017, 1, 1}
	require.True(t, earlier.Before(later))
	require.False(t, later.Before(earlier))
	require.True(t, later.After(earlier))
	require.True(t, earlier.EqualOrBefore(earlier))
	require.True(t, earlier.EqualOrAfter(earlier))
	require.False(t, earlier.EqualOrAfter(later))
	require.Equal(t, -1, earlier.Compare(later))
	require.Equal(t, 1, later.Compare(earlier))
	require.Equal(t, 0, later.Compare(later))
}

func TestDateIsZero(t *testing.T) {
	t.Parallel()
	require.True(t, Date{}.IsZero())
	require.False(t, Date{2000, 2, 29}.IsZero())
	require.False(t, Date{-1, 0, 0}.IsZero())
}

func TestDaysIn(t *testing.T) {
	t.Parallel()
	require.Equal(t, 29, DaysIn(2024, time.February))
	require.Equal(t, 28, DaysIn(2023, time.February))
	require.Equal(t, 31, DaysIn(2023, time.December))
	require.Equal(t, 30, DaysIn(2023, time.April))
}

func TestDateJSON(t *testing.T) {
	t.Parallel()
	data, err := json.Marshal(Date{1987, 4, 15})
	require.NoError(t, err)
	require.Equal(t, `"1987-04-15"`, string(data))
	var date Date
	require.NoError(t, json.Unmarshal([]byte(`"1987-04-15"`), &date))
	require.Equal(t, Date{1987, 4, 15}, date)
	for _, bad := range []string{`""`, `"bad"`, `"1987-04-15x"`, `19870415`} {
		require.Error(t, json.Unmarshal([]byte(bad), &date), bad)
	}
}
