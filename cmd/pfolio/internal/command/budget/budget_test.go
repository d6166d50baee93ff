// Copyright 2026 Peter Edge
//
// All rights reserved.

package budget

import (
	"testing"
	"time"

	"github.com/bufdev/pfolio/internal/standard/xtime"
	"github.com/stretchr/testify/require"
)

func TestParseDateRange(t *testing.T) {
	t.Parallel()
	today := xtime.Date{Year: 2024, Month: time.January, Day: 31}
	tests := []struct {
		name         string
		from         string
		to           string
		expectedFrom string
		expectedTo   string
		expectedErr  string
	}{
		{
			name:         "defaults",
			expectedFrom: "2024-01-31",
			expectedTo:   "2024-02-29",
		},
		{
			name:         "from_only",
			from:         "2024-03-15",
			expectedFrom: "2024-03-15",
			expectedTo:   "2024-04-15",
		},
		{
			name:         "both",
			from:         "2024-01-01",
			to:           "2024-07-01",
			expectedFrom: "2024-01-01",
			expectedTo:   "2024-07-01",
		},
		{
			name:        "bad_from",
			from:        "2024/01/01",
			expectedErr: `invalid --from "2024/01/01", must be YYYY-MM-DD`,
		},
		{
			name:        "bad_to",
			to:          "tomorrow",
			expectedErr: `invalid --to "tomorrow", must be YYYY-MM-DD`,
		},
		{
			name:        "reversed",
			from:        "2024-02-01",
			to:          "2024-01-01",
			expectedErr: "--to 2024-01-01 is before --from 2024-02-01",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			from, to, err := parseDateRange(test.from, test.to, today)
			if test.expectedErr != "" {
				require.EqualError(t, err, test.expectedErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.expectedFrom, from.String())
			require.Equal(t, test.expectedTo, to.String())
		})
	}
}
