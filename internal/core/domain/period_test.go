package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("2025-03")
	require.NoError(t, err)
	assert.Equal(t, Period{Year: 2025, Month: time.March}, p)
	assert.Equal(t, "2025-03", p.String())

	for _, bad := range []string{"", "2025", "2025-13", "03-2025", "2025-3"} {
		_, err := ParsePeriod(bad)
		assert.Error(t, err, bad)
		assert.True(t, errors.Is(err, ErrValidation), bad)
	}
}

func TestDueDateClampsToMonthEnd(t *testing.T) {
	feb := Period{Year: 2025, Month: time.February}
	assert.Equal(t, 28, feb.DueDate(31).Day())

	leap := Period{Year: 2024, Month: time.February}
	assert.Equal(t, 29, leap.DueDate(31).Day())

	mar := Period{Year: 2025, Month: time.March}
	assert.Equal(t, 10, mar.DueDate(10).Day())
}

func TestPeriodOrdering(t *testing.T) {
	dec := Period{Year: 2024, Month: time.December}
	jan := dec.Next()
	assert.Equal(t, Period{Year: 2025, Month: time.January}, jan)
	assert.True(t, dec.Before(jan))
	assert.False(t, jan.Before(dec))
	assert.False(t, jan.Before(jan))
}
