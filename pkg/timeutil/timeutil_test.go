package timeutil

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/certpath/certpath-api/pkg/errors"
)

func saoPaulo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	return loc
}

func TestParseInstantAbsoluteOffsetWins(t *testing.T) {
	loc := saoPaulo(t)

	got, err := ParseInstant("2024-01-05T10:00:00-03:00", loc)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 5, 13, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestParseInstantUTCInput(t *testing.T) {
	got, err := ParseInstant("2024-01-05T10:00:00Z", saoPaulo(t))

	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC), got)
}

func TestParseInstantNaiveUsesReference(t *testing.T) {
	loc := saoPaulo(t)

	// São Paulo is UTC-3 year-round since 2019.
	got, err := ParseInstant("2024-01-05T10:00", loc)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 5, 13, 0, 0, 0, time.UTC), got)
}

func TestParseInstantDateOnly(t *testing.T) {
	got, err := ParseInstant("2024-01-05", saoPaulo(t))

	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 5, 3, 0, 0, 0, time.UTC), got)
}

func TestParseInstantBrazilianLayout(t *testing.T) {
	got, err := ParseInstant("05/01/2024 10:30", saoPaulo(t))

	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 5, 13, 30, 0, 0, time.UTC), got)
}

func TestParseInstantRejectsGarbage(t *testing.T) {
	_, err := ParseInstant("next tuesday", saoPaulo(t))

	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrUnparseableDate.Code, typed.Code)
}

func TestFormatRendersReferenceWallTime(t *testing.T) {
	instant := time.Date(2024, 1, 5, 13, 0, 0, 0, time.UTC)

	assert.Equal(t, "05/01/2024 10:00:00", Format(instant, saoPaulo(t)))
	assert.Equal(t, "05/01/2024 13:00:00", Format(instant, time.UTC))
}

func TestLoadLocationFallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, LoadLocation(""))
	assert.Equal(t, time.UTC, LoadLocation("Mars/Olympus"))
	assert.Equal(t, "America/Sao_Paulo", LoadLocation("America/Sao_Paulo").String())
}
