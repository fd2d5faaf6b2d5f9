package normalize

import (
	"testing"
	"time"

	"copro-edd-import/internal/domain"
	"copro-edd-import/internal/issues"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"1,5", 1.5, true},
		{"42", 42, true},
		{" 12.25 ", 12.25, true},
		{"12,5 m2", 12.5, true},
		{"-3", -3, true},
		{"", 0, false},
		{"   ", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := Number(tt.in)
		assert.Equal(t, tt.wantOK, ok, "input %q", tt.in)
		if tt.wantOK {
			assert.InDelta(t, tt.want, got, 1e-9, "input %q", tt.in)
		}
	}
	assert.Nil(t, NumberPtr("abc"))
	require.NotNil(t, NumberPtr("1,5"))
	assert.Equal(t, 1.5, *NumberPtr("1,5"))
}

func TestDate(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		in     string
		want   time.Time
		wantOK bool
	}{
		{"25569", day(1970, 1, 1), true},
		{"45306", day(2024, 1, 15), true},
		{"60", day(1900, 2, 28), true},
		{"2024-03-05", day(2024, 3, 5), true},
		{"2024-03-05T23:30:00-02:00", day(2024, 3, 6), true},
		{"2024-03-05 10:00:00", day(2024, 3, 5), true},
		{"2024-03-05 garbage", day(2024, 3, 5), true},
		{"5/3/2024", day(2024, 3, 5), true},
		{"15/01/2024", day(2024, 1, 15), true},
		{"31/02/2024", time.Time{}, false},
		{"2024-13-01", time.Time{}, false},
		{"demain", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := Date(tt.in)
		assert.Equal(t, tt.wantOK, ok, "input %q", tt.in)
		if tt.wantOK {
			assert.True(t, tt.want.Equal(got), "input %q: want %s got %s", tt.in, tt.want, got)
		}
	}
}

func TestTantieme_Fraction(t *testing.T) {
	l := issues.NewLedger()
	f := Tantieme("411/10000", "QuotesPartsGenerales", "12", l)

	require.NotNil(t, f.Num)
	require.NotNil(t, f.Den)
	assert.Equal(t, int64(411), *f.Num)
	assert.Equal(t, int64(10000), *f.Den)
	assert.Equal(t, 0, l.Len())

	f = Tantieme(" 7 / 100 ", "QuotesPartsGenerales", "12", l)
	require.NotNil(t, f.Den)
	assert.Equal(t, int64(100), *f.Den)
	assert.Equal(t, 0, l.Len())
}

func TestTantieme_MissingDenominator(t *testing.T) {
	l := issues.NewLedger()
	f := Tantieme("411", "Quotes-parts Ascenseurs", "12", l)

	require.NotNil(t, f.Num)
	assert.Equal(t, int64(411), *f.Num)
	assert.Nil(t, f.Den)

	entries := l.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.CodeTantiemeDenominatorMissing, entries[0].Code)
	assert.Equal(t, domain.SeverityWarning, entries[0].Severity)
	assert.Equal(t, "12", *entries[0].EntityKey)
	assert.Equal(t, "Quotes-parts Ascenseurs", entries[0].Payload["column"])
}

func TestTantieme_InvalidFormat(t *testing.T) {
	l := issues.NewLedger()
	f := Tantieme("x", "Quotes-parts Escaliers", "12", l)

	assert.Nil(t, f.Num)
	assert.Nil(t, f.Den)
	entries := l.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.CodeEDDTantiemeInvalidFormat, entries[0].Code)
}

func TestTantieme_Empty(t *testing.T) {
	l := issues.NewLedger()
	f := Tantieme("  ", "QuotesPartsGenerales", "12", l)

	assert.Nil(t, f.Num)
	assert.Nil(t, f.Den)
	assert.Equal(t, 0, l.Len())
}

func TestExteriors_Single(t *testing.T) {
	l := issues.NewLedger()
	ext := Exteriors("Terrasse", "12,5", "3", l)

	require.Len(t, ext, 1)
	assert.Equal(t, "Terrasse", ext[0].Type)
	require.NotNil(t, ext[0].SurfaceM2)
	assert.Equal(t, 12.5, *ext[0].SurfaceM2)
	assert.Equal(t, 0, l.Len())
}

func TestExteriors_MultipleZippedByIndex(t *testing.T) {
	l := issues.NewLedger()
	ext := Exteriors("Balcon, Jardin", "4, 30", "3", l)

	require.Len(t, ext, 2)
	assert.Equal(t, "Jardin", ext[1].Type)
	assert.Equal(t, 4.0, *ext[0].SurfaceM2)
	assert.Equal(t, 30.0, *ext[1].SurfaceM2)
	assert.Equal(t, 0, l.Len())
}

func TestExteriors_CountMismatch(t *testing.T) {
	l := issues.NewLedger()
	ext := Exteriors("Balcon, Jardin, Terrasse", "4, 30", "3", l)

	require.Len(t, ext, 3)
	assert.NotNil(t, ext[1].SurfaceM2)
	assert.Nil(t, ext[2].SurfaceM2)

	entries := l.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.CodeEDDExteriorsCountMismatch, entries[0].Code)
}

func TestExteriors_NoSurfacesNoIssue(t *testing.T) {
	l := issues.NewLedger()
	ext := Exteriors("Balcon,Jardin", "", "3", l)

	require.Len(t, ext, 2)
	assert.Nil(t, ext[0].SurfaceM2)
	assert.Equal(t, 0, l.Len())
	assert.Nil(t, Exteriors(" , ", "", "3", l))
	assert.Nil(t, Exteriors("", "12", "3", l))
}

func TestOptionalString(t *testing.T) {
	assert.Nil(t, OptionalString("   "))
	require.NotNil(t, OptionalString(" Bât A "))
	assert.Equal(t, "Bât A", *OptionalString(" Bât A "))
}
