package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEpochLayouts(t *testing.T) {
	millis, err := FromEpoch("2025-08-01T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2025-08-01T10:00:00Z", FormatEpoch(millis))

	zoneless, err := FromEpoch("2025-08-01T10:00:00")
	require.NoError(t, err)
	assert.Equal(t, millis, zoneless)

	_, err = FromEpoch("yesterday")
	assert.Error(t, err)
}

func TestFromEpochPtr(t *testing.T) {
	got, err := FromEpochPtr(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	empty := ""
	got, err = FromEpochPtr(&empty)
	require.NoError(t, err)
	assert.Nil(t, got)

	raw := "2025-08-01"
	got, err = FromEpochPtr(&raw)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2025-08-01T00:00:00Z", *FormatEpochPtr(got))
}

func TestSanitize(t *testing.T) {
	dur := "  1h "
	req := struct {
		Text     string
		Duration *string
		Missing  *string
		Tags     []string
	}{Text: " hi ", Duration: &dur, Tags: []string{" a", "b "}}

	Sanitize(&req)

	assert.Equal(t, "hi", req.Text)
	assert.Equal(t, "1h", *req.Duration)
	assert.Nil(t, req.Missing)
	assert.Equal(t, []string{"a", "b"}, req.Tags)
}

func TestSanitizeSkipsVerbatimFields(t *testing.T) {
	label := " Arzt "
	req := struct {
		ID       string
		Text     string  `sanitize:"-"`
		Category *string `sanitize:"-"`
	}{ID: " 7 ", Text: "  Zahnarzt  ", Category: &label}

	Sanitize(&req)

	assert.Equal(t, "7", req.ID)
	assert.Equal(t, "  Zahnarzt  ", req.Text)
	assert.Equal(t, " Arzt ", *req.Category)
}

func TestSanitizePanicsOnValue(t *testing.T) {
	assert.Panics(t, func() { Sanitize(struct{}{}) })
}
