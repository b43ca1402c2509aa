package types

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
	}{
		{"documents", CategoryCorrespondence},
		{"Courriers", CategoryCorrespondence},
		{"checks", CategoryCheck},
		{"cheques", CategoryCheck},
		{"chèques", CategoryCheck},
		{" avis ", CategoryIncident},
		{"INCIDENTS", CategoryIncident},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCategory(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseCategory("checks_rejetes")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestCategoryTable(t *testing.T) {
	assert.Equal(t, "documents", CategoryCorrespondence.Table())
	assert.Equal(t, "rejected_checks", CategoryCheck.Table())
	assert.Equal(t, "avis_incidents", CategoryIncident.Table())
	assert.False(t, Category("x").Valid())
	for _, c := range Categories {
		assert.True(t, c.Valid())
	}
}

func TestIncidentReference(t *testing.T) {
	prefix := IncidentReferencePrefix(time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, "SRM-MS/DPH/AI-0125", prefix)
	assert.Equal(t, "SRM-MS/DPH/AI-0125-003", IncidentReference(prefix, 3))
	assert.Equal(t, "SRM-MS/DPH/AI-1299-1000", IncidentReference("SRM-MS/DPH/AI-1299", 1000))
}

func TestError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewError(ErrPersistence, "put", CategoryCheck, cause)

	assert.Equal(t, "put checks: persistence error: disk full", err.Error())
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrRestoreFailed)

	wrapped := fmt.Errorf("saving: %w", err)
	assert.Equal(t, ErrPersistence, KindOf(wrapped))
	assert.Nil(t, KindOf(cause))

	bare := NewError(ErrUnknownCategory, "", "", nil)
	assert.Equal(t, "unknown category", bare.Error())
}
