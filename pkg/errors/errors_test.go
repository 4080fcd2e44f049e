package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClonedSentinelMatchesOriginal(t *testing.T) {
	err := Clone(ErrSlotOccupied, "target slot is occupied by CS102 A")

	assert.ErrorIs(t, err, ErrSlotOccupied)
	assert.NotErrorIs(t, err, ErrAlreadyReviewed)
	assert.Equal(t, "target slot is occupied", ErrSlotOccupied.Message)
}

func TestWithDetailsLeavesSentinelUntouched(t *testing.T) {
	err := WithDetails(ErrSlotOccupied, map[string]string{"room": "301"})

	assert.Equal(t, map[string]string{"room": "301"}, err.Details)
	assert.Nil(t, ErrSlotOccupied.Details)
	assert.Nil(t, WithDetails(nil, "x"))
}

func TestFromErrorHidesUnknownCauses(t *testing.T) {
	err := FromError(fmt.Errorf("load schedule: %w", sql.ErrConnDone))

	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.True(t, errors.Is(err, sql.ErrConnDone))
	assert.Nil(t, FromError(nil))
}
