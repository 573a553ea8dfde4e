package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ecclesia-app/ecclesia/internal/shared"
)

func TestEventInputValidate(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	valid := EventInput{Title: "Easter service", StartsAt: start, EndsAt: end}
	assert.NoError(t, valid.validate())

	missing := EventInput{StartsAt: start, EndsAt: end}
	assert.ErrorIs(t, missing.validate(), shared.ErrValidation)

	blank := EventInput{Title: "   ", StartsAt: start, EndsAt: end}
	assert.ErrorIs(t, blank.validate(), shared.ErrValidation)

	noTimes := EventInput{Title: "x"}
	assert.ErrorIs(t, noTimes.validate(), shared.ErrValidation)

	backwards := EventInput{Title: "x", StartsAt: end, EndsAt: start}
	assert.ErrorIs(t, backwards.validate(), shared.ErrValidation)

	zeroLength := EventInput{Title: "x", StartsAt: start, EndsAt: start}
	assert.ErrorIs(t, zeroLength.validate(), shared.ErrValidation)
}

func TestEventInputValidateTrimsTitle(t *testing.T) {
	start := time.Now()
	in := EventInput{Title: "  Vigil  ", StartsAt: start, EndsAt: start.Add(time.Hour)}
	assert.NoError(t, in.validate())
	assert.Equal(t, "Vigil", in.Title)
}
