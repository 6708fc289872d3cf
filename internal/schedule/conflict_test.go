package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/univ-reg-api/internal/models"
)

func slot(day, start, end int) models.TimeSlot {
	return models.TimeSlot{DayOfWeek: day, StartPeriod: start, EndPeriod: end, Room: "A101"}
}

func TestOverlapsSameDay(t *testing.T) {
	assert.True(t, Overlaps(slot(1, 1, 3), slot(1, 2, 4)))
	assert.True(t, Overlaps(slot(1, 2, 4), slot(1, 1, 3)))
	assert.True(t, Overlaps(slot(1, 1, 5), slot(1, 2, 3)))
}

func TestOverlapsDifferentDay(t *testing.T) {
	assert.False(t, Overlaps(slot(1, 1, 3), slot(2, 1, 3)))
}

func TestOverlapsTouchingEndpoints(t *testing.T) {
	// Half-open intervals: ending at 3 and starting at 3 is not a clash.
	assert.False(t, Overlaps(slot(1, 1, 3), slot(1, 3, 5)))
	assert.False(t, Overlaps(slot(1, 3, 5), slot(1, 1, 3)))
}

func TestHasConflictSymmetry(t *testing.T) {
	a := []models.TimeSlot{slot(1, 1, 3), slot(3, 6, 8)}
	b := []models.TimeSlot{slot(3, 7, 9)}
	assert.Equal(t, HasConflict(a, b), HasConflict(b, a))
	assert.True(t, HasConflict(a, b))
}

func TestHasConflictEmpty(t *testing.T) {
	assert.False(t, HasConflict(nil, []models.TimeSlot{slot(1, 1, 3)}))
	assert.False(t, HasConflict([]models.TimeSlot{slot(1, 1, 3)}, nil))
}

func TestFindConflictNamesSection(t *testing.T) {
	target := []models.TimeSlot{slot(1, 2, 4)}
	others := []models.SectionSchedule{
		{SectionID: "sec-1", SectionCode: "MATH101.01", Slots: []models.TimeSlot{slot(2, 2, 4)}},
		{SectionID: "sec-2", SectionCode: "PHYS201.02", Slots: []models.TimeSlot{slot(1, 1, 3)}},
	}

	hit := FindConflict(target, others)
	require.NotNil(t, hit)
	assert.Equal(t, "sec-2", hit.SectionID)
}

func TestFindConflictClear(t *testing.T) {
	target := []models.TimeSlot{slot(1, 3, 5)}
	others := []models.SectionSchedule{
		{SectionID: "sec-1", Slots: []models.TimeSlot{slot(1, 1, 3)}},
	}
	assert.Nil(t, FindConflict(target, others))
}
