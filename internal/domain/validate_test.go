package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateVisitNumbersExactPrefix(t *testing.T) {
	ok := []VisitTemplate{{VisitNumber: 1}, {VisitNumber: 2}, {VisitNumber: 3}}
	assert.NoError(t, ValidateVisitNumbers(ok))
}

func TestValidateVisitNumbersGap(t *testing.T) {
	withGap := []VisitTemplate{{VisitNumber: 1}, {VisitNumber: 3}}
	assert.Error(t, ValidateVisitNumbers(withGap))
}

func TestValidateVisitNumbersDuplicate(t *testing.T) {
	dup := []VisitTemplate{{VisitNumber: 1}, {VisitNumber: 1}}
	assert.Error(t, ValidateVisitNumbers(dup))
}

func TestValidateSettingsWeightSum(t *testing.T) {
	s := DefaultSettings()
	assert.NoError(t, ValidateSettings(s))

	bad := s
	bad.DistanceWeight = 0.9
	assert.Error(t, ValidateSettings(bad))
}

func TestValidateSettingsWorkingHours(t *testing.T) {
	s := DefaultSettings()
	s.WorkingHoursEnd = s.WorkingHoursStart
	assert.Error(t, ValidateSettings(s))
}

func TestValidateVisitTemplateBounds(t *testing.T) {
	v := VisitTemplate{
		DurationMinutes:    60,
		Priority:           3,
		RecurrenceInterval: 1,
		DaysOfWeek:         []Weekday{Monday},
		Recurrence:         RecurrenceWeekly,
	}
	assert.NoError(t, ValidateVisitTemplate(v))

	tooLong := v
	tooLong.DurationMinutes = 300
	assert.Error(t, ValidateVisitTemplate(tooLong))

	noDays := v
	noDays.DaysOfWeek = nil
	assert.Error(t, ValidateVisitTemplate(noDays))
}
