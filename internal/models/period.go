package models

// Period is one of the seven fixed one-hour instructional slots in a day.
type Period int

// PeriodCount is the number of instructional periods per day.
const PeriodCount = 7

// firstPeriodHour is the wall-clock hour at which period 1 begins. Periods run
// back to back with no gaps, so period p covers [firstPeriodHour+p-1,
// firstPeriodHour+p). The grid is a fixed institution-wide table and is not
// configurable per offering.
const firstPeriodHour = 8

// Valid returns true when the period lies on the grid.
func (p Period) Valid() bool {
	return p >= 1 && p <= PeriodCount
}

// PeriodForHour maps a wall-clock hour to its period. The second return is
// false for hours outside the instructional day.
func PeriodForHour(hour int) (Period, bool) {
	if hour < firstPeriodHour || hour >= firstPeriodHour+PeriodCount {
		return 0, false
	}
	return Period(hour - firstPeriodHour + 1), true
}

// TimeRangeForPeriod returns the start hour (inclusive) and end hour
// (exclusive) of a period. The third return is false for off-grid periods.
func TimeRangeForPeriod(p Period) (startHour, endHour int, ok bool) {
	if !p.Valid() {
		return 0, 0, false
	}
	startHour = firstPeriodHour + int(p) - 1
	return startHour, startHour + 1, true
}
