package weather

import "time"

// SelectSlot returns the index of the first slot whose time is at or after now.
// Lists are short and ascending, so a linear scan is used. When every slot is
// in the past the first slot is used anyway; callers must not pass an empty list.
func SelectSlot(slots []Slot, now time.Time) int {
	for i, s := range slots {
		if !s.Time.Before(now) {
			return i
		}
	}
	return 0
}
