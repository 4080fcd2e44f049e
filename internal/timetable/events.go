package timetable

import (
	"strings"

	"github.com/noah-isme/live-timetable-api/internal/models"
)

// RoomMatches compares an allocation's room against an event's. Buildings are compared only when
// both sides name one, so a bare room name still blocks.
func RoomMatches(allocRoom, allocBuilding, eventRoom, eventBuilding string) bool {
	room := normalizeName(eventRoom)
	if room == "" || room != normalizeName(allocRoom) {
		return false
	}
	eb, ab := normalizeName(eventBuilding), normalizeName(allocBuilding)
	if eb == "" || ab == "" {
		return true
	}
	return eb == ab
}

// AffectedAllocations selects the base allocations a special event blocks: same weekday, same
// room, and an overlapping interval when the event is time bounded. Allocations whose stored time
// cannot be parsed are only blocked by unbounded events.
func AffectedAllocations(ev models.SpecialEvent, allocations []models.Allocation, grid Grid) []models.Allocation {
	weekday := ev.EventDate.Weekday()
	bounded := EventBounded(ev)
	window := EventWindow(ev, grid)

	affected := make([]models.Allocation, 0)
	for _, alloc := range allocations {
		if !ExpandDays(alloc.DayPattern).Has(weekday) {
			continue
		}
		if !RoomMatches(alloc.Room, alloc.Building, ev.Room, ev.Building) {
			continue
		}
		if bounded {
			r, ok := ParseTimeRange(alloc.TimeRange)
			if !ok || !window.Overlaps(r) {
				continue
			}
		}
		affected = append(affected, alloc)
	}
	return affected
}

// EventAbsenceReason is the reason text stored on absences generated for an event.
func EventAbsenceReason(ev models.SpecialEvent) string {
	reason := strings.TrimSpace(ev.Reason)
	if reason == "" {
		return "Special event"
	}
	return "Special event: " + reason
}
