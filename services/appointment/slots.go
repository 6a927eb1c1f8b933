package appointment

import (
	"encoding/json"
	"fmt"
	"time"

	"medichat/models"
)

// slotWidth is the fixed width of synthesized booking intervals.
const slotWidth = 2 * time.Hour

// rawSlot covers every availability shape the remote system is known to
// return for a single entry.
type rawSlot struct {
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	DisplayText string `json:"displayText"`
}

// availabilityEnvelope tolerates the wrapped response shapes.
type availabilityEnvelope struct {
	Data         []rawSlot `json:"data"`
	Slots        []rawSlot `json:"slots"`
	Availability []rawSlot `json:"availability"`
}

// parseAvailability normalizes the remote availability payload into discrete
// slots. It accepts a bare array, a {data: [...]}-style wrapper, and entries
// that carry only a startTime/endTime bound pair, which are split into
// fixed-width sub-intervals. An empty result is a valid outcome.
func parseAvailability(body []byte) ([]models.Slot, error) {
	var raw []rawSlot
	if err := json.Unmarshal(body, &raw); err != nil {
		var envelope availabilityEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("unrecognized availability response: %w", err)
		}
		switch {
		case envelope.Data != nil:
			raw = envelope.Data
		case envelope.Slots != nil:
			raw = envelope.Slots
		case envelope.Availability != nil:
			raw = envelope.Availability
		}
	}

	slots := make([]models.Slot, 0, len(raw))
	for _, entry := range raw {
		slots = append(slots, normalizeSlot(entry)...)
	}
	return slots, nil
}

// normalizeSlot turns one availability entry into one or more bookable
// slots. Entries wider than the fixed width are treated as a bounds pair and
// split; the last interval is clipped to the end bound when the remainder is
// shorter than the fixed width.
func normalizeSlot(entry rawSlot) []models.Slot {
	start, startErr := parseClock(entry.StartTime)
	end, endErr := parseClock(entry.EndTime)
	if startErr != nil || endErr != nil || !end.After(start) {
		// Not a parsable bounds pair; pass the entry through as-is.
		return []models.Slot{{
			Date:        entry.Date,
			StartTime:   entry.StartTime,
			EndTime:     entry.EndTime,
			DisplayText: entry.DisplayText,
		}}
	}

	if end.Sub(start) <= slotWidth {
		return []models.Slot{{
			Date:        entry.Date,
			StartTime:   formatClock(start),
			EndTime:     formatClock(end),
			DisplayText: entry.DisplayText,
		}}
	}

	return SynthesizeSlots(entry.Date, start, end)
}

// SynthesizeSlots generates fixed-width sub-intervals covering [start, end).
// The final interval is clipped to end when the remainder is shorter than
// the fixed width.
func SynthesizeSlots(date string, start, end time.Time) []models.Slot {
	var slots []models.Slot
	for cursor := start; cursor.Before(end); cursor = cursor.Add(slotWidth) {
		sliceEnd := cursor.Add(slotWidth)
		if sliceEnd.After(end) {
			sliceEnd = end
		}
		slots = append(slots, models.Slot{
			Date:      date,
			StartTime: formatClock(cursor),
			EndTime:   formatClock(sliceEnd),
		})
	}
	return slots
}

func parseClock(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}
	return time.Parse("15:04", value)
}

func formatClock(t time.Time) string {
	return t.Format("15:04")
}
