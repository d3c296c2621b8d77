package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// TimeSlot is a start/end pair such as 09:00-11:00.
type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Availability is either free text or a set of days with time slots.
// Exactly one of Text or (Days, TimeSlots) is populated.
type Availability struct {
	Text      string
	Days      []string
	TimeSlots []TimeSlot
}

type structuredAvailability struct {
	Days      []string          `json:"days"`
	TimeSlots []json.RawMessage `json:"timeSlots"`
}

// IsZero reports whether nothing was specified.
func (a Availability) IsZero() bool {
	return strings.TrimSpace(a.Text) == "" && len(a.Days) == 0 && len(a.TimeSlots) == 0
}

// Structured reports whether the availability uses days and slots.
func (a Availability) Structured() bool {
	return a.Text == "" && (len(a.Days) > 0 || len(a.TimeSlots) > 0)
}

// String renders availability for display.
func (a Availability) String() string {
	if text := strings.TrimSpace(a.Text); text != "" {
		return text
	}
	if len(a.Days) == 0 || len(a.TimeSlots) == 0 {
		return "Not specified"
	}
	slots := make([]string, 0, len(a.TimeSlots))
	for _, slot := range a.TimeSlots {
		slots = append(slots, slot.Start+"-"+slot.End)
	}
	return fmt.Sprintf("%s at %s", strings.Join(a.Days, ", "), strings.Join(slots, ", "))
}

// MarshalJSON encodes free text as a JSON string and structured availability as an object.
func (a Availability) MarshalJSON() ([]byte, error) {
	if a.IsZero() {
		return []byte(`""`), nil
	}
	if !a.Structured() {
		return json.Marshal(a.Text)
	}
	days := a.Days
	if days == nil {
		days = []string{}
	}
	slots := a.TimeSlots
	if slots == nil {
		slots = []TimeSlot{}
	}
	return json.Marshal(struct {
		Days      []string   `json:"days"`
		TimeSlots []TimeSlot `json:"timeSlots"`
	}{days, slots})
}

// UnmarshalJSON accepts a string, an object with slot objects, or an object with "HH:MM-HH:MM" slot strings.
func (a *Availability) UnmarshalJSON(data []byte) error {
	*a = Availability{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		a.Text = strings.TrimSpace(text)
		return nil
	}

	var raw structuredAvailability
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("availability: %w", err)
	}

	for _, day := range raw.Days {
		if day = strings.TrimSpace(day); day != "" {
			a.Days = append(a.Days, day)
		}
	}
	for _, rawSlot := range raw.TimeSlots {
		slot, err := parseTimeSlot(rawSlot)
		if err != nil {
			return err
		}
		a.TimeSlots = append(a.TimeSlots, slot)
	}
	return nil
}

func parseTimeSlot(raw json.RawMessage) (TimeSlot, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return TimeSlot{}, err
		}
		start, end, found := strings.Cut(s, "-")
		if !found {
			return TimeSlot{}, errors.New("availability: time slot must look like 09:00-11:00")
		}
		return TimeSlot{Start: strings.TrimSpace(start), End: strings.TrimSpace(end)}, nil
	}
	var slot TimeSlot
	if err := json.Unmarshal(raw, &slot); err != nil {
		return TimeSlot{}, fmt.Errorf("availability: %w", err)
	}
	slot.Start = strings.TrimSpace(slot.Start)
	slot.End = strings.TrimSpace(slot.End)
	return slot, nil
}
