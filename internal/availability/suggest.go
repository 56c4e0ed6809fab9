package availability

import (
	"context"
	"fmt"
	"sort"
	"time"

	"clinic-scheduling/internal/apierrors"
	"clinic-scheduling/internal/schedule"

	"github.com/google/uuid"
)

const (
	maxSuggestions  = 8
	maxHorizonDays  = 30
	highThreshold   = 60
	mediumThreshold = 180
)

// candidate is an available slot collected during the suggestion scan, with its ranking keys.
type candidate struct {
	date     time.Time
	slotTime string
	sameDay  bool
	distance int32
}

func (d defaultService) Suggest(ctx context.Context, doctorUUID uuid.UUID, requestedDate time.Time, requestedTime string, horizonDays int32) ([]Suggestion, error) {
	requestedMinute, err := schedule.ParseClock(requestedTime)
	if err != nil {
		return nil, apierrors.NewValidationError("time", ErrInvalidTimeReference)
	}
	if horizonDays <= 0 {
		horizonDays = d.config.SuggestionHorizonDays()
	}
	if horizonDays > maxHorizonDays {
		horizonDays = maxHorizonDays
	}
	doctor, err := d.repository.FindDoctorByUUID(ctx, doctorUUID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if doctor == nil {
		return nil, apierrors.NewNotFoundError(ErrDoctorNotFound)
	}
	candidates := make([]candidate, 0)
	for offset := int32(0); offset <= horizonDays; offset++ {
		date := requestedDate.AddDate(0, 0, int(offset))
		daySchedule, err := d.availabilityFor(ctx, doctor, date)
		if err != nil {
			return nil, err
		}
		for _, slot := range daySchedule.Slots {
			if !slot.Available {
				continue
			}
			slotMinute, err := schedule.ParseClock(slot.StartTime)
			if err != nil {
				continue
			}
			distance := slotMinute - requestedMinute
			if distance < 0 {
				distance = -distance
			}
			candidates = append(candidates, candidate{
				date:     date,
				slotTime: slot.StartTime,
				sameDay:  offset == 0,
				distance: distance,
			})
		}
	}
	rankCandidates(candidates)
	if len(candidates) > maxSuggestions {
		candidates = candidates[:maxSuggestions]
	}
	suggestions := make([]Suggestion, 0, len(candidates))
	for _, c := range candidates {
		suggestions = append(suggestions, Suggestion{
			Date:     c.date.Format(schedule.DateLayout),
			Time:     c.slotTime,
			Priority: priorityFor(c.distance),
		})
	}
	return suggestions, nil
}

// rankCandidates orders the candidates by same-day bonus, then time distance from the
// requested slot, then earliest date, then earliest time.
func rankCandidates(candidates []candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].sameDay != candidates[j].sameDay {
			return candidates[i].sameDay
		}
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		if !candidates[i].date.Equal(candidates[j].date) {
			return candidates[i].date.Before(candidates[j].date)
		}
		return candidates[i].slotTime < candidates[j].slotTime
	})
}

// priorityFor assigns a priority by time distance thresholds.
func priorityFor(distance int32) string {
	switch {
	case distance <= highThreshold:
		return PriorityHigh
	case distance <= mediumThreshold:
		return PriorityMedium
	}
	return PriorityLow
}
