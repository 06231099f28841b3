package application

import (
	"encoding/json"

	"github.com/example/callboard/internal/persistence"
)

func toUser(u persistence.User) User {
	return User{
		ID:             u.ID,
		Email:          u.Email,
		RestaurantName: u.RestaurantName,
		LogoURL:        u.LogoURL,
		PlanID:         u.PlanID,
		BrandColor:     u.BrandColor,
		VoiceSettings:  u.VoiceSettings,
		IsActive:       u.IsActive,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func toPlan(p persistence.Plan) Plan {
	return Plan{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price,
		Features:     parseFeatures(p.Features),
		VoiceEnabled: p.VoiceEnabled,
		MultiCounter: p.MultiCounter,
		AdsEnabled:   p.AdsEnabled,
	}
}

// parseFeatures decodes the stored JSON feature list, tolerating rows
// seeded before the catalog format settled.
func parseFeatures(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var features []string
	if err := json.Unmarshal([]byte(raw), &features); err != nil {
		return []string{}
	}
	return features
}

func toCounter(c persistence.Counter) Counter {
	return Counter{
		ID:        c.ID,
		UserID:    c.UserID,
		Name:      c.Name,
		Color:     c.Color,
		IsActive:  c.IsActive,
		Position:  c.Position,
		CreatedAt: c.CreatedAt,
	}
}

func toCounters(counters []persistence.Counter) []Counter {
	out := make([]Counter, 0, len(counters))
	for _, c := range counters {
		out = append(out, toCounter(c))
	}
	return out
}

func toCommand(c persistence.Command) Command {
	return Command{
		ID:          c.ID,
		Number:      c.Number,
		Message:     c.Message,
		UserID:      c.UserID,
		CounterID:   c.CounterID,
		Status:      CommandStatus(c.Status),
		IsAnnounced: c.IsAnnounced,
		Priority:    c.Priority,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		AnnouncedAt: c.AnnouncedAt,
	}
}

func toCommandWithCounter(c persistence.CommandWithCounter) Command {
	cmd := toCommand(c.Command)
	cmd.CounterName = c.CounterName
	cmd.CounterColor = c.CounterColor
	return cmd
}

func toCommandsWithCounter(commands []persistence.CommandWithCounter) []Command {
	out := make([]Command, 0, len(commands))
	for _, c := range commands {
		out = append(out, toCommandWithCounter(c))
	}
	return out
}
