package game

import "fmt"

// Settings are the rules a match is created with. They are copied into the
// engine at creation and never change afterwards.
type Settings struct {
	PlainPeriod         int  `json:"plain_period"`
	InitialBaseSoldiers int  `json:"initial_base_soldiers"`
	FogOfWar            bool `json:"fog_of_war"`
	VisionRadius        int  `json:"vision_radius"`
}

// DefaultSettings returns the standard rule set
func DefaultSettings() Settings {
	return Settings{
		PlainPeriod:         15,
		InitialBaseSoldiers: 10,
		FogOfWar:            true,
		VisionRadius:        2,
	}
}

// Validate rejects settings the engine cannot run with
func (s Settings) Validate() error {
	if s.PlainPeriod < 1 {
		return fmt.Errorf("plain period must be at least 1, got %d", s.PlainPeriod)
	}
	if s.InitialBaseSoldiers < 0 {
		return fmt.Errorf("initial base soldiers must not be negative, got %d", s.InitialBaseSoldiers)
	}
	if s.VisionRadius < 0 {
		return fmt.Errorf("vision radius must not be negative, got %d", s.VisionRadius)
	}
	return nil
}
