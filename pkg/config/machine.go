package config

import "os"

// Machine profile defaults. Rates are mm/min, accelerations mm/s²,
// tool change durations seconds.
const (
	DefaultRapidRateXY = 3000.0
	DefaultRapidRateZ  = 400.0
	DefaultAccelXY     = 500.0
	DefaultAccelZ      = 100.0

	DefaultManualToolChangeTime    = 30.0
	DefaultAutomaticToolChangeTime = 10.0

	DefaultFallbackRate = 100.0
)

// MachineProfile holds the kinematic limits and playback tuning read from
// a machine profile file.
type MachineProfile struct {
	// Per-axis rapid rate ceilings (mm/min) for X, Y, Z.
	RapidRate [3]float64

	// Per-axis accelerations (mm/s²) for X, Y, Z.
	Accel [3]float64

	// Fixed tool change durations (seconds).
	ManualToolChangeTime    float64
	AutomaticToolChangeTime float64

	// Playback index advance rate when a file has neither distance nor
	// feed-derived time (index units per second).
	FallbackRate float64
}

// DefaultMachineProfile returns a profile with documented defaults.
func DefaultMachineProfile() MachineProfile {
	return MachineProfile{
		RapidRate:               [3]float64{DefaultRapidRateXY, DefaultRapidRateXY, DefaultRapidRateZ},
		Accel:                   [3]float64{DefaultAccelXY, DefaultAccelXY, DefaultAccelZ},
		ManualToolChangeTime:    DefaultManualToolChangeTime,
		AutomaticToolChangeTime: DefaultAutomaticToolChangeTime,
		FallbackRate:            DefaultFallbackRate,
	}
}

// LoadMachineProfile reads a machine profile file. A missing file yields
// the default profile; present options must validate (> 0).
func LoadMachineProfile(path string) (MachineProfile, error) {
	profile := DefaultMachineProfile()
	if path == "" {
		return profile, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return profile, nil
	}

	c, err := Load(path)
	if err != nil {
		return profile, err
	}
	return machineProfileFrom(c)
}

// MachineProfileFromString parses a profile from config text (used in tests).
func MachineProfileFromString(data string) (MachineProfile, error) {
	c, err := LoadString(data)
	if err != nil {
		return DefaultMachineProfile(), err
	}
	return machineProfileFrom(c)
}

func machineProfileFrom(c *Config) (MachineProfile, error) {
	profile := DefaultMachineProfile()

	machine := c.Section("machine")
	axisOptions := []struct {
		rate  string
		accel string
		idx   int
	}{
		{"max_velocity_x", "accel_x", 0},
		{"max_velocity_y", "accel_y", 1},
		{"max_velocity_z", "accel_z", 2},
	}
	for _, opt := range axisOptions {
		rate, err := machine.GetPositiveFloat(opt.rate, profile.RapidRate[opt.idx])
		if err != nil {
			return profile, err
		}
		profile.RapidRate[opt.idx] = rate

		accel, err := machine.GetPositiveFloat(opt.accel, profile.Accel[opt.idx])
		if err != nil {
			return profile, err
		}
		profile.Accel[opt.idx] = accel
	}

	manual, err := machine.GetPositiveFloat("manual_tool_change_time", profile.ManualToolChangeTime)
	if err != nil {
		return profile, err
	}
	profile.ManualToolChangeTime = manual

	auto, err := machine.GetPositiveFloat("automatic_tool_change_time", profile.AutomaticToolChangeTime)
	if err != nil {
		return profile, err
	}
	profile.AutomaticToolChangeTime = auto

	playback := c.Section("playback")
	rate, err := playback.GetPositiveFloat("fallback_rate", profile.FallbackRate)
	if err != nil {
		return profile, err
	}
	profile.FallbackRate = rate

	return profile, nil
}
