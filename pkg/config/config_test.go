package config

import (
	"testing"

	"gcodeview/pkg/errors"
)

func TestLoadString(t *testing.T) {
	c, err := LoadString(`
# machine profile
[machine]
max_velocity_x: 6000
accel_x = 1000

[playback]
fallback_rate: 50
`)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}

	if !c.HasSection("machine") || !c.HasSection("playback") {
		t.Fatalf("sections missing, got %v", c.SectionNames())
	}

	v, err := c.Section("machine").GetFloat("max_velocity_x")
	if err != nil || v != 6000 {
		t.Errorf("max_velocity_x = %v, %v; want 6000", v, err)
	}

	// '=' separator works too
	a, err := c.Section("machine").GetFloat("accel_x")
	if err != nil || a != 1000 {
		t.Errorf("accel_x = %v, %v; want 1000", a, err)
	}
}

func TestSectionFallbacks(t *testing.T) {
	c, err := LoadString("[machine]\naccel_x: 700\n")
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}

	s := c.Section("machine")
	if v, err := s.GetFloat("accel_y", 500); err != nil || v != 500 {
		t.Errorf("fallback GetFloat = %v, %v; want 500", v, err)
	}

	if _, err := s.GetFloat("missing"); err == nil {
		t.Error("GetFloat without fallback should error on missing option")
	}

	// Absent section acts as empty; getters return fallbacks
	if v, err := c.Section("nope").GetInt("n", 7); err != nil || v != 7 {
		t.Errorf("absent-section GetInt = %v, %v; want 7", v, err)
	}
}

func TestMalformedConfig(t *testing.T) {
	if _, err := LoadString("[machine\naccel_x: 1\n"); err == nil {
		t.Error("malformed section header should error")
	}
	if _, err := LoadString("accel_x: 1\n"); err == nil {
		t.Error("option outside of section should error")
	}
	if _, err := LoadString("[machine]\nnonsense\n"); err == nil {
		t.Error("option without separator should error")
	}
}

func TestMachineProfileDefaults(t *testing.T) {
	p, err := LoadMachineProfile("")
	if err != nil {
		t.Fatalf("LoadMachineProfile: %v", err)
	}

	want := DefaultMachineProfile()
	if p != want {
		t.Errorf("empty path should yield defaults, got %+v", p)
	}
	if p.RapidRate[2] != DefaultRapidRateZ {
		t.Errorf("Z rapid rate = %v, want %v", p.RapidRate[2], DefaultRapidRateZ)
	}
}

func TestMachineProfileOverrides(t *testing.T) {
	p, err := MachineProfileFromString(`
[machine]
max_velocity_y: 4500
accel_z: 250
manual_tool_change_time: 45
`)
	if err != nil {
		t.Fatalf("MachineProfileFromString: %v", err)
	}

	if p.RapidRate[1] != 4500 {
		t.Errorf("RapidRate[1] = %v, want 4500", p.RapidRate[1])
	}
	if p.Accel[2] != 250 {
		t.Errorf("Accel[2] = %v, want 250", p.Accel[2])
	}
	if p.ManualToolChangeTime != 45 {
		t.Errorf("ManualToolChangeTime = %v, want 45", p.ManualToolChangeTime)
	}
	// Untouched options keep defaults
	if p.RapidRate[0] != DefaultRapidRateXY {
		t.Errorf("RapidRate[0] = %v, want default", p.RapidRate[0])
	}
}

func TestMachineProfileValidation(t *testing.T) {
	_, err := MachineProfileFromString("[machine]\naccel_x: -100\n")
	if err == nil {
		t.Fatal("negative accel should be rejected")
	}
	if errors.CodeOf(err) != errors.ErrConfigValidation {
		t.Errorf("error code = %v, want %v", errors.CodeOf(err), errors.ErrConfigValidation)
	}

	if _, err := MachineProfileFromString("[machine]\nmax_velocity_x: 0\n"); err == nil {
		t.Error("zero rapid rate should be rejected")
	}
}
