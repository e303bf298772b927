package config

import "testing"

func TestParse_OverridesOnlyPresentFields(t *testing.T) {
	c := Default()
	data := []byte(`
ProcessCount: 27
Mu: 0.5
`)
	if err := c.Parse(data); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.ProcessCount != 27 {
		t.Errorf("ProcessCount = %d, want 27", c.ProcessCount)
	}
	if c.Mu != 0.5 {
		t.Errorf("Mu = %g, want 0.5", c.Mu)
	}
	if c.Box.N[0] != 8 {
		t.Errorf("Box.N[0] = %d, want the default 8 (untouched by partial YAML)", c.Box.N[0])
	}
}

func TestValidate_RejectsNonPositiveGeometry(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*Config)
	}{
		{"zero process count", func(c *Config) { c.ProcessCount = 0 }},
		{"negative box length", func(c *Config) { c.Box.L[0] = -1 }},
		{"zero cell count", func(c *Config) { c.Box.N[2] = 0 }},
		{"negative min cell size", func(c *Config) { c.MinCellSize = -0.1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mod(c)
			if err := c.Validate(); err == nil {
				t.Errorf("expected Validate to reject %s", tc.name)
			}
		})
	}
}

func TestValidate_AcceptsDefault(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default() should validate cleanly, got %v", err)
	}
}
