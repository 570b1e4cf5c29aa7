package diag

import "testing"

func TestPolicy_DefaultFailsOnErrorOnly(t *testing.T) {
	var p Policy
	ds := []Diagnostic{Warnf("states[0]", "", "no transition")}
	if !p.OK(ds) {
		t.Error("warnings should not fail the default policy")
	}
	ds = append(ds, Errorf("states[0].components[0].$component_ref", "c9", "missing"))
	if p.OK(ds) {
		t.Error("errors should fail the default policy")
	}
}

func TestPolicy_FailOnWarn(t *testing.T) {
	p := Policy{FailOn: SeverityWarn}
	if p.OK([]Diagnostic{Warnf("states", "", "no end state")}) {
		t.Error("warn threshold should fail on warnings")
	}
	if !p.OK(nil) {
		t.Error("empty diagnostics should pass")
	}
}

func TestSeverity_Set(t *testing.T) {
	tests := []struct {
		in      string
		want    Severity
		wantErr bool
	}{
		{"error", SeverityError, false},
		{"WARN", SeverityWarn, false},
		{"warning", SeverityWarn, false},
		{"fatal", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var s Severity
			err := s.Set(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && s != tt.want {
				t.Errorf("Set(%q) = %q, want %q", tt.in, s, tt.want)
			}
		})
	}
}

func TestCountAndSort(t *testing.T) {
	ds := []Diagnostic{
		Warnf("states[1]", "", "b"),
		Errorf("states[1]", "x", "a"),
		Warnf("components[0]", "", "c"),
	}
	c := Count(ds)
	if c.Errors != 1 || c.Warnings != 2 {
		t.Errorf("Count = %+v, want 1 error / 2 warnings", c)
	}
	Sort(ds)
	if ds[0].Path != "components[0]" {
		t.Errorf("first path = %q, want components[0]", ds[0].Path)
	}
	if ds[1].Severity != SeverityError {
		t.Errorf("errors should sort before warnings at the same path, got %q", ds[1].Severity)
	}
}

func TestPaths(t *testing.T) {
	if got := IndexPath(JoinPath("", "states"), 2); got != "states[2]" {
		t.Errorf("IndexPath = %q, want states[2]", got)
	}
	if got := JoinPath("states[2]", "components"); got != "states[2].components" {
		t.Errorf("JoinPath = %q", got)
	}
}

func TestDiagnostic_String(t *testing.T) {
	d := Errorf("states[0]", "", "no outbound transition")
	if got := d.String(); got != "[error] no outbound transition at states[0]" {
		t.Errorf("String() = %q", got)
	}
	if got := Warnf("", "", "no end state").String(); got != "[warn] no end state" {
		t.Errorf("String() = %q", got)
	}
	if _, ok := any(d).(error); ok {
		t.Error("Diagnostic must not satisfy error")
	}
}
