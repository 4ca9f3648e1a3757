package binpac

import "testing"

func TestDiagnosticsAccumulatesAndReportsErrors(t *testing.T) {
	cfg := NewConfig()
	d := NewDiagnostics(cfg)

	if d.HasErrors() {
		t.Fatal("a fresh Diagnostics must report no errors")
	}
	if d.Err() != nil {
		t.Fatal("a fresh Diagnostics' Err() must be nil")
	}

	d.Report(nil)
	if d.HasErrors() {
		t.Fatal("Report(nil) must be a no-op")
	}

	d.Report(TypeErr{Message: "bad type"})
	d.Report(GrammarError{Message: "ambiguous"})

	if !d.HasErrors() {
		t.Fatal("expected HasErrors to be true after reporting errors")
	}
	if len(d.Errors()) != 2 {
		t.Fatalf("expected 2 recorded errors, got %d", len(d.Errors()))
	}
	if d.Err() == nil {
		t.Fatal("expected Err() to return a non-nil aggregate error")
	}
}

func TestDiagnosticsStringIncludesEveryError(t *testing.T) {
	cfg := NewConfig()
	d := NewDiagnostics(cfg)
	d.Report(TypeErr{Message: "first"})
	d.Report(TypeErr{Message: "second"})

	s := d.String()
	if s == "" {
		t.Fatal("expected a non-empty diagnostics report")
	}
}

func TestConfigBoolIntString(t *testing.T) {
	cfg := NewConfig()
	if !cfg.GetBool("resolver.report_unresolved_as_errors") {
		t.Fatal("expected the default resolver.report_unresolved_as_errors to be true")
	}
	cfg.SetInt("codegen.optimize", 2)
	if cfg.GetInt("codegen.optimize") != 2 {
		t.Fatal("expected SetInt to overwrite the prior value")
	}
	cfg.SetString("diagnostics.level", "debug")
	if cfg.GetString("diagnostics.level") != "debug" {
		t.Fatal("expected SetString to overwrite the prior value")
	}
}

func TestConfigGetMissingPanics(t *testing.T) {
	cfg := NewConfig()
	defer func() {
		if recover() == nil {
			t.Fatal("expected GetBool on a missing key to panic")
		}
	}()
	cfg.GetBool("does.not.exist")
}
