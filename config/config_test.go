package config

import "testing"

func TestDefaultValidates(t *testing.T) {
	o := Default()
	if err := o.Validate(); err != nil {
		t.Fatalf("default options should validate: %v", err)
	}
}

func TestLoadBytesOverridesAndValidates(t *testing.T) {
	o := Default()
	err := o.LoadBytes([]byte(`
output: svn
commit_threshold: 30
symbol_overrides:
  - name: REL1
    kind: tag
  - name: bogus
    kind: nonsense
`))
	if err == nil {
		t.Fatalf("expected validation failure for bogus symbol override kind")
	}
}

func TestLoadBytesGoodOverlay(t *testing.T) {
	o := Default()
	if err := o.LoadBytes([]byte("output: svn\ncommit_threshold: 30\n")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Output != "svn" || o.CommitThreshold != 30 {
		t.Fatalf("overlay did not apply: %+v", o)
	}
}

func TestValidateRejectsBadStartEnd(t *testing.T) {
	o := Default()
	o.StartPass = 5
	o.EndPass = 2
	if err := o.Validate(); err == nil {
		t.Fatalf("expected error when --start is after --end")
	}
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	o := Default()
	o.Output = "fossil"
	if err := o.Validate(); err == nil {
		t.Fatalf("expected error for unknown output backend")
	}
}
