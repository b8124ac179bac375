package cmd

import (
	"testing"
)

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	if cmd.Use != "nc2csv" {
		t.Errorf("Use = %q, want %q", cmd.Use, "nc2csv")
	}
	if !cmd.SilenceUsage {
		t.Error("SilenceUsage = false, want true")
	}

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"convert", "history"} {
		found := false
		for _, n := range names {
			if n == want {
				found = true
			}
		}
		if !found {
			t.Errorf("subcommand %q not registered (have %v)", want, names)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := splitList([]string{"a, b", "c", " , d,"})
	want := []string{"a", "b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("splitList = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitList[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
