package main

import "testing"

func TestCommandTree(t *testing.T) {
	want := map[string]bool{"serve": false, "migrate": false, "sweep": false}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("command %q not registered", name)
		}
	}

	sub := map[string]bool{}
	for _, cmd := range sweepCmd.Commands() {
		sub[cmd.Name()] = true
	}
	if !sub["decay"] || !sub["harvest"] {
		t.Fatalf("sweep subcommands: %v", sub)
	}
	if sweepHarvestCmd.Flags().Lookup("force") == nil {
		t.Fatalf("harvest should have --force")
	}
}
