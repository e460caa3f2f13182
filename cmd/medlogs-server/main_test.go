package main

import "testing"

func TestMigrateCmd_Subcommands(t *testing.T) {
	cmd := migrateCmd()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"up", "status"} {
		if !names[want] {
			t.Errorf("migrate should have a %q subcommand", want)
		}
	}
}

func TestAdminCmd_SeedUserFlags(t *testing.T) {
	cmd := adminCmd()
	var seed bool
	for _, sub := range cmd.Commands() {
		if sub.Name() == "seed-user" {
			seed = true
			for _, flag := range []string{"name", "email", "password"} {
				if sub.Flags().Lookup(flag) == nil {
					t.Errorf("seed-user should define --%s", flag)
				}
			}
		}
	}
	if !seed {
		t.Error("admin should have a seed-user subcommand")
	}
}

func TestServeCmd(t *testing.T) {
	if got := serveCmd().Name(); got != "serve" {
		t.Errorf("unexpected command name %q", got)
	}
}
