package app

import (
	"testing"
)

func TestParseCommand_DefaultsToAll(t *testing.T) {
	cmd := ParseCommand([]string{})
	if cmd != CommandAll {
		t.Errorf("ParseCommand([]) = %q, want %q", cmd, CommandAll)
	}
}

func TestParseCommand_Serve(t *testing.T) {
	cmd := ParseCommand([]string{"serve"})
	if cmd != CommandServe {
		t.Errorf("ParseCommand([serve]) = %q, want %q", cmd, CommandServe)
	}
}

func TestParseCommand_Bot(t *testing.T) {
	cmd := ParseCommand([]string{"bot"})
	if cmd != CommandBot {
		t.Errorf("ParseCommand([bot]) = %q, want %q", cmd, CommandBot)
	}
}

func TestParseCommand_Migrate(t *testing.T) {
	cmd := ParseCommand([]string{"migrate"})
	if cmd != CommandMigrate {
		t.Errorf("ParseCommand([migrate]) = %q, want %q", cmd, CommandMigrate)
	}
}

func TestParseCommand_Healthcheck(t *testing.T) {
	cmd := ParseCommand([]string{"healthcheck"})
	if cmd != CommandHealthcheck {
		t.Errorf("ParseCommand([healthcheck]) = %q, want %q", cmd, CommandHealthcheck)
	}
}

func TestParseCommand_UnknownDefaultsToAll(t *testing.T) {
	cmd := ParseCommand([]string{"unknown"})
	if cmd != CommandAll {
		t.Errorf("ParseCommand([unknown]) = %q, want %q", cmd, CommandAll)
	}
}

func TestParseCommand_IgnoresExtraArgs(t *testing.T) {
	cmd := ParseCommand([]string{"bot", "--flag", "value"})
	if cmd != CommandBot {
		t.Errorf("ParseCommand([bot --flag value]) = %q, want %q", cmd, CommandBot)
	}
}
