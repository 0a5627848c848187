package models

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in       string
		wantType CommandType
		wantArgs []string
	}{
		{in: "/sale 3 10 12 Green Tea", wantType: CommandSale, wantArgs: []string{"3", "10", "12", "Green", "Tea"}},
		{in: "SALES 1 2 3 x", wantType: CommandSale, wantArgs: []string{"1", "2", "3", "x"}},
		{in: "  /report  ", wantType: CommandReport},
		{in: "/top 3", wantType: CommandTop, wantArgs: []string{"3"}},
		{in: "/start", wantType: CommandHelp},
		{in: "hello there", wantType: CommandUnknown, wantArgs: []string{"there"}},
		{in: "", wantType: CommandUnknown},
	}

	for _, tt := range tests {
		cmd := ParseCommand(tt.in)
		if cmd.Type != tt.wantType {
			t.Errorf("ParseCommand(%q).Type = %q, want %q", tt.in, cmd.Type, tt.wantType)
		}
		if len(cmd.Args) != len(tt.wantArgs) {
			t.Errorf("ParseCommand(%q).Args = %v, want %v", tt.in, cmd.Args, tt.wantArgs)
			continue
		}
		for i := range tt.wantArgs {
			if cmd.Args[i] != tt.wantArgs[i] {
				t.Errorf("ParseCommand(%q).Args[%d] = %q, want %q", tt.in, i, cmd.Args[i], tt.wantArgs[i])
			}
		}
	}
}
