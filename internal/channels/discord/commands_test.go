package discord

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantCmd  string
		wantArgs []string
	}{
		{"simple", ".lock", "lock", nil},
		{"with args", ".blacklist add <#123>", "blacklist", []string{"add", "<#123>"}},
		{"case folded", ".LOCK", "lock", nil},
		{"extra whitespace", ".keyword  off   rare ping", "keyword", []string{"off", "rare", "ping"}},
		{"bare prefix", ".", "", nil},
		{"prefix and spaces", ".   ", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := parseCommand(tt.content, ".")
			if cmd != tt.wantCmd {
				t.Errorf("cmd = %q, want %q", cmd, tt.wantCmd)
			}
			if len(args) != len(tt.wantArgs) {
				t.Fatalf("args = %v, want %v", args, tt.wantArgs)
			}
			for i := range args {
				if args[i] != tt.wantArgs[i] {
					t.Errorf("args[%d] = %q, want %q", i, args[i], tt.wantArgs[i])
				}
			}
		})
	}
}

func TestParseChannelArg(t *testing.T) {
	tests := []struct {
		arg    string
		wantID string
		wantOK bool
	}{
		{"<#123456789>", "123456789", true},
		{"123456789", "123456789", true},
		{"<#>", "", false},
		{"", "", false},
		{"general", "", false},
		{"<#12a34>", "", false},
	}

	for _, tt := range tests {
		id, ok := parseChannelArg(tt.arg)
		if id != tt.wantID || ok != tt.wantOK {
			t.Errorf("parseChannelArg(%q) = %q, %v, want %q, %v",
				tt.arg, id, ok, tt.wantID, tt.wantOK)
		}
	}
}

func TestUserFacing(t *testing.T) {
	wrapped := fmt.Errorf("apply channel lock: %w",
		fmt.Errorf("guild member lookup: %w", errors.New("member not found")))
	if got := userFacing(wrapped); got != "member not found" {
		t.Errorf("userFacing() = %q, want the innermost message", got)
	}
	if got := userFacing(errors.New("plain")); got != "plain" {
		t.Errorf("userFacing(plain) = %q", got)
	}
	if got := userFacing(nil); got != "" {
		t.Errorf("userFacing(nil) = %q, want empty", got)
	}
}

func TestHelpTextUsesPrefix(t *testing.T) {
	text := helpText("!")
	for _, cmd := range []string{"!lock", "!unlock", "!check_timer", "!blacklist", "!keyword"} {
		if !strings.Contains(text, cmd) {
			t.Errorf("help text missing %q", cmd)
		}
	}
	if strings.Contains(text, ".lock") {
		t.Error("help text leaked the default prefix")
	}
}

func TestMemberDisplayName(t *testing.T) {
	user := &discordgo.User{Username: "handle", GlobalName: "Global"}

	if got := memberDisplayName(&discordgo.Member{Nick: "Nick"}, user); got != "Nick" {
		t.Errorf("nickname should win, got %q", got)
	}
	if got := memberDisplayName(&discordgo.Member{}, user); got != "Global" {
		t.Errorf("global name should beat username, got %q", got)
	}
	if got := memberDisplayName(nil, &discordgo.User{Username: "handle"}); got != "handle" {
		t.Errorf("username fallback broken, got %q", got)
	}
}
