package discord

import (
	"errors"
	"fmt"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestIsUnknownMember(t *testing.T) {
	unknown := &discordgo.RESTError{
		Message: &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownMember},
	}
	if !isUnknownMember(unknown) {
		t.Error("unknown-member REST error not recognized")
	}
	if !isUnknownMember(fmt.Errorf("wrapped: %w", unknown)) {
		t.Error("wrapped unknown-member error not recognized")
	}

	other := &discordgo.RESTError{
		Message: &discordgo.APIErrorMessage{Code: discordgo.ErrCodeMissingPermissions},
	}
	if isUnknownMember(other) {
		t.Error("different API error misclassified")
	}
	if isUnknownMember(&discordgo.RESTError{}) {
		t.Error("REST error without a message misclassified")
	}
	if isUnknownMember(errors.New("plain")) {
		t.Error("plain error misclassified")
	}
}
