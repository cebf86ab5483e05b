package commands

import (
	"context"

	"github.com/muratoffalex/telechat/internal/telegram"
)

// Command handles one slash command. Execute runs on its own goroutine per
// update, so implementations must not share mutable state across calls.
type Command interface {
	Name() string
	Aliases() []string
	Execute(ctx context.Context, msg *telegram.Message) error
}
