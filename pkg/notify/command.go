package notify

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Placeholders substituted into CommandConfig.Args before execution.
const (
	placeholderTarget  = "{{target}}"
	placeholderTitle   = "{{title}}"
	placeholderMessage = "{{message}}"
)

// CommandConfig configures the external messaging command.
type CommandConfig struct {
	// Command is the executable to run.
	Command string `yaml:"command"`

	// Args are the command arguments. Occurrences of {{target}}, {{title}}
	// and {{message}} are replaced per message.
	Args []string `yaml:"args"`

	// Target is the delivery target substituted for {{target}}, e.g. a chat
	// ID or channel name.
	Target string `yaml:"target"`

	// Timeout bounds a single delivery attempt. Default: 5 seconds.
	Timeout time.Duration `yaml:"timeout"`
}

// CommandNotifier delivers messages by running an external command, such as
// a desktop notifier or a chat-bridge CLI.
type CommandNotifier struct {
	config CommandConfig
	logger *slog.Logger
}

// NewCommandNotifier creates a command notifier.
func NewCommandNotifier(config CommandConfig) (*CommandNotifier, error) {
	if config.Command == "" {
		return nil, errors.New("notify command cannot be empty")
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}
	return &CommandNotifier{
		config: config,
		logger: slog.Default().With("component", "notify.command"),
	}, nil
}

// Send runs the configured command with the message substituted into its
// arguments. The command is killed when the timeout expires.
func (n *CommandNotifier) Send(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, n.config.Timeout)
	defer cancel()

	args := make([]string, len(n.config.Args))
	for i, arg := range n.config.Args {
		arg = strings.ReplaceAll(arg, placeholderTarget, n.config.Target)
		arg = strings.ReplaceAll(arg, placeholderTitle, msg.Title)
		arg = strings.ReplaceAll(arg, placeholderMessage, msg.Body)
		args[i] = arg
	}

	cmd := exec.CommandContext(ctx, n.config.Command, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		n.logger.Warn("Notification command failed",
			"command", n.config.Command,
			"error", err,
			"output", strings.TrimSpace(string(output)),
		)
		return NewNotificationError("command", err)
	}

	n.logger.Debug("Notification delivered", "command", n.config.Command, "title", msg.Title)
	return nil
}
