package commands

import (
	"context"
	"os"
	"path/filepath"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/diamondburned/arikawa/v3/session"
	"github.com/diamondburned/arikawa/v3/utils/sendpart"
	"go.uber.org/zap"

	"github.com/knockerbot/knocker/internal/ai"
)

// DrawCommand handles the /draw command: it generates images from a text
// prompt and posts them as attachments.
type DrawCommand struct {
	logger *zap.Logger
	images *ai.ImageService
}

// NewDrawCommand creates a new DrawCommand instance.
func NewDrawCommand(logger *zap.Logger, images *ai.ImageService) Command {
	return &DrawCommand{
		logger: logger.Named("draw_command"),
		images: images,
	}
}

// Name returns the name of the command.
func (c *DrawCommand) Name() string {
	return "draw"
}

// Description returns the description of the command.
func (c *DrawCommand) Description() string {
	return "Generate an image from a prompt."
}

// Options returns the command options.
func (c *DrawCommand) Options() []discord.CommandOption {
	return []discord.CommandOption{
		&discord.StringOption{
			OptionName:  "prompt",
			Description: "What to draw",
			Required:    true,
		},
	}
}

// Execute runs the command. Image generation takes well beyond the
// interaction deadline, so the result arrives as a follow-up message.
func (c *DrawCommand) Execute(ctx context.Context, s *session.Session, e *gateway.InteractionCreateEvent, data *discord.CommandInteraction) error {
	var prompt string
	for _, opt := range data.Options {
		if opt.Name == "prompt" {
			prompt = opt.String()
		}
	}
	if prompt == "" {
		return respondEphemeral(s, e, "Please provide a prompt.")
	}

	if err := respond(s, e, "🎨 Drawing..."); err != nil {
		return err
	}

	go func() {
		paths, err := c.images.Generate(ctx, prompt)
		if err != nil {
			c.logger.Error("Failed to generate image", zap.Error(err))
			if _, err := s.SendMessage(e.ChannelID, "❌ Failed to generate image."); err != nil {
				c.logger.Error("Failed to send follow-up message", zap.Error(err))
			}
			return
		}
		c.sendImages(s, e.ChannelID, paths)
	}()

	return nil
}

func (c *DrawCommand) sendImages(s *session.Session, channelID discord.ChannelID, paths []string) {
	files := make([]sendpart.File, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			c.logger.Error("Failed to open generated image", zap.String("path", path), zap.Error(err))
			continue
		}
		defer f.Close()
		files = append(files, sendpart.File{
			Name:   filepath.Base(path),
			Reader: f,
		})
	}
	if len(files) == 0 {
		return
	}

	if _, err := s.SendMessageComplex(channelID, api.SendMessageData{Files: files}); err != nil {
		c.logger.Error("Failed to send generated images", zap.Error(err))
	}
}
