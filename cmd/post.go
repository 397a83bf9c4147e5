package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/urfave/cli/v2"

	"github.com/replydeck/pkg/models"
)

// PostCommand returns the post command.
func PostCommand() *cli.Command {
	return &cli.Command{
		Name:      "post",
		Usage:     "Post a single tweet",
		ArgsUsage: "[MESSAGE]",
		Action:    runPost,
	}
}

func runPost(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if text == "" {
		fmt.Print("What would you like to tweet? ")
		reader := bufio.NewReader(os.Stdin)
		line, rerr := reader.ReadString('\n')
		if rerr != nil {
			return fmt.Errorf("failed to read message: %w", rerr)
		}
		text = strings.TrimSpace(line)
	}
	if text == "" {
		return fmt.Errorf("nothing to post")
	}
	if utf8.RuneCountInString(text) > models.PlatformReplyLimit {
		return fmt.Errorf("message is %d characters, the platform limit is %d",
			utf8.RuneCountInString(text), models.PlatformReplyLimit)
	}

	client, err := buildTwitterClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := client.PostTweet(ctx, text); err != nil {
		return fmt.Errorf("failed to post tweet: %w", err)
	}

	fmt.Println("Tweet posted.")
	return nil
}
