package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"vkgram/pkg/bot"
	"vkgram/pkg/config"
	"vkgram/pkg/filters"
	"vkgram/pkg/keyboard"
	"vkgram/pkg/types"
	"vkgram/pkg/vkapi"
)

func main() {
	configPath := flag.String("config", "config.json", "path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	b, err := bot.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create bot:", err)
		os.Exit(1)
	}

	registerHandlers(b)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := b.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "bot exited with error:", err)
		os.Exit(1)
	}
}

func registerHandlers(b *bot.Bot) {
	must(b.OnMessage(func(ctx context.Context, event types.Event) error {
		kb := keyboard.QuickReply("Help", "Ping")
		_, err := b.API().SendMessage(ctx, event.Message.PeerID, "Hi! I echo whatever you send.", &vkapi.MessageOptions{
			Keyboard: kb,
		})
		return err
	}, filters.Command("start")))

	must(b.OnMessage(func(ctx context.Context, event types.Event) error {
		return b.SendText(ctx, event.Message.PeerID, "Commands: /start, /help, /me. Anything else is echoed back.")
	}, filters.Or(filters.Command("help"), filters.Text("help"))))

	must(b.OnMessage(func(ctx context.Context, event types.Event) error {
		user, err := b.GetUser(ctx, event.Message.FromID)
		if err != nil {
			return err
		}
		return b.SendText(ctx, event.Message.PeerID, fmt.Sprintf("You are %s %s (id %d)", user.FirstName, user.LastName, user.ID))
	}, filters.Command("me")))

	// Echo everything else that carries text and is not a command.
	must(b.OnMessage(func(ctx context.Context, event types.Event) error {
		text := vkapi.Truncate(event.Message.Text, 4096, "...")
		return b.SendText(ctx, event.Message.PeerID, text)
	}, filters.ContentType(filters.ContentText), filters.Not(filters.Command("start", "help", "me"))))
}

func must(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "handler registration failed:", err)
		os.Exit(1)
	}
}
