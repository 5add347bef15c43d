package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"

	"github.com/kazz187/npcgate/internal/client"
	"github.com/kazz187/npcgate/internal/interaction"
	"github.com/kazz187/npcgate/internal/interaction/repositoryimpl"
	"github.com/kazz187/npcgate/pkg/clog"
)

var (
	app = kingpin.New("npcgate", "Talk to game NPCs through the npcgate gateway")

	gatewayURL = app.Flag("gateway", "Gateway base URL").Envar("NPCGATE_GATEWAY_URL").Default("http://localhost:7071").String()
	email      = app.Flag("email", "Player email sent as the client principal").Envar("NPCGATE_EMAIL").String()
	token      = app.Flag("token", "Bearer token sent instead of a client principal").Envar("NPCGATE_TOKEN").String()
	game       = app.Flag("game", "Game id").Default(interaction.DefaultGame).String()
	timeout    = app.Flag("timeout", "Client side timeout per request").Default("150s").Duration()
	verbose    = app.Flag("verbose", "Log debug output to stderr").Short('v').Bool()

	// Interaction commands
	sessionCmd = app.Command("session", "Start an interactive session (talk <npc>, state [npc], reset [npc], quit)")

	playCmd    = app.Command("play", "Run a YAML visit script in one session")
	playScript = playCmd.Arg("script", "Path to the visit script").Required().ExistingFile()

	// Direct endpoint commands
	passCmd = app.Command("pass", "Call the pass-task endpoint and print the backend JSON")

	registerCmd    = app.Command("register", "Submit the registration form and print the returned page")
	registerFields = registerCmd.Flag("field", "Form field as key=value").Short('f').StringMap()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(clog.NewHTTPTextHandler(os.Stderr, clog.WithLevel(level)))))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opts []client.Option
	if *token != "" {
		opts = append(opts, client.WithBearerToken(*token))
	}
	opts = append(opts, client.WithHTTPClient(&http.Client{Timeout: *timeout}))
	gw := client.NewGatewayClient(*gatewayURL, *email, opts...)

	var err error
	switch command {
	case sessionCmd.FullCommand():
		err = runSession(ctx, newMachine(gw, *game), os.Stdin, os.Stdout)
	case playCmd.FullCommand():
		err = handlePlay(ctx, gw, *playScript)
	case passCmd.FullCommand():
		err = handlePass(ctx, gw)
	case registerCmd.FullCommand():
		err = handleRegister(ctx, gw, *registerFields)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newMachine(gw interaction.Gateway, game string) *interaction.Machine {
	return interaction.NewMachine(
		repositoryimpl.NewMemoryRepository(),
		gw,
		interaction.WithGame(game),
		interaction.WithPresenter(newTerminalPresenter(os.Stdout)),
	)
}

func handlePlay(ctx context.Context, gw interaction.Gateway, path string) error {
	script, err := loadScript(path)
	if err != nil {
		return err
	}
	g := *game
	if script.Game != "" {
		g = script.Game
	}
	return script.Run(ctx, newMachine(gw, g), os.Stdout)
}

func handlePass(ctx context.Context, gw *client.GatewayClient) error {
	doc, err := gw.Pass(ctx)
	if err != nil {
		return fmt.Errorf("failed to call pass task: %w", err)
	}
	fmt.Println(doc.Get("@pretty").String())
	return nil
}

func handleRegister(ctx context.Context, gw *client.GatewayClient, fields map[string]string) error {
	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}
	page, err := gw.Register(ctx, form)
	if err != nil {
		return fmt.Errorf("failed to register: %w", err)
	}
	fmt.Println(page)
	return nil
}
