package cmd

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/crmarques/boardprompt/collection"
	"github.com/crmarques/boardprompt/config"
	trackerhttp "github.com/crmarques/boardprompt/internal/providers/server/http"
	"github.com/crmarques/boardprompt/resource"
	"github.com/crmarques/boardprompt/server"
	"github.com/crmarques/boardprompt/session"
)

// App is the wired session runtime shared by all commands.
type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Client    server.RemoteClient
	Session   *session.Session
	Refresher *session.Refresher
	Editor    session.EditorFunc
}

var app *App

// NewApp connects to the tracker, resolves the board context, and builds
// the session with one collection per resource type.
func NewApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	gateway, err := trackerhttp.NewTrackerGateway(cfg.Tracker, cfg.Board)
	if err != nil {
		return nil, err
	}

	board, err := gateway.ResolveBoard(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("board resolved",
		"board", board.BoardID,
		"project", board.ProjectID,
		"user", board.UserID,
		"sprint", board.SprintName)

	sess := session.NewSession(board, server.Credential{})
	for _, typ := range []resource.Type{resource.TypeCard, resource.TypeWorklog, resource.TypeSprint} {
		sess.Register(collection.New(typ, gateway, cfg.EditableKeysFor(typ)))
	}

	refresher := session.NewRefresher(
		sess,
		gateway,
		cfg.RefreshInterval(),
		cfg.CredentialMargin(),
		logger,
	)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Client:    gateway,
		Session:   sess,
		Refresher: refresher,
		Editor:    session.CommandEditor(editorCommand(cfg), os.Stdin, os.Stdout, os.Stderr),
	}, nil
}

func editorCommand(cfg config.Config) string {
	if command := strings.TrimSpace(cfg.Editor); command != "" {
		return command
	}
	if command := strings.TrimSpace(os.Getenv("EDITOR")); command != "" {
		return command
	}
	return session.DefaultEditorCommand
}

// cards returns the card collection, loading it on first use.
func (a *App) cards(ctx context.Context) (*collection.Collection, error) {
	col, _ := a.Session.Collection(resource.TypeCard)
	if col.Current() == nil {
		if _, err := col.Load(ctx, server.Query{}); err != nil {
			return nil, err
		}
	}
	return col, nil
}

// worklogs returns the worklog collection scoped to one card, reloading
// when the scope moves to a different card.
func (a *App) worklogs(ctx context.Context, cardID string) (*collection.Collection, error) {
	col, _ := a.Session.Collection(resource.TypeWorklog)
	if _, err := col.Load(ctx, server.Query{CardID: cardID}); err != nil {
		return nil, err
	}
	return col, nil
}

func (a *App) sprints(ctx context.Context) (*collection.Collection, error) {
	col, _ := a.Session.Collection(resource.TypeSprint)
	if col.Current() == nil {
		if _, err := col.Load(ctx, server.Query{}); err != nil {
			return nil, err
		}
	}
	return col, nil
}
