package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/crmarques/boardprompt/server"
)

// ResolveBoard resolves the configured board, project, session user, and
// active sprint. The result is cached for the lifetime of the gateway;
// board and project assignments do not move mid-session.
func (g *TrackerGateway) ResolveBoard(ctx context.Context) (server.BoardInfo, error) {
	g.boardMu.Lock()
	defer g.boardMu.Unlock()
	if g.board.BoardID != "" {
		return g.board, nil
	}

	boardID, err := g.resolveBoardID(ctx)
	if err != nil {
		return server.BoardInfo{}, err
	}

	projectID, err := g.resolveProjectKey(ctx)
	if err != nil {
		return server.BoardInfo{}, err
	}

	userID, err := g.resolveSessionUser(ctx)
	if err != nil {
		return server.BoardInfo{}, err
	}

	info := server.BoardInfo{
		BoardID:   boardID,
		ProjectID: projectID,
		UserID:    userID,
	}

	// a board without an active sprint is fine, queries fall back to
	// explicit sprint filters
	if sprint, err := g.activeSprint(ctx, boardID); err == nil {
		info.SprintID = sprint.id
		info.SprintName = sprint.name
		info.SprintState = sprint.state
	}

	g.board = info
	return info, nil
}

func (g *TrackerGateway) resolveBoardID(ctx context.Context) (string, error) {
	if _, err := strconv.Atoi(g.boardName); err == nil {
		return g.boardName, nil
	}

	body, err := g.execute(ctx, requestSpec{
		method: http.MethodGet,
		path:   "/rest/agile/1.0/board",
		query:  map[string]string{"name": g.boardName},
	})
	if err != nil {
		return "", err
	}

	var page struct {
		Values []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"values"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return "", remoteError("board response is not valid JSON", err)
	}

	for _, board := range page.Values {
		if strings.EqualFold(board.Name, g.boardName) {
			return strconv.FormatInt(board.ID, 10), nil
		}
	}
	// fall back to the first partial match, board names are often
	// abbreviated in config
	if len(page.Values) > 0 {
		return strconv.FormatInt(page.Values[0].ID, 10), nil
	}
	return "", notFoundError("no board found matching "+strconv.Quote(g.boardName), nil)
}

func (g *TrackerGateway) resolveProjectKey(ctx context.Context) (string, error) {
	body, err := g.execute(ctx, requestSpec{
		method: http.MethodGet,
		path:   "/rest/api/2/project/" + g.projectRef,
	})
	if err != nil {
		return "", err
	}

	var project struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(body, &project); err != nil {
		return "", remoteError("project response is not valid JSON", err)
	}
	if project.Key == "" {
		return "", notFoundError("project "+strconv.Quote(g.projectRef)+" has no key", nil)
	}
	return project.Key, nil
}

func (g *TrackerGateway) resolveSessionUser(ctx context.Context) (string, error) {
	body, err := g.execute(ctx, requestSpec{
		method: http.MethodGet,
		path:   "/rest/api/2/myself",
	})
	if err != nil {
		return "", err
	}

	var myself struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &myself); err != nil {
		return "", remoteError("myself response is not valid JSON", err)
	}
	return myself.Name, nil
}

type activeSprintInfo struct {
	id    string
	name  string
	state string
}

func (g *TrackerGateway) activeSprint(ctx context.Context, boardID string) (activeSprintInfo, error) {
	body, err := g.execute(ctx, requestSpec{
		method: http.MethodGet,
		path:   "/rest/agile/1.0/board/" + boardID + "/sprint",
		query:  map[string]string{"state": "active"},
	})
	if err != nil {
		return activeSprintInfo{}, err
	}

	var page struct {
		Values []sprintPayload `json:"values"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return activeSprintInfo{}, remoteError("sprint response is not valid JSON", err)
	}
	if len(page.Values) == 0 {
		return activeSprintInfo{}, notFoundError("board has no active sprint", nil)
	}

	sprint := page.Values[0]
	return activeSprintInfo{
		id:    strconv.FormatInt(sprint.ID, 10),
		name:  sprint.Name,
		state: sprint.State,
	}, nil
}
