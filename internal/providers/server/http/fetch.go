package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/crmarques/boardprompt/resource"
	"github.com/crmarques/boardprompt/server"
	"github.com/crmarques/boardprompt/timeutil"
)

// Fetch returns the full remote state for one resource type. Cards come
// from issue search, worklogs from the per-card worklog endpoint, and
// sprints from the configured board.
func (g *TrackerGateway) Fetch(ctx context.Context, typ resource.Type, query server.Query) ([]resource.Resource, error) {
	switch typ {
	case resource.TypeCard:
		return g.fetchCards(ctx, query)
	case resource.TypeWorklog:
		return g.fetchWorklogs(ctx, query)
	case resource.TypeSprint:
		return g.fetchSprints(ctx)
	default:
		return nil, validationError(fmt.Sprintf("unsupported resource type %q", typ), nil)
	}
}

type searchResponse struct {
	StartAt    int            `json:"startAt"`
	MaxResults int            `json:"maxResults"`
	Total      int            `json:"total"`
	Issues     []issuePayload `json:"issues"`
}

type issuePayload struct {
	ID     string         `json:"id"`
	Key    string         `json:"key"`
	Fields map[string]any `json:"fields"`
}

func (g *TrackerGateway) fetchCards(ctx context.Context, query server.Query) ([]resource.Resource, error) {
	jql, err := g.buildJQL(ctx, query)
	if err != nil {
		return nil, err
	}

	var cards []resource.Resource
	startAt := 0
	for {
		body, err := g.execute(ctx, requestSpec{
			method: http.MethodGet,
			path:   "/rest/api/2/search",
			query: map[string]string{
				"jql":        jql,
				"startAt":    strconv.Itoa(startAt),
				"maxResults": strconv.Itoa(searchPageSize),
			},
		})
		if err != nil {
			return nil, err
		}

		var page searchResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, remoteError("search response is not valid JSON", err)
		}

		for _, issue := range page.Issues {
			cards = append(cards, cardResource(issue))
		}

		startAt += len(page.Issues)
		if startAt >= page.Total || len(page.Issues) == 0 {
			break
		}
	}
	return cards, nil
}

// buildJQL assembles the search filter. An empty sprint filter scopes to
// the active sprint; the literal "backlog" matches cards in no sprint.
func (g *TrackerGateway) buildJQL(ctx context.Context, query server.Query) (string, error) {
	board, err := g.ResolveBoard(ctx)
	if err != nil {
		return "", err
	}

	clauses := []string{fmt.Sprintf("project = %s", quoteJQL(board.ProjectID))}

	sprint := strings.TrimSpace(query.Sprint)
	switch {
	case strings.EqualFold(sprint, "backlog"):
		clauses = append(clauses, "sprint is EMPTY")
	case sprint != "":
		clauses = append(clauses, fmt.Sprintf("sprint = %s", quoteJQL(sprint)))
	case board.SprintID != "":
		clauses = append(clauses, fmt.Sprintf("sprint = %s", board.SprintID))
	}

	if assignee := strings.TrimSpace(query.Assignee); assignee != "" {
		clauses = append(clauses, fmt.Sprintf("assignee = %s", quoteJQL(assignee)))
	}
	if status := strings.TrimSpace(query.Status); status != "" {
		clauses = append(clauses, fmt.Sprintf("status = %s", quoteJQL(status)))
	}
	if text := strings.TrimSpace(query.Text); text != "" {
		clauses = append(clauses, fmt.Sprintf("summary ~ %s", quoteJQL(text)))
	}

	return strings.Join(clauses, " AND ") + " ORDER BY rank ASC", nil
}

func quoteJQL(value string) string {
	if _, err := strconv.Atoi(value); err == nil {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
}

// cardResource flattens the tracker's nested issue payload into the
// editable field shape: scalar summary/status/assignee, first component,
// label list, sprint name, friendly remaining estimate.
func cardResource(issue issuePayload) resource.Resource {
	fields := resource.Fields{
		"summary":  stringField(issue.Fields, "summary"),
		"status":   nestedStringField(issue.Fields, "status", "name"),
		"assignee": nestedStringField(issue.Fields, "assignee", "name"),
		"labels":   stringSliceField(issue.Fields, "labels"),
		"sprint":   sprintNameField(issue.Fields),
		"timeleft": remainingEstimateField(issue.Fields),
	}

	fields["component"] = ""
	if components, ok := issue.Fields["components"].([]any); ok && len(components) > 0 {
		if first, ok := components[0].(map[string]any); ok {
			fields["component"], _ = first["name"].(string)
		}
	}

	return resource.Resource{ID: issue.Key, Type: resource.TypeCard, Fields: fields}
}

func stringField(fields map[string]any, key string) string {
	value, _ := fields[key].(string)
	return value
}

func nestedStringField(fields map[string]any, key, nested string) string {
	container, ok := fields[key].(map[string]any)
	if !ok {
		return ""
	}
	value, _ := container[nested].(string)
	return value
}

func stringSliceField(fields map[string]any, key string) []any {
	values, ok := fields[key].([]any)
	if !ok {
		return []any{}
	}
	return values
}

// sprintNameField digs the active sprint name out of the issue's sprint
// field, which trackers report either as objects or as serialized
// strings with name=... inside.
func sprintNameField(fields map[string]any) string {
	raw, ok := fields["sprint"]
	if !ok {
		raw = fields["customfield_10020"]
	}
	switch value := raw.(type) {
	case map[string]any:
		name, _ := value["name"].(string)
		return name
	case string:
		return parseSprintBlob(value)
	case []any:
		if len(value) == 0 {
			return ""
		}
		switch last := value[len(value)-1].(type) {
		case map[string]any:
			name, _ := last["name"].(string)
			return name
		case string:
			return parseSprintBlob(last)
		}
	}
	return ""
}

func parseSprintBlob(blob string) string {
	start := strings.Index(blob, "name=")
	if start < 0 {
		return ""
	}
	rest := blob[start+len("name="):]
	if end := strings.IndexAny(rest, ",]"); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

func remainingEstimateField(fields map[string]any) string {
	tracking, ok := fields["timetracking"].(map[string]any)
	if !ok {
		return ""
	}
	if estimate, ok := tracking["remainingEstimate"].(string); ok {
		return estimate
	}
	if seconds, ok := tracking["remainingEstimateSeconds"].(float64); ok {
		return timeutil.FriendlySeconds(int64(seconds))
	}
	return ""
}

type worklogPayload struct {
	ID        string `json:"id"`
	TimeSpent string `json:"timeSpent"`
	Started   string `json:"started"`
	Comment   string `json:"comment"`
	Author    struct {
		Name string `json:"name"`
	} `json:"author"`
}

func (g *TrackerGateway) fetchWorklogs(ctx context.Context, query server.Query) ([]resource.Resource, error) {
	cardID := strings.TrimSpace(query.CardID)
	if cardID == "" {
		return nil, validationError("worklog fetch requires a card id", nil)
	}

	body, err := g.execute(ctx, requestSpec{
		method: http.MethodGet,
		path:   "/rest/api/2/issue/" + cardID + "/worklog",
	})
	if err != nil {
		return nil, err
	}

	var page struct {
		Worklogs []worklogPayload `json:"worklogs"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, remoteError("worklog response is not valid JSON", err)
	}

	worklogs := make([]resource.Resource, 0, len(page.Worklogs))
	for _, entry := range page.Worklogs {
		g.rememberWorklogCard(entry.ID, cardID)
		worklogs = append(worklogs, resource.Resource{
			ID:   entry.ID,
			Type: resource.TypeWorklog,
			Fields: resource.Fields{
				"timeSpent": entry.TimeSpent,
				"started":   entry.Started,
				"comment":   entry.Comment,
				"author":    entry.Author.Name,
				"card":      cardID,
			},
		})
	}
	return worklogs, nil
}

type sprintPayload struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}

func (g *TrackerGateway) fetchSprints(ctx context.Context) ([]resource.Resource, error) {
	board, err := g.ResolveBoard(ctx)
	if err != nil {
		return nil, err
	}

	var sprints []resource.Resource
	startAt := 0
	for {
		body, err := g.execute(ctx, requestSpec{
			method: http.MethodGet,
			path:   "/rest/agile/1.0/board/" + board.BoardID + "/sprint",
			query:  map[string]string{"startAt": strconv.Itoa(startAt)},
		})
		if err != nil {
			return nil, err
		}

		var page struct {
			IsLast bool            `json:"isLast"`
			Values []sprintPayload `json:"values"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, remoteError("sprint response is not valid JSON", err)
		}

		for _, sprint := range page.Values {
			sprints = append(sprints, resource.Resource{
				ID:   strconv.FormatInt(sprint.ID, 10),
				Type: resource.TypeSprint,
				Fields: resource.Fields{
					"name":  sprint.Name,
					"state": sprint.State,
				},
			})
		}

		startAt += len(page.Values)
		if page.IsLast || len(page.Values) == 0 {
			break
		}
	}
	return sprints, nil
}
