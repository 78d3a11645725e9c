package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/crmarques/boardprompt/resource"
	"github.com/crmarques/boardprompt/timeutil"
)

// Update applies changed fields to one remote entity. Card field
// updates, status transitions, and sprint moves go through different
// endpoints; a single patch may touch all three.
func (g *TrackerGateway) Update(ctx context.Context, typ resource.Type, id string, changed resource.Fields) error {
	switch typ {
	case resource.TypeCard:
		return g.updateCard(ctx, id, changed)
	case resource.TypeWorklog:
		return g.updateWorklog(ctx, id, changed)
	default:
		return validationError(fmt.Sprintf("resource type %q cannot be updated", typ), nil)
	}
}

func (g *TrackerGateway) updateCard(ctx context.Context, id string, changed resource.Fields) error {
	fields := map[string]any{}
	for key, value := range changed {
		switch key {
		case "summary":
			fields["summary"] = value
		case "assignee":
			fields["assignee"] = map[string]any{"name": value}
		case "component":
			name, _ := value.(string)
			if strings.TrimSpace(name) == "" {
				fields["components"] = []any{}
			} else {
				fields["components"] = []any{map[string]any{"name": name}}
			}
		case "labels":
			fields["labels"] = value
		case "timeleft":
			estimate, _ := value.(string)
			fields["timetracking"] = map[string]any{
				"remainingEstimate": timeutil.SanitizeWorklog(estimate),
			}
		case "status", "sprint":
			// handled below through their own endpoints
		default:
			return validationError(fmt.Sprintf("card field %q cannot be updated", key), nil)
		}
	}

	if len(fields) > 0 {
		_, err := g.execute(ctx, requestSpec{
			method: http.MethodPut,
			path:   "/rest/api/2/issue/" + id,
			body:   map[string]any{"fields": fields},
		})
		if err != nil {
			return err
		}
	}

	if status, ok := changed["status"]; ok {
		name, _ := status.(string)
		if err := g.transitionCard(ctx, id, name); err != nil {
			return err
		}
	}

	if sprint, ok := changed["sprint"]; ok {
		name, _ := sprint.(string)
		if err := g.moveCardToSprint(ctx, id, name); err != nil {
			return err
		}
	}

	return nil
}

// transitionCard resolves the target status against the card's available
// transitions and fires the matching one.
func (g *TrackerGateway) transitionCard(ctx context.Context, id, statusName string) error {
	body, err := g.execute(ctx, requestSpec{
		method: http.MethodGet,
		path:   "/rest/api/2/issue/" + id + "/transitions",
	})
	if err != nil {
		return err
	}

	var payload struct {
		Transitions []struct {
			ID string `json:"id"`
			To struct {
				Name string `json:"name"`
			} `json:"to"`
		} `json:"transitions"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return remoteError("transitions response is not valid JSON", err)
	}

	for _, transition := range payload.Transitions {
		if strings.EqualFold(transition.To.Name, statusName) {
			_, err := g.execute(ctx, requestSpec{
				method: http.MethodPost,
				path:   "/rest/api/2/issue/" + id + "/transitions",
				body:   map[string]any{"transition": map[string]any{"id": transition.ID}},
			})
			return err
		}
	}
	return validationError(fmt.Sprintf("no transition from the current status to %q", statusName), nil)
}

// moveCardToSprint moves a card into the named sprint, or to the backlog
// when the name is empty or the literal "backlog".
func (g *TrackerGateway) moveCardToSprint(ctx context.Context, id, sprintName string) error {
	trimmed := strings.TrimSpace(sprintName)
	if trimmed == "" || strings.EqualFold(trimmed, "backlog") {
		_, err := g.execute(ctx, requestSpec{
			method: http.MethodPost,
			path:   "/rest/agile/1.0/backlog/issue",
			body:   map[string]any{"issues": []string{id}},
		})
		return err
	}

	sprintID, err := g.findSprintID(ctx, trimmed)
	if err != nil {
		return err
	}
	_, err = g.execute(ctx, requestSpec{
		method: http.MethodPost,
		path:   "/rest/agile/1.0/sprint/" + sprintID + "/issue",
		body:   map[string]any{"issues": []string{id}},
	})
	return err
}

// findSprintID matches a sprint by id, exact name, or unique substring.
func (g *TrackerGateway) findSprintID(ctx context.Context, nameOrID string) (string, error) {
	sprints, err := g.fetchSprints(ctx)
	if err != nil {
		return "", err
	}

	var partial []string
	for _, sprint := range sprints {
		name, _ := sprint.Fields["name"].(string)
		if sprint.ID == nameOrID || strings.EqualFold(name, nameOrID) {
			return sprint.ID, nil
		}
		if strings.Contains(strings.ToLower(name), strings.ToLower(nameOrID)) {
			partial = append(partial, sprint.ID)
		}
	}
	if len(partial) == 1 {
		return partial[0], nil
	}
	if len(partial) > 1 {
		return "", validationError(fmt.Sprintf("sprint %q matches more than one sprint", nameOrID), nil)
	}
	return "", notFoundError(fmt.Sprintf("no sprint found matching %q", nameOrID), nil)
}

func (g *TrackerGateway) updateWorklog(ctx context.Context, id string, changed resource.Fields) error {
	cardID, ok := g.worklogCard(id)
	if !ok {
		return notFoundError(fmt.Sprintf("worklog %q is not bound to a fetched card", id), nil)
	}

	body := map[string]any{}
	for key, value := range changed {
		switch key {
		case "timeSpent":
			spent, _ := value.(string)
			body["timeSpent"] = timeutil.SanitizeWorklog(spent)
		case "started":
			body["started"] = value
		case "comment":
			body["comment"] = value
		default:
			return validationError(fmt.Sprintf("worklog field %q cannot be updated", key), nil)
		}
	}
	if len(body) == 0 {
		return nil
	}

	_, err := g.execute(ctx, requestSpec{
		method: http.MethodPut,
		path:   "/rest/api/2/issue/" + cardID + "/worklog/" + id,
		body:   body,
	})
	return err
}

// Create makes a new remote entity. Worklog creation requires a "card"
// field naming the owning card.
func (g *TrackerGateway) Create(ctx context.Context, typ resource.Type, fields resource.Fields) (resource.Resource, error) {
	switch typ {
	case resource.TypeCard:
		return g.createCard(ctx, fields)
	case resource.TypeWorklog:
		return g.createWorklog(ctx, fields)
	default:
		return resource.Resource{}, validationError(fmt.Sprintf("resource type %q cannot be created", typ), nil)
	}
}

func (g *TrackerGateway) createCard(ctx context.Context, fields resource.Fields) (resource.Resource, error) {
	board, err := g.ResolveBoard(ctx)
	if err != nil {
		return resource.Resource{}, err
	}

	summary, _ := fields["summary"].(string)
	if strings.TrimSpace(summary) == "" {
		return resource.Resource{}, validationError("card summary is required", nil)
	}

	issueType, _ := fields["type"].(string)
	if issueType == "" {
		issueType = "Task"
	}

	payload := map[string]any{
		"project":   map[string]any{"key": board.ProjectID},
		"summary":   summary,
		"issuetype": map[string]any{"name": issueType},
	}
	if description, ok := fields["description"].(string); ok && description != "" {
		payload["description"] = description
	}
	if assignee, ok := fields["assignee"].(string); ok && assignee != "" {
		payload["assignee"] = map[string]any{"name": assignee}
	}

	body, err := g.execute(ctx, requestSpec{
		method: http.MethodPost,
		path:   "/rest/api/2/issue",
		body:   map[string]any{"fields": payload},
	})
	if err != nil {
		return resource.Resource{}, err
	}

	var created struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return resource.Resource{}, remoteError("create response is not valid JSON", err)
	}

	return resource.Resource{
		ID:     created.Key,
		Type:   resource.TypeCard,
		Fields: fields.Clone(),
	}, nil
}

func (g *TrackerGateway) createWorklog(ctx context.Context, fields resource.Fields) (resource.Resource, error) {
	cardID, _ := fields["card"].(string)
	if strings.TrimSpace(cardID) == "" {
		return resource.Resource{}, validationError("worklog creation requires a card field", nil)
	}

	spent, _ := fields["timeSpent"].(string)
	payload := map[string]any{"timeSpent": timeutil.SanitizeWorklog(spent)}
	if started, ok := fields["started"].(string); ok && started != "" {
		payload["started"] = started
	}
	if comment, ok := fields["comment"].(string); ok && comment != "" {
		payload["comment"] = comment
	}

	body, err := g.execute(ctx, requestSpec{
		method: http.MethodPost,
		path:   "/rest/api/2/issue/" + cardID + "/worklog",
		body:   payload,
	})
	if err != nil {
		return resource.Resource{}, err
	}

	var created worklogPayload
	if err := json.Unmarshal(body, &created); err != nil {
		return resource.Resource{}, remoteError("worklog response is not valid JSON", err)
	}
	g.rememberWorklogCard(created.ID, cardID)

	return resource.Resource{
		ID:   created.ID,
		Type: resource.TypeWorklog,
		Fields: resource.Fields{
			"timeSpent": created.TimeSpent,
			"started":   created.Started,
			"comment":   created.Comment,
			"author":    created.Author.Name,
			"card":      cardID,
		},
	}, nil
}

// Delete removes one remote entity.
func (g *TrackerGateway) Delete(ctx context.Context, typ resource.Type, id string) error {
	switch typ {
	case resource.TypeCard:
		_, err := g.execute(ctx, requestSpec{
			method: http.MethodDelete,
			path:   "/rest/api/2/issue/" + id,
		})
		return err
	case resource.TypeWorklog:
		cardID, ok := g.worklogCard(id)
		if !ok {
			return notFoundError(fmt.Sprintf("worklog %q is not bound to a fetched card", id), nil)
		}
		_, err := g.execute(ctx, requestSpec{
			method: http.MethodDelete,
			path:   "/rest/api/2/issue/" + cardID + "/worklog/" + id,
		})
		return err
	default:
		return validationError(fmt.Sprintf("resource type %q cannot be deleted", typ), nil)
	}
}
