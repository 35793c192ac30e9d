package sources

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

type trackerExport struct {
	Metadata *trackerMetadata `json:"metadata"`
	Issues   []trackerIssue   `json:"issues"`
}

type trackerMetadata struct {
	Sprint               scalar `json:"sprint"`
	SprintVelocity       scalar `json:"sprintVelocity"`
	CompletedStoryPoints scalar `json:"completedStoryPoints"`
	TotalStoryPoints     scalar `json:"totalStoryPoints"`
}

type trackerIssue struct {
	Key         scalar           `json:"key"`
	ID          scalar           `json:"id"`
	Summary     scalar           `json:"summary"`
	Status      scalar           `json:"status"`
	Priority    scalar           `json:"priority"`
	Assignee    scalar           `json:"assignee"`
	DueDate     scalar           `json:"dueDate"`
	Progress    scalar           `json:"progress"`
	StoryPoints scalar           `json:"storyPoints"`
	Description scalar           `json:"description"`
	Comments    []trackerComment `json:"comments"`
}

type trackerComment struct {
	Author scalar `json:"author"`
	Body   scalar `json:"body"`
}

func (i trackerIssue) id() string {
	if k := i.Key.String(); k != "" {
		return k
	}
	if id := i.ID.String(); id != "" {
		return id
	}
	return "?"
}

// formatTracker flattens a tracker export into one line per ticket:
//
//	- [PLAT-101] In Progress | High | Migrate gateway | assignee: Dana | ...
//
// Tickets are grouped by status in opts.StatusOrder, statuses not listed follow
// alphabetically, and tickets keep their export order within a group.
func formatTracker(raw []byte, opts TrackerOptions) (string, int, error) {
	var export trackerExport
	if err := json.Unmarshal(raw, &export); err != nil {
		return "", 0, fmt.Errorf("malformed tracker export: %w", err)
	}

	if len(export.Issues) == 0 {
		return "", 0, nil
	}

	rank := make(map[string]int, len(opts.StatusOrder))
	for i, s := range opts.StatusOrder {
		rank[strings.ToLower(s)] = i
	}

	issues := make([]trackerIssue, len(export.Issues))
	copy(issues, export.Issues)
	sort.SliceStable(issues, func(a, b int) bool {
		sa, sb := strings.ToLower(issues[a].Status.String()), strings.ToLower(issues[b].Status.String())
		ra, oka := rank[sa]
		rb, okb := rank[sb]
		switch {
		case oka && okb:
			return ra < rb
		case oka != okb:
			return oka
		default:
			return sa < sb
		}
	})

	var lines []string
	if m := export.Metadata; m != nil {
		var meta fieldList
		meta.add("Sprint", m.Sprint.String())
		if v := m.SprintVelocity.String(); v != "" {
			meta.add("Velocity", v+" points")
		}
		if done, total := m.CompletedStoryPoints.String(), m.TotalStoryPoints.String(); done != "" || total != "" {
			meta.add("Progress", fmt.Sprintf("%s/%s points", orDefault(done, "0"), orDefault(total, "0")))
		}
		if len(meta) > 0 {
			lines = append(lines, strings.Join(meta, " | "))
		}
	}

	for _, issue := range issues {
		lines = append(lines, formatTicket(issue, opts.MaxComments))
	}

	return strings.Join(lines, "\n"), len(issues), nil
}

func formatTicket(issue trackerIssue, maxComments int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- [%s] %s | %s | %s",
		issue.id(),
		orDefault(issue.Status.String(), "No Status"),
		orDefault(issue.Priority.String(), "No Priority"),
		orDefault(issue.Summary.String(), "(no summary)"))

	var extra fieldList
	extra.add("assignee", issue.Assignee.String())
	extra.add("due", issue.DueDate.String())
	if p := issue.Progress.String(); p != "" {
		extra.add("progress", strings.TrimSuffix(p, "%")+"%")
	}
	extra.add("points", issue.StoryPoints.String())
	extra.add("details", issue.Description.String())

	comments := issue.Comments
	if maxComments > 0 && len(comments) > maxComments {
		comments = comments[len(comments)-maxComments:]
	}
	var updates []string
	for _, c := range comments {
		body := c.Body.String()
		if body == "" {
			continue
		}
		updates = append(updates, orDefault(c.Author.String(), "unknown")+": "+body)
	}
	extra.add("latest", strings.Join(updates, "; "))

	for _, f := range extra {
		b.WriteString(" | ")
		b.WriteString(f)
	}
	return b.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
