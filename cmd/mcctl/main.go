package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"

	"github.com/himbot/mission-control/internal/agent"
	"github.com/himbot/mission-control/internal/cronjob"
	"github.com/himbot/mission-control/internal/task"
)

var (
	app  = kingpin.New("mcctl", "Operator CLI for the Mission Control API")
	addr = app.Flag("addr", "Base URL of the Mission Control server").
		Envar("MISSIONCTL_ADDR").Default("http://localhost:3100").String()

	// Task commands
	taskCmd = app.Command("task", "Task management commands")

	taskListCmd = taskCmd.Command("list", "List all tasks")

	taskCreateCmd      = taskCmd.Command("create", "Create a new task")
	taskCreateTitle    = taskCreateCmd.Arg("title", "Task title").Required().String()
	taskCreateDesc     = taskCreateCmd.Flag("description", "Task description").String()
	taskCreateStatus   = taskCreateCmd.Flag("status", "Initial status").Default("backlog").String()
	taskCreateAssignee = taskCreateCmd.Flag("assignee", "Assignee").Default("himbot").String()
	taskCreatePriority = taskCreateCmd.Flag("priority", "Priority").Default("medium").String()

	taskMoveCmd    = taskCmd.Command("move", "Move a task to another column")
	taskMoveID     = taskMoveCmd.Arg("id", "Task ID").Required().String()
	taskMoveStatus = taskMoveCmd.Arg("status", "Target status").Required().String()

	taskRmCmd = taskCmd.Command("rm", "Delete a task")
	taskRmID  = taskRmCmd.Arg("id", "Task ID").Required().String()

	boardCmd = app.Command("board", "Render the kanban board")

	// Agent commands
	agentCmd     = app.Command("agent", "Agent roster commands")
	agentListCmd = agentCmd.Command("list", "List all agents")

	// Cron commands
	cronCmd     = app.Command("cron", "Cron job commands")
	cronListCmd = cronCmd.Command("list", "List all cron jobs")

	statusCmd = app.Command("status", "Show the aggregate system status")
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	ctx := context.Background()
	c := newClient(strings.TrimRight(*addr, "/"))

	var err error
	switch command {
	case taskListCmd.FullCommand():
		err = runTaskList(ctx, c)
	case taskCreateCmd.FullCommand():
		err = runTaskCreate(ctx, c)
	case taskMoveCmd.FullCommand():
		err = runTaskMove(ctx, c)
	case taskRmCmd.FullCommand():
		err = runTaskRm(ctx, c)
	case boardCmd.FullCommand():
		err = runBoard(ctx, c)
	case agentListCmd.FullCommand():
		err = runAgentList(ctx, c)
	case cronListCmd.FullCommand():
		err = runCronList(ctx, c)
	case statusCmd.FullCommand():
		err = runStatus(ctx, c)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type mutationResponse struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
}

func runTaskList(ctx context.Context, c *client) error {
	var tasks []*task.Task
	if err := c.get(ctx, "/api/tasks", &tasks); err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tASSIGNEE\tTITLE")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Priority, t.Assignee, t.Title)
	}
	return w.Flush()
}

func runTaskCreate(ctx context.Context, c *client) error {
	req := map[string]string{
		"title":       *taskCreateTitle,
		"description": *taskCreateDesc,
		"status":      *taskCreateStatus,
		"assignee":    *taskCreateAssignee,
		"priority":    *taskCreatePriority,
	}
	var resp mutationResponse
	if err := c.post(ctx, "/api/tasks", req, &resp); err != nil {
		return err
	}
	fmt.Println(resp.ID)
	return nil
}

func runTaskMove(ctx context.Context, c *client) error {
	req := map[string]string{"status": *taskMoveStatus}
	var resp mutationResponse
	if err := c.post(ctx, "/api/tasks/"+*taskMoveID+"/status", req, &resp); err != nil {
		return err
	}
	fmt.Printf("moved %s to %s\n", resp.ID, *taskMoveStatus)
	return nil
}

func runTaskRm(ctx context.Context, c *client) error {
	var resp mutationResponse
	if err := c.delete(ctx, "/api/tasks/"+*taskRmID, &resp); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", resp.ID)
	return nil
}

var columnColors = map[task.Status]*color.Color{
	task.StatusBacklog:    color.New(color.FgWhite),
	task.StatusInProgress: color.New(color.FgYellow),
	task.StatusReview:     color.New(color.FgMagenta),
	task.StatusDone:       color.New(color.FgGreen),
}

var priorityColors = map[task.Priority]*color.Color{
	task.PriorityLow:    color.New(color.FgHiBlack),
	task.PriorityMedium: color.New(color.FgBlue),
	task.PriorityHigh:   color.New(color.FgYellow),
	task.PriorityUrgent: color.New(color.FgRed, color.Bold),
}

func runBoard(ctx context.Context, c *client) error {
	var tasks []*task.Task
	if err := c.get(ctx, "/api/tasks", &tasks); err != nil {
		return err
	}

	byStatus := make(map[task.Status][]*task.Task)
	for _, t := range tasks {
		byStatus[t.Status] = append(byStatus[t.Status], t)
	}

	for _, status := range task.Statuses() {
		col := byStatus[status]
		header := fmt.Sprintf("%s (%d)", strings.ToUpper(string(status)), len(col))
		columnColors[status].Add(color.Bold).Println(header)
		if len(col) == 0 {
			fmt.Println("  -")
			fmt.Println()
			continue
		}
		for _, t := range col {
			marker := priorityColors[t.Priority].Sprintf("[%s]", t.Priority)
			fmt.Printf("  %s %s %s\n", t.ID, marker, t.Title)
		}
		fmt.Println()
	}
	return nil
}

func runAgentList(ctx context.Context, c *client) error {
	var agents []*agent.Agent
	if err := c.get(ctx, "/api/agents", &agents); err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tROLE\tSTATUS\tCURRENT TASK\tLAST ACTIVE")
	for _, a := range agents {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a.Name, a.Role, a.Status, a.CurrentTask, humanize(a.LastActive))
	}
	return w.Flush()
}

func runCronList(ctx context.Context, c *client) error {
	var jobs []*cronjob.CronJob
	if err := c.get(ctx, "/api/cronjobs", &jobs); err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSCHEDULE\tSTATUS\tLAST RUN\tLAST RESULT")
	for _, j := range jobs {
		lastRun := "-"
		if j.LastRun != nil {
			lastRun = humanize(*j.LastRun)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", j.Name, j.Schedule, j.Status, lastRun, j.LastResult)
	}
	return w.Flush()
}

type statusResponse struct {
	Status    string      `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Tasks     task.Counts `json:"tasks"`
	Agents    struct {
		Total        int      `json:"total"`
		Working      int      `json:"working"`
		WorkingNames []string `json:"working_names"`
	} `json:"agents"`
	CronJobs struct {
		Total  int `json:"total"`
		Active int `json:"active"`
	} `json:"cronJobs"`
	LastActivity *struct {
		Type        string    `json:"type"`
		Description string    `json:"description"`
		Timestamp   time.Time `json:"timestamp"`
	} `json:"lastActivity"`
}

func runStatus(ctx context.Context, c *client) error {
	var resp statusResponse
	if err := c.get(ctx, "/api/status", &resp); err != nil {
		return err
	}

	if resp.Status == "online" {
		color.Green("● %s", resp.Status)
	} else {
		color.Red("● %s", resp.Status)
	}
	fmt.Printf("tasks: %d total (%d backlog, %d in progress, %d review, %d done)\n",
		resp.Tasks.Total, resp.Tasks.Backlog, resp.Tasks.InProgress, resp.Tasks.Review, resp.Tasks.Done)
	fmt.Printf("agents: %d total, %d working", resp.Agents.Total, resp.Agents.Working)
	if len(resp.Agents.WorkingNames) > 0 {
		fmt.Printf(" (%s)", strings.Join(resp.Agents.WorkingNames, ", "))
	}
	fmt.Println()
	fmt.Printf("cron jobs: %d total, %d active\n", resp.CronJobs.Total, resp.CronJobs.Active)
	if resp.LastActivity != nil {
		fmt.Printf("last activity: %s (%s, %s)\n",
			resp.LastActivity.Description, resp.LastActivity.Type, humanize(resp.LastActivity.Timestamp))
	}
	return nil
}

func humanize(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
