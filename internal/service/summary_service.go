package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"dotodo/internal/model"
	"dotodo/internal/repository"
)

// SummaryService builds human-readable progress reports for daily
// notifications and the stats command.
type SummaryService struct {
	taskRepo    *repository.TaskRepository
	sectionRepo *repository.SectionRepository
	stateRepo   *repository.StateRepository
}

func NewSummaryService(taskRepo *repository.TaskRepository, sectionRepo *repository.SectionRepository, stateRepo *repository.StateRepository) *SummaryService {
	return &SummaryService{taskRepo: taskRepo, sectionRepo: sectionRepo, stateRepo: stateRepo}
}

// DailySummary renders the report sent by the scheduled daily job:
// points, rank, streak, and the open tasks ordered by deadline.
func (s *SummaryService) DailySummary(ctx context.Context, user model.User, now time.Time) (string, error) {
	state, err := s.stateRepo.GetOrCreate(ctx, user.ID)
	if err != nil {
		return "", err
	}
	allTasks, err := s.taskRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return "", err
	}
	sections, err := s.sectionRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return "", err
	}
	sectionNames := make(map[uint]string)
	for _, sec := range sections {
		sectionNames[sec.ID] = sec.Title
	}

	var pending []model.Task
	for _, task := range allTasks {
		if task.Completed || task.IsRoutine || !task.VisibleAt(now) {
			continue
		}
		pending = append(pending, task)
	}
	sort.SliceStable(pending, func(i, j int) bool {
		switch {
		case pending[i].DueDate == nil && pending[j].DueDate == nil:
			return pending[i].CreatedAt.After(pending[j].CreatedAt)
		case pending[i].DueDate == nil:
			return false
		case pending[j].DueDate == nil:
			return true
		default:
			return pending[i].DueDate.Before(*pending[j].DueDate)
		}
	})

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily report</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("Mon, 02 Jan 2006")))

	builder.WriteString(s.ProgressLine(state, allTasks, now))
	builder.WriteString("\n\n🔥 <b>Open tasks</b>\n")
	if len(pending) == 0 {
		builder.WriteString("— nothing open, enjoy the day\n")
	} else {
		for _, task := range pending {
			builder.WriteString(FormatTaskLine(task, sectionNames, now))
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

// ProgressLine is the one-line gamification status: points, rank, level
// progress, and streak.
func (s *SummaryService) ProgressLine(state *model.UserState, tasks []model.Task, now time.Time) string {
	level := model.NumericLevelOf(state.Points)
	progress := state.Points % 100
	if progress < 0 {
		progress = 0
	}
	return fmt.Sprintf("⭐ <b>%d pts</b> · %s · level %d (%d/100) · streak %d 🔥",
		state.Points, state.Rank, level, progress, Streak(tasks, now))
}

// FormatTaskLine renders one task entry for list views: status icon,
// title, section, priority, deadline distance, and subtask progress.
func FormatTaskLine(task model.Task, sectionNames map[uint]string, now time.Time) string {
	var sb strings.Builder

	icon := "🟢"
	if task.DueDate != nil {
		d := task.DueDate.In(now.Location())
		switch {
		case startOfDay(d).Before(startOfDay(now)):
			icon = "⚠️"
		case d.Sub(now) <= 48*time.Hour:
			icon = "⏳"
		}
	}
	if task.IsRecurring() {
		icon = "♻️"
	}

	sb.WriteString(fmt.Sprintf("%s %s", icon, html.EscapeString(strings.TrimSpace(task.Title))))

	section := model.GeneralSection
	if task.SectionID != nil {
		if name, ok := sectionNames[*task.SectionID]; ok && strings.TrimSpace(name) != "" {
			section = strings.TrimSpace(name)
		}
	}
	sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(section)))

	if task.Priority != model.PriorityNone {
		sb.WriteString(fmt.Sprintf(" · %s", task.Priority))
	}

	if task.DueDate != nil {
		d := task.DueDate.In(now.Location())
		daysLeft := daysBetween(d, now)
		switch {
		case daysLeft < 0:
			sb.WriteString(fmt.Sprintf("\n   ⏰ due %s — <b>%d day(s) overdue</b>", d.Format("2006-01-02"), -daysLeft))
		case daysLeft == 0:
			sb.WriteString(fmt.Sprintf("\n   ⏰ due <b>today</b> (%s)", d.Format("2006-01-02")))
		default:
			sb.WriteString(fmt.Sprintf("\n   ⏰ due %s · %d day(s) left", d.Format("2006-01-02"), daysLeft))
		}
	}

	done := 0
	for _, sub := range task.Subtasks {
		if sub.Completed {
			done++
		}
	}
	if len(task.Subtasks) > 0 {
		sb.WriteString(fmt.Sprintf("\n   ☑️ subtasks %d/%d", done, len(task.Subtasks)))
	}

	sb.WriteByte('\n')
	return sb.String()
}
