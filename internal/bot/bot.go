package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"dotodo/internal/config"
	"dotodo/internal/model"
	"dotodo/internal/repository"
	"dotodo/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stagePriority
	stageDue
	stageRecurrence
	stageSchedule
	stageSection
	stageSubtasks
)

const (
	cbDonePrefix   = "done:"
	cbUndoPrefix   = "undo:"
	cbDeletePrefix = "delete:"
)

const (
	btnSkip   = "⏭️ Skip"
	btnCancel = "⏪ Cancel"
)

type conversationState struct {
	stage conversationStage
	input service.TaskInput
}

// pendingMeta remembers where to report a staged completion once its undo
// window elapses.
type pendingMeta struct {
	chatID int64
	user   model.User
}

// Bot aggregates the Telegram API with the lifecycle engine.
type Bot struct {
	api         *tgbotapi.BotAPI
	config      *config.Config
	userRepo    *repository.UserRepository
	stateRepo   *repository.StateRepository
	taskSvc     *service.TaskService
	lifecycle   *service.LifecycleService
	sweepSvc    *service.SweepService
	alarmSvc    *service.AlarmService
	routineSvc  *service.RoutineService
	sectionSvc  *service.SectionService
	summarySvc  *service.SummaryService
	stager      *service.CompletionStager
	mu          sync.Mutex
	dialogs     map[int64]*conversationState
	pendingMeta map[uint]pendingMeta
}

// Deps bundles everything the bot needs; keeps New readable.
type Deps struct {
	UserRepo   *repository.UserRepository
	StateRepo  *repository.StateRepository
	TaskSvc    *service.TaskService
	Lifecycle  *service.LifecycleService
	SweepSvc   *service.SweepService
	AlarmSvc   *service.AlarmService
	RoutineSvc *service.RoutineService
	SectionSvc *service.SectionService
	SummarySvc *service.SummaryService
}

func New(token string, deps Deps, cfg *config.Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Info().Str("account", api.Self.UserName).Msg("bot authorized")

	b := &Bot{
		api:         api,
		config:      cfg,
		userRepo:    deps.UserRepo,
		stateRepo:   deps.StateRepo,
		taskSvc:     deps.TaskSvc,
		lifecycle:   deps.Lifecycle,
		sweepSvc:    deps.SweepSvc,
		alarmSvc:    deps.AlarmSvc,
		routineSvc:  deps.RoutineSvc,
		sectionSvc:  deps.SectionSvc,
		summarySvc:  deps.SummarySvc,
		dialogs:     make(map[int64]*conversationState),
		pendingMeta: make(map[uint]pendingMeta),
	}
	b.stager = service.NewCompletionStager(cfg.UndoWindow, b.commitStaged)
	return b, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Info().Msg("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.Error().Err(err).Msg("handle callback")
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Error().Err(err).Msg("handle message")
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	b.runDailyCheck(ctx, msg.Chat.ID, user)

	if !msg.IsCommand() && isCancelInput(msg.Text) {
		b.clearDialog(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Okay, cancelled. Nothing was saved.")
	}

	if msg.IsCommand() {
		log.Debug().Int64("from", msg.From.ID).Str("command", msg.Command()).Msg("command received")
		return b.handleCommand(ctx, user, msg)
	}

	if b.hasDialog(msg.From.ID) {
		return b.handleDialog(ctx, user, msg)
	}

	return b.sendText(msg.Chat.ID, "I didn't get that. Try /add to create a task, or /help for the full list.")
}

func (b *Bot) handleCommand(ctx context.Context, user *model.User, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, user, msg)
	case "help":
		return b.handleHelp(msg)
	case "add", "newtask":
		return b.startAddDialog(msg)
	case "tasks":
		return b.sendTaskList(ctx, msg.Chat.ID, user)
	case "task":
		return b.handleTaskDetail(ctx, user, msg)
	case "subtask":
		return b.handleSubtask(ctx, user, msg)
	case "done":
		return b.handleDone(ctx, user, msg)
	case "undo":
		return b.handleUndo(msg)
	case "delete":
		return b.handleDelete(ctx, user, msg)
	case "schedule":
		return b.handleSchedule(ctx, user, msg)
	case "autoschedule":
		return b.handleAutoSchedule(ctx, user, msg)
	case "alarm":
		return b.handleAlarmToggle(ctx, user, msg)
	case "repeat":
		return b.handleRepeatToggle(ctx, user, msg)
	case "stats":
		return b.handleStats(ctx, user, msg)
	case "report":
		return b.handleReport(ctx, user, msg)
	case "goal":
		return b.handleGoal(ctx, user, msg)
	case "vacation":
		return b.handleVacation(ctx, user, msg)
	case "routines":
		return b.handleRoutines(ctx, user, msg)
	case "sections":
		return b.handleSections(ctx, user, msg)
	case "cancel":
		b.clearDialog(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Dialog cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, user *model.User, msg *tgbotapi.Message) error {
	if _, err := b.routineSvc.EnsureDefault(ctx, user); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}

	text := fmt.Sprintf(
		"👋 Hi %s!\n<b>I'm DoToDo — finish tasks on time, earn points, climb the ranks.</b>\n\n"+
			"• /add — create a task\n"+
			"• /tasks — list open tasks\n"+
			"• /done &lt;id&gt; — complete a task (undo window included)\n"+
			"• /stats — points, rank, level, streak\n"+
			"• /help — everything else",
		escape(name),
	)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Commands</b>\n" +
		"• /add — create a task step by step\n" +
		"• /tasks — open tasks with completion buttons\n" +
		"• /task &lt;id&gt; — one task in detail, subtasks included\n" +
		"• /subtask 12.3 — toggle a subtask; /subtask del 12.3 removes it\n" +
		"• /done &lt;id&gt; — complete a task; you get a short undo window\n" +
		"• /undo — cancel the most recent pending completion\n" +
		"• /delete &lt;id&gt; — remove a task entirely\n" +
		"• /schedule &lt;id&gt; &lt;HH:MM-HH:MM&gt; [YYYY-MM-DD] — put a task (or 12.3 a subtask) on the calendar\n" +
		"• /autoschedule — give every unscheduled task a slot\n" +
		"• /alarm &lt;id&gt; — arm or disarm the reminder\n" +
		"• /repeat &lt;id&gt; — carry the time slot over to new occurrences\n" +
		"• /stats — points, rank, level, streak\n" +
		"• /report — today's summary\n" +
		"• /goal &lt;n&gt; — tasks per day for the +10 bonus\n" +
		"• /vacation — pause penalties while you're away\n" +
		"• /routines — your routines; /routines new|days|on|off|del|task to manage them\n" +
		"• /sections — your sections\n" +
		"• /cancel — abort the current dialog"
	return b.sendText(msg.Chat.ID, text)
}

// runDailyCheck runs the penalty sweep lazily before handling any
// interaction; the sweep itself is idempotent per calendar day.
func (b *Bot) runDailyCheck(ctx context.Context, chatID int64, user *model.User) {
	result, err := b.sweepSvc.RunDailyCheck(ctx, user, time.Now().In(b.config.Timezone))
	if err != nil {
		log.Error().Err(err).Uint("user", user.ID).Msg("daily sweep")
		return
	}
	if result == nil {
		return
	}
	b.sendSweepNotice(chatID, result)
}

func (b *Bot) sendSweepNotice(chatID int64, result *service.SweepResult) {
	var sb strings.Builder
	if result.Reset {
		sb.WriteString("🆘 <b>Points reset</b>\n")
	} else {
		sb.WriteString(fmt.Sprintf("📉 <b>Overdue penalty: -%d pts</b>\n", result.Penalty))
	}
	for _, m := range result.Messages {
		sb.WriteString("• " + escape(m) + "\n")
	}
	if err := b.sendText(chatID, strings.TrimSpace(sb.String())); err != nil {
		log.Error().Err(err).Msg("send sweep notice")
	}
}

// --- task creation dialog ---

func (b *Bot) startAddDialog(msg *tgbotapi.Message) error {
	b.setDialog(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what's it called?", cancelKeyboard())
}

func (b *Bot) handleDialog(ctx context.Context, user *model.User, msg *tgbotapi.Message) error {
	state := b.getDialog(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The title can't be empty. What's the task called?", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stagePriority
		return b.sendWithReplyMarkup(msg.Chat.ID, "🚩 Priority? High tasks are worth more points.", priorityKeyboard())
	case stagePriority:
		if !isSkipInput(text) {
			switch strings.ToLower(text) {
			case "high":
				state.input.Priority = model.PriorityHigh
			case "medium":
				state.input.Priority = model.PriorityMedium
			case "low":
				state.input.Priority = model.PriorityLow
			default:
				return b.sendWithReplyMarkup(msg.Chat.ID, "Pick High, Medium, Low, or Skip.", priorityKeyboard())
			}
		}
		state.stage = stageDue
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ Due date in <code>2006-01-02</code> format (or Skip). Finishing early pays extra.", skipKeyboard())
	case stageDue:
		if !isSkipInput(text) {
			parsed, err := time.ParseInLocation("2006-01-02", text, b.config.Timezone)
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "I can't read that date. Use <code>2006-01-02</code> or Skip.", skipKeyboard())
			}
			state.input.DueDate = &parsed
		}
		state.stage = stageRecurrence
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔁 Should it repeat?", recurrenceKeyboard())
	case stageRecurrence:
		switch strings.ToLower(text) {
		case "daily":
			state.input.Recurrence = model.RecurDaily
		case "weekly":
			state.input.Recurrence = model.RecurWeekly
		case "monthly":
			state.input.Recurrence = model.RecurMonthly
		case "yearly":
			state.input.Recurrence = model.RecurYearly
		case "no", "n", "-":
		default:
			if !isSkipInput(text) {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Pick daily, weekly, monthly, yearly, or No.", recurrenceKeyboard())
			}
		}
		state.stage = stageSchedule
		return b.sendWithReplyMarkup(msg.Chat.ID, "📅 Time slot for today, like <code>09:00-10:00</code> (or Skip).", skipKeyboard())
	case stageSchedule:
		if !isSkipInput(text) {
			start, end, err := parseSlot(text, time.Now().In(b.config.Timezone))
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Use <code>HH:MM-HH:MM</code>, e.g. <code>09:00-10:00</code>, or Skip.", skipKeyboard())
			}
			state.input.ScheduledStart = &start
			state.input.ScheduledEnd = &end
			state.input.AlarmSet = true
		}
		state.stage = stageSection
		return b.sendWithReplyMarkup(msg.Chat.ID, "📂 Section? Pick one or type your own (or Skip for General).", sectionKeyboard())
	case stageSection:
		if !isSkipInput(text) {
			state.input.Section = text
		}
		state.stage = stageSubtasks
		return b.sendWithReplyMarkup(msg.Chat.ID, "🧩 Subtasks, separated by commas (or Skip).\nEach one can be completed and scheduled on its own.", skipKeyboard())
	case stageSubtasks:
		if !isSkipInput(text) {
			for _, part := range strings.Split(text, ",") {
				if part = strings.TrimSpace(part); part != "" {
					state.input.Subtasks = append(state.input.Subtasks, part)
				}
			}
		}
		err := b.finishTaskCreation(ctx, user, state.input, msg.Chat.ID)
		b.clearDialog(msg.From.ID)
		return err
	default:
		b.clearDialog(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Dialog reset. Start again with /add.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, user *model.User, input service.TaskInput, chatID int64) error {
	now := time.Now().In(b.config.Timezone)
	task, err := b.taskSvc.CreateTask(ctx, user, input, now)
	if err != nil {
		if isValidationErr(err) {
			return b.sendText(chatID, fmt.Sprintf("🚫 Not saved: %s.", escape(err.Error())))
		}
		return b.sendText(chatID, fmt.Sprintf("Couldn't save the task: %s", escape(err.Error())))
	}

	log.Info().Uint("task", task.ID).Uint("user", user.ID).Str("recurrence", string(task.Recurrence)).Msg("task created")

	var summary strings.Builder
	summary.WriteString("✅ <b>Task saved</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> %d\n", task.ID))
	summary.WriteString(fmt.Sprintf("• <b>Title:</b> %s\n", escape(task.Title)))
	if task.Priority != model.PriorityNone {
		summary.WriteString(fmt.Sprintf("• <b>Priority:</b> %s (x%d points)\n", task.Priority, task.Priority.Multiplier()))
	}
	if task.DueDate != nil {
		summary.WriteString(fmt.Sprintf("• <b>Due:</b> %s\n", task.DueDate.Format("2006-01-02")))
	}
	if task.Recurrence != model.RecurNone {
		summary.WriteString(fmt.Sprintf("• <b>Repeats:</b> %s\n", task.Recurrence))
	}
	if task.ScheduledStart != nil && task.ScheduledEnd != nil {
		summary.WriteString(fmt.Sprintf("• <b>Slot:</b> %s–%s (alarm on)\n",
			task.ScheduledStart.Format("15:04"), task.ScheduledEnd.Format("15:04")))
	}
	if len(task.Subtasks) > 0 {
		summary.WriteString(fmt.Sprintf("• <b>Subtasks:</b> %d (see /task %d)\n", len(task.Subtasks), task.ID))
	}

	reply := tgbotapi.NewMessage(chatID, strings.TrimSpace(summary.String()))
	reply.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	reply.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(reply); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user)
}

// --- completion with undo window ---

func (b *Bot) handleDone(ctx context.Context, user *model.User, msg *tgbotapi.Message) error {
	taskID, err := parseIDArg(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give me the task ID: /done 12")
	}
	return b.stageCompletion(ctx, msg.Chat.ID, user, taskID)
}

func (b *Bot) stageCompletion(ctx context.Context, chatID int64, user *model.User, taskID uint) error {
	task, err := b.taskSvc.GetTask(ctx, user, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendText(chatID, "Task not found.")
		}
		return err
	}
	if task.Completed {
		return b.sendText(chatID, "That task is already completed.")
	}

	token, ok := b.stager.Stage(taskID)
	if !ok {
		return b.sendText(chatID, "That completion is already pending.")
	}
	b.mu.Lock()
	b.pendingMeta[taskID] = pendingMeta{chatID: chatID, user: *user}
	b.mu.Unlock()

	text := fmt.Sprintf("✅ %q done — committing in %d s.", task.Title, int(b.config.UndoWindow.Seconds()))
	reply := tgbotapi.NewMessage(chatID, escape(text))
	reply.ParseMode = tgbotapi.ModeHTML
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("↩️ Undo", cbUndoPrefix+token),
		),
	)
	_, err = b.api.Send(reply)
	return err
}

// commitStaged runs when a staged completion's undo window elapses.
func (b *Bot) commitStaged(_ string, taskID uint) {
	b.mu.Lock()
	meta, ok := b.pendingMeta[taskID]
	delete(b.pendingMeta, taskID)
	b.mu.Unlock()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now().In(b.config.Timezone)
	result, err := b.lifecycle.CompleteTask(ctx, &meta.user, taskID, now)
	if err != nil {
		log.Error().Err(err).Uint("task", taskID).Msg("commit completion")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎯 %q completed: <b>+%d pts</b>", escape(result.Task.Title), result.PointsEarned))
	if result.BonusPoints > 0 {
		sb.WriteString(fmt.Sprintf(" (+%d bonus)", result.BonusPoints))
	}
	sb.WriteString(fmt.Sprintf("\n⭐ Total: %d · %s · level %d", result.State.Points, result.State.Rank, model.NumericLevelOf(result.State.Points)))
	for _, event := range result.Events {
		sb.WriteString("\n" + event.Message)
	}
	if result.Next != nil && result.Next.DueDate != nil {
		sb.WriteString(fmt.Sprintf("\n♻️ Next occurrence: %s", result.Next.DueDate.Format("2006-01-02")))
	}
	if err := b.sendText(meta.chatID, sb.String()); err != nil {
		log.Error().Err(err).Msg("send completion summary")
	}
}

func (b *Bot) handleUndo(msg *tgbotapi.Message) error {
	b.mu.Lock()
	var lastID uint
	for id := range b.pendingMeta {
		if id > lastID {
			lastID = id
		}
	}
	b.mu.Unlock()

	if lastID == 0 || !b.stager.Cancel(lastID) {
		return b.sendText(msg.Chat.ID, "Nothing to undo.")
	}
	b.mu.Lock()
	delete(b.pendingMeta, lastID)
	b.mu.Unlock()
	return b.sendText(msg.Chat.ID, "↩️ Completion cancelled. The task is back.")
}

// --- other commands ---

func (b *Bot) handleDelete(ctx context.Context, user *model.User, msg *tgbotapi.Message) error {
	taskID, err := parseIDArg(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give me the task ID: /delete 12")
	}

	task, err := b.taskSvc.GetTask(ctx, user, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendText(msg.Chat.ID, "Task not found.")
		}
		return err
	}
	if err := b.taskSvc.DeleteTask(ctx, user, taskID); err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Couldn't delete: %s", escape(err.Error())))
	}
	log.Info().Uint("task", taskID).Uint("user", user.ID).Msg("task deleted")
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🗑 %q deleted.", escape(task.Title)))
}

// handleSchedule places a task, or one of its subtasks via the "12.3"
// reference form, on the calendar.
func (b *Bot) handleSchedule(ctx context.Context, user *model.User, msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 2 {
		return b.sendText(msg.Chat.ID, "Usage: /schedule 12 09:00-10:00 [2006-01-02]\nUse 12.3 to schedule subtask 3 of task 12.")
	}
	taskID, subtaskID, err := parseTaskRef(args[0])
	if err != nil {
		return b.sendText(msg.Chat.ID, "The reference must be a task ID like 12, or 12.3 for a subtask.")
	}

	day := time.Now().In(b.config.Timezone)
	if len(args) >= 3 {
		parsed, err := time.ParseInLocation("2006-01-02", args[2], b.config.Timezone)
		if err != nil {
			return b.sendText(msg.Chat.ID, "I can't read that date. Use 2006-01-02.")
		}
		day = parsed
	}
	start, end, err := parseSlot(args[1], day)
	if err != nil {
		return b.sendText(msg.Chat.ID, "Use HH:MM-HH:MM, e.g. 09:00-10:00.")
	}

	err = b.taskSvc.ScheduleTask(ctx, user, taskID, subtaskID, start, end)
	switch {
	case err == nil:
		return b.sendText(msg.Chat.ID, fmt.Sprintf("📅 Scheduled for %s–%s on %s.",
			start.Format("15:04"), end.Format("15:04"), start.Format("2006-01-02")))
	case errors.Is(err, service.ErrScheduleConflict):
		return b.sendText(msg.Chat.ID, "🚫 That time slot overlaps another scheduled item. Pick a different one.")
	case errors.Is(err, service.ErrScheduleOrder):
		return b.sendText(msg.Chat.ID, "🚫 The end time must be after the start time.")
	case errors.Is(err, service.ErrSubtaskNotFound):
		return b.sendText(msg.Chat.ID, "That task has no subtask with that number. See /task.")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return b.sendText(msg.Chat.ID, "Task not found.")
	default:
		return err
	}
}

// handleTaskDetail shows one task with its subtasks and their ids.
func (b *Bot) handleTaskDetail(ctx context.Context, user *model.User, msg *tgbotapi.Message) error {
	taskID, err := parseIDArg(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give me the task ID: /task 12")
	}
	task, err := b.taskSvc.GetTask(ctx, user, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendText(msg.Chat.ID, "Task not found.")
		}
		return err
	}

	sections, _ := b.sectionSvc.List(ctx, user)
	sectionNames := make(map[uint]string)
	for _, sec := range sections {
		sectionNames[sec.ID] = sec.Title
	}

	now := time.Now().In(b.config.Timezone)
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>#%d</b> ", task.ID))
	sb.WriteString(service.FormatTaskLine(*task, sectionNames, now))
	if len(task.Subtasks) == 0 {
		sb.WriteString("\nNo subtasks. Recreate with /add to split it up.")
	} else {
		sb.WriteString("\n<b>Subtasks</b> (toggle with /subtask, schedule with /schedule 12.3)\n")
		for _, sub := range task.Subtasks {
			mark := "⬜"
			if sub.Completed {
				mark = "✅"
			}
			sb.WriteString(fmt.Sprintf("%s <b>%d.%d</b> %s", mark, task.ID, sub.ID, escape(sub.Title)))
			if sub.ScheduledStart != nil && sub.ScheduledEnd != nil {
				sb.WriteString(fmt.Sprintf(" · %s–%s", sub.ScheduledStart.Format("15:04"), sub.ScheduledEnd.Format("15:04")))
			}
			sb.WriteByte('\n')
		}
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(sb.String()))
}

// handleSubtask toggles or deletes one subtask: "/subtask 12.3" flips it,
// "/subtask del 12.3" removes it.
func (b *Bot) handleSubtask(ctx context.Context, user *model.User, msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	usage := "Usage: /subtask 12.3 to toggle, /subtask del 12.3 to delete."
	if len(args) == 0 {
		return b.sendText(msg.Chat.ID, usage)
	}

	remove := false
	ref := args[0]
	if strings.EqualFold(args[0], "del") {
		if len(args) < 2 {
			return b.sendText(msg.Chat.ID, usage)
		}
		remove = true
		ref = args[1]
	}
	taskID, subtaskID, err := parseTaskRef(ref)
	if err != nil || subtaskID == 0 {
		return b.sendText(msg.Chat.ID, usage)
	}

	if remove {
		err = b.taskSvc.DeleteSubtask(ctx, user, taskID, subtaskID)
		switch {
		case err == nil:
			return b.sendText(msg.Chat.ID, "🗑 Subtask deleted.")
		case errors.Is(err, gorm.ErrRecordNotFound):
			return b.sendText(msg.Chat.ID, "Task not found.")
		default:
			return err
		}
	}

	task, err := b.taskSvc.ToggleSubtask(ctx, user, taskID, subtaskID)
	switch {
	case err == nil:
		done := 0
		for _, sub := range task.Subtasks {
			if sub.Completed {
				done++
			}
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf("☑️ Subtask toggled. %d/%d done on %q.", done, len(task.Subtasks), escape(task.Title)))
	case errors.Is(err, service.ErrSubtaskNotFound):
		return b.sendText(msg.Chat.ID, "That task has no subtask with that number. See /task.")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return b.sendText(msg.Chat.ID, "Task not found.")
	default:
		return err
	}
}

func (b *Bot) handleAlarmToggle(ctx context.Context, user *model.User, msg *tgbotapi.Message) error {
	taskID, err := parseIDArg(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give me the task ID: /alarm 12")
	}
	task, err := b.taskSvc.ToggleAlarm(ctx, user, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendText(msg.Chat.ID, "Task not found.")
		}
		return err
	}
	if task.AlarmSet {
		if task.ScheduledStart == nil {
			return b.sendText(msg.Chat.ID, "⏰ Alarm armed, but the task has no time slot yet. Set one with /schedule.")
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf("⏰ Alarm armed for %s.", task.ScheduledStart.Format("15:04")))
	}
	return b.sendText(msg.Chat.ID, "🔕 Alarm disarmed.")
}

func (b *Bot) handleRepeatToggle(ctx context.Context, user *model.User, msg *tgbotapi.Message) error {
	taskID, err := parseIDArg(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give me the task ID: /repeat 12")
	}
	task, err := b.taskSvc.ToggleRecurringSchedule(ctx, user, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendText(msg.Chat.ID, "Task not found.")
		}
		return err
	}
	if task.IsRecurringSchedule {
		return b.sendText(msg.Chat.ID, "🔁 The time slot will carry over to each new occurrence.")
	}
	return b.sendText(msg.Chat.ID, "➡️ The time slot stays on this occurrence only.")
}

func (b *Bot) handleAutoSchedule(ctx context.Context, user *model.User, msg *tgbotapi.Message) error {
	count, err := b.taskSvc.AutoSchedule(ctx, user, time.Now().In(b.config.Timezone))
	if err != nil {
		return err
	}
	if count == 0 {
		return b.sendText(msg.Chat.ID, "All active tasks are already scheduled.")
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("📅 Auto-scheduled %d task(s).", count))
}

func (b *Bot) handleStats(ctx context.Context, user *model.User, msg *tgbotapi.Message) error {
	state, err := b.stateRepo.GetOrCreate(ctx, user.ID)
	if err != nil {
		return err
	}
	tasks, err := b.taskSvc.GetAll(ctx, user)
	if err != nil {
		return err
	}
	now := time.Now().In(b.config.Timezone)

	var sb strings.Builder
	sb.WriteString("📊 <b>Your progress</b>\n")
	sb.WriteString(b.summarySvc.ProgressLine(state, tasks, now))
	sb.WriteString(fmt.Sprintf("\n🏆 Max level reached: %d", state.MaxLevelReached))
	sb.WriteString(fmt.Sprintf("\n🎯 Daily goal: %d task(s)", state.DailyGoal))
	if state.IsVacationMode {
		sb.WriteString("\n🏖 Vacation mode is on — no penalties accrue.")
	}
	return b.sendText(msg.Chat.ID, sb.String())
}

func (b *Bot) handleReport(ctx context.Context, user *model.User, msg *tgbotapi.Message) error {
	text, err := b.summarySvc.DailySummary(ctx, *user, time.Now().In(b.config.Timezone))
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Couldn't build the report: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleGoal(ctx context.Context, user *model.User, msg *tgbotapi.Message) error {
	state, err := b.stateRepo.GetOrCreate(ctx, user.ID)
	if err != nil {
		return err
	}
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Your daily goal is %d task(s). Change it with /goal 10.", state.DailyGoal))
	}
	goal, err := strconv.Atoi(args)
	if err != nil || goal <= 0 {
		return b.sendText(msg.Chat.ID, "The goal must be a positive number, e.g. /goal 5")
	}
	state.DailyGoal = goal
	if err := b.stateRepo.Save(ctx, state); err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🎯 Daily goal set to %d task(s). Hit it for +%d pts.", goal, 10))
}

func (b *Bot) handleVacation(ctx context.Context, user *model.User, msg *tgbotapi.Message) error {
	state, err := b.stateRepo.GetOrCreate(ctx, user.ID)
	if err != nil {
		return err
	}
	state.IsVacationMode = !state.IsVacationMode
	if err := b.stateRepo.Save(ctx, state); err != nil {
		return err
	}
	if state.IsVacationMode {
		return b.sendText(msg.Chat.ID, "🏖 Vacation mode on. Overdue penalties are paused.")
	}
	return b.sendText(msg.Chat.ID, "💼 Vacation mode off. Deadlines count again.")
}

// handleRoutines lists routines without arguments; with arguments it
// mutates them: new, days, on, off, del, and task for routine activities.
func (b *Bot) handleRoutines(ctx context.Context, user *model.User, msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		return b.sendRoutineList(ctx, user, msg.Chat.ID)
	}

	usage := "Usage:\n" +
		"• /routines new &lt;title&gt;\n" +
		"• /routines days &lt;id&gt; mon,wed,fri\n" +
		"• /routines on|off &lt;id&gt;\n" +
		"• /routines del &lt;id&gt;\n" +
		"• /routines task &lt;id&gt; &lt;HH:MM-HH:MM&gt; &lt;title&gt;"

	switch strings.ToLower(args[0]) {
	case "new":
		title := strings.TrimSpace(strings.Join(args[1:], " "))
		if title == "" {
			return b.sendText(msg.Chat.ID, usage)
		}
		routine := model.Routine{Title: title, ScheduleType: model.RoutineManual, IsActive: true}
		if err := b.routineSvc.Create(ctx, user, &routine); err != nil {
			return err
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf("🔁 Routine %q created (#%d). Give it weekdays with /routines days %d mon,wed.", escape(title), routine.ID, routine.ID))
	case "days":
		if len(args) < 3 {
			return b.sendText(msg.Chat.ID, usage)
		}
		routine, err := b.findRoutine(ctx, user, args[1])
		if err != nil {
			return b.sendText(msg.Chat.ID, "Routine not found. See /routines.")
		}
		days, err := parseDays(args[2])
		if err != nil {
			return b.sendText(msg.Chat.ID, "Days look like mon,wed,fri or 1,3,5 (0 = Sunday).")
		}
		routine.ActiveDays = days
		routine.ScheduleType = model.RoutineWeekly
		routine.IsActive = true
		if _, err := b.routineSvc.Update(ctx, user, *routine); err != nil {
			return err
		}
		return b.sendRoutineList(ctx, user, msg.Chat.ID)
	case "on", "off":
		if len(args) < 2 {
			return b.sendText(msg.Chat.ID, usage)
		}
		routine, err := b.findRoutine(ctx, user, args[1])
		if err != nil {
			return b.sendText(msg.Chat.ID, "Routine not found. See /routines.")
		}
		routine.IsActive = strings.EqualFold(args[0], "on")
		if _, err := b.routineSvc.Update(ctx, user, *routine); err != nil {
			return err
		}
		return b.sendRoutineList(ctx, user, msg.Chat.ID)
	case "del":
		if len(args) < 2 {
			return b.sendText(msg.Chat.ID, usage)
		}
		routine, err := b.findRoutine(ctx, user, args[1])
		if err != nil {
			return b.sendText(msg.Chat.ID, "Routine not found. See /routines.")
		}
		if err := b.routineSvc.Delete(ctx, user, routine.ID); err != nil {
			return err
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf("🗑 Routine %q deleted together with its activities.", escape(routine.Title)))
	case "task":
		if len(args) < 4 {
			return b.sendText(msg.Chat.ID, usage)
		}
		routine, err := b.findRoutine(ctx, user, args[1])
		if err != nil {
			return b.sendText(msg.Chat.ID, "Routine not found. See /routines.")
		}
		start, end, err := parseSlot(args[2], time.Now().In(b.config.Timezone))
		if err != nil {
			return b.sendText(msg.Chat.ID, "Use HH:MM-HH:MM, e.g. 07:30-07:45.")
		}
		title := strings.TrimSpace(strings.Join(args[3:], " "))
		task, err := b.taskSvc.CreateTask(ctx, user, service.TaskInput{
			Title:          title,
			IsRoutine:      true,
			RoutineID:      &routine.ID,
			ScheduledStart: &start,
			ScheduledEnd:   &end,
			AlarmSet:       true,
		}, time.Now().In(b.config.Timezone))
		if err != nil {
			if isValidationErr(err) {
				return b.sendText(msg.Chat.ID, fmt.Sprintf("🚫 Not saved: %s.", escape(err.Error())))
			}
			return err
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf("🔁 %q added to %q at %s. It rings on the routine's days.",
			escape(task.Title), escape(routine.Title), start.Format("15:04")))
	default:
		return b.sendText(msg.Chat.ID, usage)
	}
}

func (b *Bot) sendRoutineList(ctx context.Context, user *model.User, chatID int64) error {
	routines, err := b.routineSvc.List(ctx, user)
	if err != nil {
		return err
	}
	if len(routines) == 0 {
		return b.sendText(chatID, "No routines yet. Create one with /routines new Morning.")
	}

	var sb strings.Builder
	sb.WriteString("🔁 <b>Routines</b>\n")
	for _, r := range routines {
		status := "paused"
		if r.IsActive {
			status = "active"
		}
		sb.WriteString(fmt.Sprintf("• <b>#%d</b> %s — %s", r.ID, escape(r.Title), status))
		if len(r.ActiveDays) > 0 {
			sb.WriteString(" (" + formatDays(r.ActiveDays) + ")")
		}
		if len(r.SuppressedDays) > 0 {
			sb.WriteString(" · ceded: " + formatDays(r.SuppressedDays))
		}
		sb.WriteByte('\n')
	}
	return b.sendText(chatID, strings.TrimSpace(sb.String()))
}

func (b *Bot) findRoutine(ctx context.Context, user *model.User, rawID string) (*model.Routine, error) {
	id, err := parseIDArg(rawID)
	if err != nil {
		return nil, err
	}
	routines, err := b.routineSvc.List(ctx, user)
	if err != nil {
		return nil, err
	}
	for i := range routines {
		if routines[i].ID == id {
			return &routines[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (b *Bot) handleSections(ctx context.Context, user *model.User, msg *tgbotapi.Message) error {
	sections, err := b.sectionSvc.List(ctx, user)
	if err != nil {
		return err
	}
	var sb strings.Builder
	sb.WriteString("📂 <b>Sections</b>\n")
	sb.WriteString("• " + model.GeneralSection + "\n")
	for _, sec := range sections {
		sb.WriteString(fmt.Sprintf("• %s\n", escape(sec.Title)))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(sb.String()))
}

// --- task list ---

func (b *Bot) sendTaskList(ctx context.Context, chatID int64, user *model.User) error {
	now := time.Now().In(b.config.Timezone)
	tasks, err := b.taskSvc.ListVisible(ctx, user, now)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Couldn't load tasks: %s", escape(err.Error())))
	}

	sections, _ := b.sectionSvc.List(ctx, user)
	sectionNames := make(map[uint]string)
	for _, sec := range sections {
		sectionNames[sec.ID] = sec.Title
	}

	var visible []model.Task
	for _, t := range tasks {
		if b.stager.IsPending(t.ID) {
			continue
		}
		visible = append(visible, t)
	}

	if len(visible) == 0 {
		return b.sendText(chatID, "No open tasks. Add one with /add.")
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Open tasks</b>\n")
	builder.WriteString("Tap a button to complete a task.\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, task := range visible {
		builder.WriteString(fmt.Sprintf("<b>#%d</b> ", task.ID))
		builder.WriteString(service.FormatTaskLine(task, sectionNames, now))
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("✅ #%d · %s", task.ID, shortTitle(task.Title, 24)),
				fmt.Sprintf("%s%d", cbDonePrefix, task.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑", fmt.Sprintf("%s%d", cbDeletePrefix, task.ID)),
		))
	}

	reply := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	reply.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(reply)
	return err
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Error().Err(err).Msg("callback ack")
	}

	user, err := b.ensureUser(ctx, cb.From)
	if err != nil {
		return err
	}
	data := cb.Data

	switch {
	case strings.HasPrefix(data, cbDonePrefix):
		taskID, err := parseIDArg(strings.TrimPrefix(data, cbDonePrefix))
		if err != nil {
			return nil
		}
		return b.stageCompletion(ctx, cb.Message.Chat.ID, user, taskID)
	case strings.HasPrefix(data, cbUndoPrefix):
		token := strings.TrimPrefix(data, cbUndoPrefix)
		taskID, ok := b.stager.CancelToken(token)
		if !ok {
			return b.sendText(cb.Message.Chat.ID, "Too late — that completion is already committed.")
		}
		b.mu.Lock()
		delete(b.pendingMeta, taskID)
		b.mu.Unlock()
		return b.sendText(cb.Message.Chat.ID, "↩️ Completion cancelled. The task is back.")
	case strings.HasPrefix(data, cbDeletePrefix):
		taskID, err := parseIDArg(strings.TrimPrefix(data, cbDeletePrefix))
		if err != nil {
			return nil
		}
		task, err := b.taskSvc.GetTask(ctx, user, taskID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return b.sendText(cb.Message.Chat.ID, "Task not found or already deleted.")
			}
			return err
		}
		if err := b.taskSvc.DeleteTask(ctx, user, taskID); err != nil {
			return err
		}
		return b.sendText(cb.Message.Chat.ID, fmt.Sprintf("🗑 %q deleted.", escape(task.Title)))
	default:
		return nil
	}
}

// --- background jobs ---

// Tick runs the per-minute background pass for every known user: the daily
// sweep when the day has advanced, and alarm matching for the current
// minute. Both are idempotent against repeated invocation.
func (b *Bot) Tick(ctx context.Context) error {
	users, err := b.userRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	now := time.Now().In(b.config.Timezone)

	for i := range users {
		user := &users[i]
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if result, err := b.sweepSvc.RunDailyCheck(ctx, user, now); err != nil {
			log.Error().Err(err).Uint("user", user.ID).Msg("sweep tick")
		} else if result != nil {
			b.sendSweepNotice(user.TelegramID, result)
		}

		alarms, err := b.alarmSvc.DueAlarms(ctx, user, now)
		if err != nil {
			log.Error().Err(err).Uint("user", user.ID).Msg("alarm tick")
			continue
		}
		for _, task := range alarms {
			b.sendAlarm(user.TelegramID, task)
		}
	}
	return nil
}

func (b *Bot) sendAlarm(chatID int64, task model.Task) {
	label := "Task reminder"
	if task.IsRoutine {
		label = "Routine reminder"
	}
	reply := tgbotapi.NewMessage(chatID, fmt.Sprintf("⏰ <b>%s</b>: it's time for %q", label, escape(task.Title)))
	reply.ParseMode = tgbotapi.ModeHTML
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Done", fmt.Sprintf("%s%d", cbDonePrefix, task.ID)),
		),
	)
	if _, err := b.api.Send(reply); err != nil {
		log.Error().Err(err).Uint("task", task.ID).Msg("send alarm")
	}
}

// SendDailyReports sends a summary to every known user.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.userRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	now := time.Now().In(b.config.Timezone)
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		text, err := b.summarySvc.DailySummary(ctx, user, now)
		if err != nil {
			log.Error().Err(err).Int64("telegram", user.TelegramID).Msg("build summary")
			continue
		}
		if err := b.sendText(user.TelegramID, text); err != nil {
			log.Error().Err(err).Int64("telegram", user.TelegramID).Msg("send summary")
		}
	}
	return nil
}

// --- plumbing ---

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.userRepo.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) setDialog(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dialogs[userID] = state
}

func (b *Bot) getDialog(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dialogs[userID]
}

func (b *Bot) hasDialog(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.dialogs[userID]
	return ok
}

func (b *Bot) clearDialog(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.dialogs, userID)
}

func parseIDArg(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}

// parseTaskRef reads "12" as a task reference, or "12.3" as subtask 3 of
// task 12. A bare task reference yields a zero subtask id.
func parseTaskRef(raw string) (taskID, subtaskID uint, err error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ".", 2)
	taskID, err = parseIDArg(parts[0])
	if err != nil {
		return 0, 0, err
	}
	if len(parts) == 2 {
		subtaskID, err = parseIDArg(parts[1])
		if err != nil {
			return 0, 0, err
		}
	}
	return taskID, subtaskID, nil
}

var weekdayNames = []string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// parseDays reads a comma-separated weekday list, by short name or by
// number with 0 = Sunday.
func parseDays(raw string) ([]int, error) {
	byName := make(map[string]int, len(weekdayNames))
	for i, name := range weekdayNames {
		byName[name] = i
	}

	var days []int
	seen := make(map[int]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		day, ok := byName[part]
		if !ok {
			n, err := strconv.Atoi(part)
			if err != nil || n < 0 || n > 6 {
				return nil, fmt.Errorf("invalid day %q", part)
			}
			day = n
		}
		if seen[day] {
			continue
		}
		seen[day] = true
		days = append(days, day)
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("no days in %q", raw)
	}
	sort.Ints(days)
	return days, nil
}

func formatDays(days []int) string {
	labels := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	var out []string
	for _, d := range days {
		if d >= 0 && d < len(labels) {
			out = append(out, labels[d])
		}
	}
	return strings.Join(out, ", ")
}

// parseSlot reads "HH:MM-HH:MM" as a half-open interval on the given day.
func parseSlot(raw string, day time.Time) (time.Time, time.Time, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), "-", 2)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid slot %q", raw)
	}
	startClock, err := time.Parse("15:04", strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endClock, err := time.Parse("15:04", strings.TrimSpace(parts[1]))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	y, m, d := day.Date()
	start := time.Date(y, m, d, startClock.Hour(), startClock.Minute(), 0, 0, day.Location())
	end := time.Date(y, m, d, endClock.Hour(), endClock.Minute(), 0, 0, day.Location())
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("slot end before start")
	}
	return start, end, nil
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "skip"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "cancel"
}

func isValidationErr(err error) bool {
	return errors.Is(err, service.ErrTitleRequired) ||
		errors.Is(err, service.ErrScheduleOrder) ||
		errors.Is(err, service.ErrPastDueDate)
}

func escape(s string) string {
	return html.EscapeString(s)
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func priorityKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("High"),
			tgbotapi.NewKeyboardButton("Medium"),
			tgbotapi.NewKeyboardButton("Low"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func recurrenceKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("daily"),
			tgbotapi.NewKeyboardButton("weekly"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("monthly"),
			tgbotapi.NewKeyboardButton("yearly"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("No"),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func sectionKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Work"),
			tgbotapi.NewKeyboardButton("Personal"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Groceries"),
			tgbotapi.NewKeyboardButton("Health"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}
