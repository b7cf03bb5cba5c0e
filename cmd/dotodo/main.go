package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"dotodo/internal/bot"
	"dotodo/internal/config"
	"dotodo/internal/repository"
	"dotodo/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	stateRepo := repository.NewStateRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	routineRepo := repository.NewRoutineRepository(db)

	taskSvc := service.NewTaskService(taskRepo, sectionRepo)
	lifecycleSvc := service.NewLifecycleService(taskRepo, stateRepo)
	sweepSvc := service.NewSweepService(taskRepo, stateRepo)
	alarmSvc := service.NewAlarmService(taskRepo, routineRepo)
	routineSvc := service.NewRoutineService(routineRepo, taskRepo)
	sectionSvc := service.NewSectionService(sectionRepo, taskRepo)
	summarySvc := service.NewSummaryService(taskRepo, sectionRepo, stateRepo)

	telegramBot, err := bot.New(cfg.TelegramToken, bot.Deps{
		UserRepo:   userRepo,
		StateRepo:  stateRepo,
		TaskSvc:    taskSvc,
		Lifecycle:  lifecycleSvc,
		SweepSvc:   sweepSvc,
		AlarmSvc:   alarmSvc,
		RoutineSvc: routineSvc,
		SectionSvc: sectionSvc,
		SummarySvc: summarySvc,
	}, &cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("create bot")
	}

	scheduler := service.NewSchedulerService(cfg.Timezone)
	if _, err := scheduler.ScheduleInterval(cfg.AlarmTick, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := telegramBot.Tick(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("background tick")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("schedule tick")
	}
	if _, err := scheduler.ScheduleDaily(cfg.ReportTime, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := telegramBot.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("daily reports")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("schedule reports")
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Info().Msg("dotodo bot started")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("bot stopped")
	}
	log.Info().Msg("shutdown complete")
}
