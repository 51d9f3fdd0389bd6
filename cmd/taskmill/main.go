package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"taskmill/internal/config"
	"taskmill/internal/recur"
	"taskmill/internal/repository"
	"taskmill/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		cfg          config.Config
		materializer *service.Materializer
		tasks        *service.TaskService
		stats        *service.StatsService
		scheduler    *service.SchedulerService
	)

	ruleAddCmd := func() *cli.Command {
		return &cli.Command{
			Name:  "add",
			Usage: "Create a recurrence rule",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "title", Required: true},
				&cli.StringFlag{Name: "description"},
				&cli.StringFlag{Name: "unit", Usage: "days, weeks, months, or years", Value: "days"},
				&cli.StringFlag{Name: "interval", Usage: "recur every N units", Value: "1"},
				&cli.StringFlag{Name: "weekdays", Usage: "comma-joined weekday indices, Monday=0 (weekly rules)"},
				&cli.StringFlag{Name: "at", Usage: "due time of day (HH:MM)", Value: "09:00"},
				&cli.StringFlag{Name: "start", Usage: "start date (YYYY-MM-DD), default today"},
				&cli.StringFlag{Name: "end", Usage: "end date (YYYY-MM-DD)"},
				&cli.StringFlag{Name: "project"},
				&cli.StringFlag{Name: "section"},
				&cli.StringFlag{Name: "priority", Value: "4"},
				&cli.StringFlag{Name: "labels", Usage: "comma-joined labels"},
			},
			Action: func(ctx context.Context, c *cli.Command) error {
				interval, err := strconv.Atoi(c.String("interval"))
				if err != nil {
					return fmt.Errorf("interval: %w", err)
				}
				priority, err := strconv.Atoi(c.String("priority"))
				if err != nil {
					return fmt.Errorf("priority: %w", err)
				}
				weekdays, err := recur.ParseWeekdaySet(c.String("weekdays"))
				if err != nil {
					return err
				}

				start := time.Now().In(cfg.Timezone)
				if s := c.String("start"); s != "" {
					if start, err = parseDate(s, cfg.Timezone); err != nil {
						return err
					}
				}
				var end *time.Time
				if s := c.String("end"); s != "" {
					e, err := parseDate(s, cfg.Timezone)
					if err != nil {
						return err
					}
					end = &e
				}

				rule, err := tasks.CreateRule(ctx, service.RuleInput{
					Unit:        c.String("unit"),
					Interval:    interval,
					DaysOfWeek:  weekdays,
					TimeOfDay:   c.String("at"),
					StartDate:   start,
					EndDate:     end,
					Title:       c.String("title"),
					Description: c.String("description"),
					Project:     c.String("project"),
					Section:     c.String("section"),
					Priority:    priority,
					Labels:      c.String("labels"),
				})
				if err != nil {
					return err
				}
				fmt.Printf("created rule %d\n", rule.ID)
				return nil
			},
		}
	}

	taskAddCmd := func() *cli.Command {
		return &cli.Command{
			Name:  "add",
			Usage: "Create a one-off task",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "title", Required: true},
				&cli.StringFlag{Name: "description"},
				&cli.StringFlag{Name: "due", Usage: "due date (YYYY-MM-DD or \"YYYY-MM-DD HH:MM\")"},
				&cli.StringFlag{Name: "project"},
				&cli.StringFlag{Name: "section"},
				&cli.StringFlag{Name: "priority", Value: "4"},
				&cli.StringFlag{Name: "labels"},
			},
			Action: func(ctx context.Context, c *cli.Command) error {
				priority, err := strconv.Atoi(c.String("priority"))
				if err != nil {
					return fmt.Errorf("priority: %w", err)
				}

				var due *time.Time
				if s := c.String("due"); s != "" {
					d, err := parseDatetime(s, cfg.Timezone)
					if err != nil {
						return err
					}
					due = &d
				}

				task, err := tasks.CreateTask(ctx, service.TaskInput{
					Title:       c.String("title"),
					Description: c.String("description"),
					Project:     c.String("project"),
					Section:     c.String("section"),
					Priority:    priority,
					Labels:      c.String("labels"),
					Due:         due,
				})
				if err != nil {
					return err
				}
				fmt.Printf("created task %d\n", task.ID)
				return nil
			},
		}
	}

	app := &cli.Command{
		Name:  "taskmill",
		Usage: "Recurring-task materialization and streak statistics",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
				Value:   "info",
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			level, err := zerolog.ParseLevel(c.String("log-level"))
			if err != nil {
				return ctx, fmt.Errorf("log level: %w", err)
			}
			log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).
				With().Timestamp().Logger()

			cfg, err = config.Load()
			if err != nil {
				return ctx, fmt.Errorf("config: %w", err)
			}

			db, err := repository.NewDB(cfg.DatabaseURL)
			if err != nil {
				return ctx, fmt.Errorf("db: %w", err)
			}

			ruleRepo := repository.NewRuleRepository(db)
			taskRepo := repository.NewTaskRepository(db)
			projectRepo := repository.NewProjectRepository(db)

			materializer = service.NewMaterializer(ruleRepo, cfg.Lookahead, cfg.Timezone, log.Logger)
			tasks = service.NewTaskService(ruleRepo, taskRepo, projectRepo, cfg.Timezone)
			stats = service.NewStatsService(taskRepo, cfg.Timezone)
			scheduler = service.NewSchedulerService(cfg.Timezone, log.Logger)

			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the materialization trigger until interrupted",
				Action: func(ctx context.Context, c *cli.Command) error {
					_, err := scheduler.ScheduleInterval(cfg.MaterializeInterval, func() {
						jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
						defer cancel()
						if _, err := materializer.MaterializeDueRules(jobCtx, time.Now()); err != nil &&
							!errors.Is(err, context.Canceled) {
							log.Error().Err(err).Msg("materialize tick failed")
						}
					})
					if err != nil {
						return fmt.Errorf("schedule materialization: %w", err)
					}
					scheduler.Start()
					defer scheduler.Stop()

					log.Info().Dur("interval", cfg.MaterializeInterval).Msg("taskmill started")
					<-ctx.Done()
					log.Info().Msg("shutdown complete")
					return nil
				},
			},
			{
				Name:  "materialize",
				Usage: "Materialize all due rules once and exit",
				Action: func(ctx context.Context, c *cli.Command) error {
					created, err := materializer.MaterializeDueRules(ctx, time.Now())
					if err != nil {
						return err
					}
					fmt.Printf("created %d task instance(s)\n", created)
					return nil
				},
			},
			{
				Name:  "rule",
				Usage: "Manage recurrence rules",
				Commands: []*cli.Command{
					ruleAddCmd(),
					{
						Name:  "list",
						Usage: "List recurrence rules",
						Action: func(ctx context.Context, c *cli.Command) error {
							rules, err := tasks.ListRules(ctx)
							if err != nil {
								return err
							}
							for _, r := range rules {
								state := "active"
								if !r.IsActive {
									state = "inactive"
								}
								every := fmt.Sprintf("every %d %s", r.Interval, r.Unit)
								if r.Unit == string(recur.UnitWeeks) {
									every += " on " + r.DaysOfWeek
								}
								fmt.Printf("%d\t%s\t%s at %s\t%s\n", r.ID, r.Template.Title, every, r.TimeOfDay, state)
							}
							return nil
						},
					},
					{
						Name:      "deactivate",
						Usage:     "Soft-disable a rule",
						ArgsUsage: "<rule-id>",
						Action: func(ctx context.Context, c *cli.Command) error {
							id, err := parseID(c.Args().First())
							if err != nil {
								return err
							}
							return tasks.DeactivateRule(ctx, id)
						},
					},
				},
			},
			{
				Name:  "task",
				Usage: "Manage task instances",
				Commands: []*cli.Command{
					taskAddCmd(),
					{
						Name:  "list",
						Usage: "List open tasks",
						Action: func(ctx context.Context, c *cli.Command) error {
							open, err := tasks.ListOpen(ctx)
							if err != nil {
								return err
							}
							for _, t := range open {
								due := "-"
								if t.DueDatetime != nil {
									due = t.DueDatetime.In(cfg.Timezone).Format("2006-01-02 15:04")
								}
								fmt.Printf("%d\t%s\t%s\n", t.ID, t.Title, due)
							}
							return nil
						},
					},
					{
						Name:      "complete",
						Usage:     "Mark a task as done",
						ArgsUsage: "<task-id>",
						Action: func(ctx context.Context, c *cli.Command) error {
							id, err := parseID(c.Args().First())
							if err != nil {
								return err
							}
							_, err = tasks.CompleteTask(ctx, id, time.Now())
							return err
						},
					},
					{
						Name:      "reopen",
						Usage:     "Revert a completion",
						ArgsUsage: "<task-id>",
						Action: func(ctx context.Context, c *cli.Command) error {
							id, err := parseID(c.Args().First())
							if err != nil {
								return err
							}
							_, err = tasks.ReopenTask(ctx, id)
							return err
						},
					},
					{
						Name:      "delete",
						Usage:     "Delete a task",
						ArgsUsage: "<task-id>",
						Action: func(ctx context.Context, c *cli.Command) error {
							id, err := parseID(c.Args().First())
							if err != nil {
								return err
							}
							return tasks.DeleteTask(ctx, id)
						},
					},
				},
			},
			{
				Name:  "summary",
				Usage: "Print the daily summary",
				Action: func(ctx context.Context, c *cli.Command) error {
					text, err := stats.DailySummary(ctx, time.Now())
					if err != nil {
						return err
					}
					fmt.Println(text)
					return nil
				},
			},
			{
				Name:  "streak",
				Usage: "Print current and longest completion streaks",
				Action: func(ctx context.Context, c *cli.Command) error {
					streak, err := stats.Streak(ctx, time.Now())
					if err != nil {
						return err
					}
					fmt.Printf("current streak: %d day(s)\n", streak.Current)
					fmt.Printf("longest streak: %d day(s)\n", streak.Longest)
					if streak.LastActivity != nil {
						fmt.Printf("last activity:  %s\n", streak.LastActivity.Format("2006-01-02"))
					}
					return nil
				},
			},
			{
				Name:  "heatmap",
				Usage: "Print per-day completion counts for a date range",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "from", Usage: "range start (YYYY-MM-DD)", Required: true},
					&cli.StringFlag{Name: "to", Usage: "range end (YYYY-MM-DD)", Required: true},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					from, err := parseDate(c.String("from"), cfg.Timezone)
					if err != nil {
						return err
					}
					to, err := parseDate(c.String("to"), cfg.Timezone)
					if err != nil {
						return err
					}
					counts, err := stats.Heatmap(ctx, from, to)
					if err != nil {
						return err
					}
					days := make([]string, 0, len(counts))
					for day := range counts {
						days = append(days, day)
					}
					sort.Strings(days)
					for _, day := range days {
						fmt.Printf("%s\t%d\n", day, counts[day])
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("taskmill failed")
	}
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(id), nil
}

func parseDate(raw string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return t, nil
}

func parseDatetime(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02 15:04", raw, loc); err == nil {
		return t, nil
	}
	return parseDate(raw, loc)
}
