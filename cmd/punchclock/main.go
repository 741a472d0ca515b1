// Command punchclock is a terminal punch clock for a single signed-in employee.
// It talks to the database directly and keeps the session in-process.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	attendanceapp "github.com/merchpulse/backend/internal/application/attendance"
	auditapp "github.com/merchpulse/backend/internal/application/audit"
	"github.com/merchpulse/backend/internal/application/authz"
	identityapp "github.com/merchpulse/backend/internal/application/identity"
	"github.com/merchpulse/backend/internal/application/session"
	"github.com/merchpulse/backend/internal/domain/attendance"
	"github.com/merchpulse/backend/internal/domain/shared"
	"github.com/merchpulse/backend/internal/infrastructure/auth"
	"github.com/merchpulse/backend/internal/infrastructure/cache"
	"github.com/merchpulse/backend/internal/infrastructure/clock"
	"github.com/merchpulse/backend/internal/infrastructure/config"
	"github.com/merchpulse/backend/internal/infrastructure/logger"
	"github.com/merchpulse/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
	"golang.org/x/term"
	"golang.org/x/text/language"
)

func main() {
	var (
		username string
		logLevel string
	)
	flag.StringVar(&username, "user", "", "Username to sign in as")
	flag.StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flag.Parse()

	if username == "" {
		fmt.Fprintln(os.Stderr, "Usage: punchclock -user <username>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:  logLevel,
		Format: "console",
		Output: "stderr",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database,
		logger.NewGormLogger(log, logger.MapGormLogLevel(logLevel), cfg.Telemetry.DBSlowQueryThresh))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	clk := clock.Real()
	holder := session.NewHolder()
	employeeRepo := persistence.NewGormEmployeeRepository(db.DB)
	policy := authz.NewPolicy(holder, nil, log)
	auditService := auditapp.NewService(persistence.NewGormAuditLogRepository(db.DB), holder, policy, clk,
		cfg.Audit.RecentDefaultLimit, log)

	jwtService, err := auth.NewJWTService(cfg.JWT, clk)
	if err != nil {
		log.Fatal("Failed to initialize JWT service", zap.Error(err))
	}
	authService := identityapp.NewAuthService(employeeRepo, jwtService, nil, clk, log)

	earnings, err := attendanceapp.NewEarningsPolicy(cfg.Attendance.HourlyRate, cfg.Attendance.Currency,
		cfg.Attendance.ExcludeBreaksFromEarnings, language.AmericanEnglish)
	if err != nil {
		log.Fatal("Invalid earnings configuration", zap.Error(err))
	}
	cacheFactory := cache.NewFactory(cfg.Redis, cache.WithLogger(log), cache.WithClock(clk))
	defer func() {
		_ = cacheFactory.Close()
	}()
	locker, idempotencyStore, err := punchStores(ctx, cfg.Attendance, cacheFactory, log)
	if err != nil {
		log.Fatal("Failed to set up punch coordination", zap.Error(err))
	}

	engine := attendanceapp.NewEngine(attendanceapp.EngineDeps{
		Punches:     persistence.NewGormPunchRepository(db.DB),
		Employees:   employeeRepo,
		Session:     holder,
		Policy:      policy,
		Audit:       auditService,
		Locker:      locker,
		Idempotency: idempotencyStore,
		Clock:       clk,
		Logger:      log,
	}, attendanceapp.EngineConfig{
		Location:           cfg.Attendance.Location(),
		Earnings:           earnings,
		IdempotencyTTL:     cfg.Attendance.IdempotencyTTL,
		AuditRetryAttempts: cfg.Audit.RetryAttempts,
		AuditRetryDelay:    cfg.Audit.RetryDelay,
		AuditRetryMaxDelay: cfg.Audit.RetryMaxDelay,
	})

	pin, err := readPIN()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	result, err := authService.Login(ctx, identityapp.LoginInput{Username: username, PIN: pin, IP: "terminal"})
	if err != nil {
		fmt.Fprintln(os.Stderr, attendanceapp.OutcomeFromError(err).Message)
		os.Exit(1)
	}
	employee, err := employeeRepo.FindByID(ctx, result.Employee.ID)
	if err != nil {
		log.Fatal("Failed to load employee", zap.Error(err))
	}
	holder.Start(employee)
	defer holder.End()

	screen := attendanceapp.NewPunchScreen(engine, clk, cfg.Attendance.RefreshInterval, log)
	if outcome := screen.Open(ctx); !outcome.Success {
		fmt.Fprintln(os.Stderr, outcome.Message)
		os.Exit(1)
	}
	defer screen.Close()

	fmt.Printf("Signed in as %s. Commands: in, out, status, team [YYYY-MM-DD], quit\n", employee.Name)
	printState(os.Stdout, screen.State())

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Print("> ")
		select {
		case <-ctx.Done():
			fmt.Println()
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := runCommand(os.Stdout, screen, line); quit {
				return
			}
		}
	}
}

// punchStores picks the employee lock and idempotency store for the configured backend.
// With redis the terminal serializes punches with every server instance on the same keys.
func punchStores(ctx context.Context, cfg config.AttendanceConfig, factory *cache.Factory, log *zap.Logger) (attendanceapp.EmployeeLocker, shared.IdempotencyStore, error) {
	store, err := factory.IdempotencyStore(ctx, cfg.LockBackend)
	if err != nil {
		return nil, nil, fmt.Errorf("idempotency store: %w", err)
	}
	if cfg.LockBackend != cache.BackendRedis {
		return attendanceapp.NewKeyedMutex(), store, nil
	}

	client, err := factory.Redis(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("redis lock backend configured but redis is unavailable: %w", err)
	}
	return cache.NewRedisLocker(client, cfg.LockTTL, cfg.LockWait, log), store, nil
}

// runCommand executes one console command and reports whether the session should end
func runCommand(w io.Writer, screen *attendanceapp.PunchScreen, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	var outcome attendanceapp.Outcome
	switch strings.ToLower(fields[0]) {
	case "in":
		outcome = screen.RecordPunch(attendance.PunchIn, strings.Join(fields[1:], " "))
	case "out":
		outcome = screen.RecordPunch(attendance.PunchOut, strings.Join(fields[1:], " "))
	case "status":
		printState(w, screen.State())
		return false
	case "team":
		date := ""
		if len(fields) > 1 {
			date = fields[1]
		}
		outcome = screen.LoadForDate(date)
		if outcome.Success {
			printTeam(w, screen.State().Team)
			return false
		}
	case "quit", "exit":
		return true
	default:
		fmt.Fprintf(w, "Unknown command %q\n", fields[0])
		return false
	}

	if outcome.Message != "" {
		fmt.Fprintln(w, outcome.Message)
	}
	if outcome.Success {
		printState(w, screen.State())
	}
	return false
}

func printState(w io.Writer, st attendanceapp.ScreenState) {
	p := st.Punch
	if p == nil {
		return
	}
	fmt.Fprintf(w, "%s  %s  shift %s  earned %s\n", p.Date, p.Status, p.ShiftDurationText, p.EarningsText)
	for _, punch := range p.Punches {
		fmt.Fprintf(w, "  %s  %s\n", punch.Timestamp.Format("15:04"), punch.Type)
	}
}

func printTeam(w io.Writer, team *attendanceapp.TeamDay) {
	if team == nil {
		return
	}
	fmt.Fprintf(w, "%s  %d punches, %d clocked in\n", team.Date, team.TotalPunches, team.ClockedIn)
	for _, s := range team.Summaries {
		first, last := "--:--", "--:--"
		if s.FirstIn != nil {
			first = s.FirstIn.Format("15:04")
		}
		if s.LastOut != nil {
			last = s.LastOut.Format("15:04")
		}
		fmt.Fprintf(w, "  %-24s %-8s %s  %s  (%d)\n", s.EmployeeName, s.Role, first, last, s.TotalPunches)
	}
}

func readPIN() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no terminal available for the PIN prompt")
	}

	fmt.Fprint(os.Stderr, "PIN: ")
	pin, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading PIN: %w", err)
	}
	return strings.TrimSpace(string(pin)), nil
}
