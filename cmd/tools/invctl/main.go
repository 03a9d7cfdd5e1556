// Command invctl is a terminal client for the inventory: it signs in,
// lists and summarizes items, and writes the same exports as the dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"inventory-dashboard/internal"
	"inventory-dashboard/internal/auth"
	"inventory-dashboard/internal/config"
	"inventory-dashboard/internal/export"
	"inventory-dashboard/internal/inventory"
	"inventory-dashboard/internal/logging"
)

const usage = `Usage: invctl [-token TOKEN] <command> [flags]

Commands:
  login    -user NAME [-password PASS]   sign in and store the session
  logout                                 forget the stored session
  whoami                                 show the signed-in user
  list     [filters] [-limit N]          list items matching the filters
  stats    [filters]                     summary and chart data
  export   -format csv|xlsx [-out FILE]  write a spreadsheet export (xlsx ignores filters)
  report   [-out FILE]                   write the PDF summary report

Filters: -q TEXT -department NAME -status functional|non-functional -range 7|30|90|365|all
`

type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	backend inventory.Backend
	store   *auth.FileStore
	token   string
	now     time.Time
}

func main() {
	token := flag.String("token", "", "Use this token instead of the stored session")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadAndValidate()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	cfg.LogMode = "production"
	if cfg.LogLevel == "info" {
		cfg.LogLevel = "warn"
	}
	logger, err := logging.New(cfg)
	if err != nil {
		log.Fatalf("Logger error: %v", err)
	}
	defer logger.Sync()

	backend, err := internal.NewBackend(cfg, nil, logger)
	if err != nil {
		log.Fatalf("Backend error: %v", err)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		backend: backend,
		store:   auth.NewFileStore(cfg.SessionFile),
		token:   *token,
		now:     time.Now(),
	}

	ctx := context.Background()
	args := flag.Args()[1:]
	switch flag.Arg(0) {
	case "login":
		err = a.login(ctx, args)
	case "logout":
		err = a.store.Clear()
		if err == nil {
			fmt.Println("Logged out")
		}
	case "whoami":
		err = a.whoami()
	case "list":
		err = a.list(ctx, args)
	case "stats":
		err = a.stats(ctx, args)
	case "export":
		err = a.export(ctx, args)
	case "report":
		err = a.report(ctx, args)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "invctl: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	user := fs.String("user", "", "Username")
	password := fs.String("password", os.Getenv("INVENTORY_PASSWORD"), "Password (or INVENTORY_PASSWORD)")
	fs.Parse(args)
	if *user == "" || *password == "" {
		return fmt.Errorf("username and password are required")
	}

	resp, err := a.backend.Login(ctx, *user, *password)
	if err != nil {
		return err
	}
	s := auth.NewSession(resp.Token, resp.User)
	if err := a.store.Save(s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Printf("Logged in as %s\n", s.User.DisplayName())
	return nil
}

func (a *app) session() (*auth.Session, error) {
	if a.token != "" {
		return &auth.Session{Token: a.token}, nil
	}
	s, err := a.store.Load()
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if !s.Authenticated() {
		return nil, fmt.Errorf("not logged in: run invctl login")
	}
	if s.Expired(a.now) {
		_ = a.store.Clear()
		return nil, fmt.Errorf("session expired: run invctl login")
	}
	return s, nil
}

func (a *app) whoami() error {
	s, err := a.session()
	if err != nil {
		return err
	}
	if s.User == nil {
		fmt.Println("(token supplied on the command line)")
		return nil
	}
	fmt.Printf("%s (%s)\n", s.User.DisplayName(), s.User.Role)
	if !s.ExpiresAt.IsZero() {
		fmt.Printf("Session expires %s\n", s.ExpiresAt.Format(time.RFC1123))
	}
	return nil
}

// controller loads the collection for the stored session. A rejected
// token clears the stored session.
func (a *app) controller(ctx context.Context) (*inventory.Controller, error) {
	s, err := a.session()
	if err != nil {
		return nil, err
	}
	ctrl := inventory.NewController(a.backend.ForSession(s), a.logger)
	ctrl.OnUnauthorized = func() {
		if err := a.store.Clear(); err != nil {
			a.logger.Warn("session clear failed", zap.Error(err))
		}
		fmt.Fprintln(os.Stderr, "Session rejected, please log in again")
	}
	if err := ctrl.Load(ctx); err != nil {
		return nil, err
	}
	return ctrl, nil
}

type filterFlags struct {
	q, department, status, dateRange *string
}

func addFilters(fs *flag.FlagSet) filterFlags {
	return filterFlags{
		q:          fs.String("q", "", "Search name, staff ID, model or serial number"),
		department: fs.String("department", inventory.All, "Department"),
		status:     fs.String("status", inventory.All, "Status"),
		dateRange:  fs.String("range", inventory.All, "Created within the last N days"),
	}
}

func (f filterFlags) criteria() inventory.Criteria {
	return inventory.ParseCriteria(url.Values{
		"q":          {*f.q},
		"department": {*f.department},
		"status":     {*f.status},
		"range":      {*f.dateRange},
	})
}

func (a *app) filtered(ctx context.Context, name string, args []string, extra func(*flag.FlagSet)) (*inventory.Controller, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	filters := addFilters(fs)
	if extra != nil {
		extra(fs)
	}
	fs.Parse(args)

	ctrl, err := a.controller(ctx)
	if err != nil {
		return nil, err
	}
	ctrl.SetCriteria(filters.criteria())
	return ctrl, nil
}

func (a *app) list(ctx context.Context, args []string) error {
	var limit *int
	ctrl, err := a.filtered(ctx, "list", args, func(fs *flag.FlagSet) {
		limit = fs.Int("limit", inventory.DefaultLimit, "Maximum rows")
	})
	if err != nil {
		return err
	}

	page, total := ctrl.Page(a.now, *limit, 0)
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTAFF ID\tDEPARTMENT\tMODEL\tSERIAL\tSTATUS\tADDED")
	for _, it := range page {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			it.FullName(), it.StaffID, it.Department, it.Model, it.SerialNumber, it.Status,
			inventory.RelativeDate(it.CreatedAt, a.now))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d of %d items\n", len(page), total)
	return nil
}

func (a *app) stats(ctx context.Context, args []string) error {
	ctrl, err := a.filtered(ctx, "stats", args, nil)
	if err != nil {
		return err
	}

	view := ctrl.View(a.now)
	sum := inventory.Summarize(view)
	fmt.Printf("Total items:     %d\n", sum.Total)
	fmt.Printf("Functional:      %d (%.1f%%)\n", sum.Functional, inventory.Percent(sum.Functional, sum.Total))
	fmt.Printf("Non-functional:  %d (%.1f%%)\n", sum.NonFunctional, inventory.Percent(sum.NonFunctional, sum.Total))
	fmt.Printf("Departments:     %d\n", sum.Departments)

	fmt.Println("\nBy department:")
	for _, d := range inventory.DepartmentBreakdown(ctrl.Items(), view) {
		fmt.Printf("  %-20s %d (%d functional, %d non-functional)\n", d.Name, d.Total, d.Functional, d.Total-d.Functional)
	}
	fmt.Println("\nTop models:")
	for _, m := range inventory.TopModels(view, inventory.DefaultTopN) {
		fmt.Printf("  %-20s %d\n", m.Model, m.Count)
	}
	fmt.Println("\nAdded per month:")
	for _, b := range inventory.MonthlyTrend(ctrl.Items(), a.now) {
		fmt.Printf("  %-6s %d\n", b.Month, b.Count)
	}
	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	var format, out *string
	ctrl, err := a.filtered(ctx, "export", args, func(fs *flag.FlagSet) {
		format = fs.String("format", "csv", "csv or xlsx")
		out = fs.String("out", "", "Output file (defaults to the dashboard's file name)")
	})
	if err != nil {
		return err
	}

	switch *format {
	case "csv":
		view := ctrl.View(a.now)
		return writeFile(*out, export.CSVFilename(a.now), func(w io.Writer) error {
			return export.WriteCSV(w, view)
		})
	case "xlsx":
		// the workbook always carries the whole collection
		items := ctrl.Items()
		return writeFile(*out, export.XLSXFilename(a.now), func(w io.Writer) error {
			return export.WriteXLSX(w, items)
		})
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
}

func (a *app) report(ctx context.Context, args []string) error {
	var out *string
	ctrl, err := a.filtered(ctx, "report", args, func(fs *flag.FlagSet) {
		out = fs.String("out", "", "Output file (defaults to the dashboard's file name)")
	})
	if err != nil {
		return err
	}

	in := export.ReportInput{Items: ctrl.View(a.now), All: ctrl.Items(), Criteria: ctrl.Criteria(), Generated: a.now}
	return writeFile(*out, export.PDFFilename(a.now), func(w io.Writer) error {
		return export.WriteSummaryPDF(w, in)
	})
}

func writeFile(path, fallback string, render func(io.Writer) error) error {
	if path == "" {
		path = fallback
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
