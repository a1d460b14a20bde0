// Package services wires configuration, authentication, the portal client,
// report building and history together for the command line.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gen2brain/beeep"

	"github.com/j-veylop/exon-report/internal/auth"
	"github.com/j-veylop/exon-report/internal/config"
	"github.com/j-veylop/exon-report/internal/db"
	"github.com/j-veylop/exon-report/internal/logger"
	"github.com/j-veylop/exon-report/internal/models"
	"github.com/j-veylop/exon-report/internal/portal"
	"github.com/j-veylop/exon-report/internal/report"
	"github.com/j-veylop/exon-report/internal/table"
)

// ErrNoProject is returned when neither a flag nor EXON_PROJECT_ID names a project.
var ErrNoProject = errors.New("project id is required (use --project or EXON_PROJECT_ID)")

// ReportOptions controls what GenerateReport does with a built report.
type ReportOptions struct {
	// Out is the destination file. Empty writes DefaultFileName into the report directory.
	Out         string
	CSV         bool
	Notify      bool
	SkipHistory bool
}

// ReportResult describes a generated report.
type ReportResult struct {
	Report *report.Report
	RunID  string
	Path   string
}

// Manager owns the long-lived resources shared by the commands.
type Manager struct {
	cfg       *config.Config
	database  *db.DB
	store     auth.Store
	transport http.RoundTripper
	notify    func(title, body string) error
}

// NewManager opens the history database and selects the token store.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		cfg: cfg,
		notify: func(title, body string) error {
			return beeep.Notify(title, body, "")
		},
	}

	var err error
	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	switch cfg.TokenBackend {
	case config.TokenBackendSQLite:
		m.store = db.NewTokenStore(m.database)
	default:
		if cfg.TokenPath != "" {
			m.store = auth.NewFileStore(cfg.TokenPath)
		}
	}

	return m, nil
}

// Database returns the history database.
func (m *Manager) Database() *db.DB {
	return m.database
}

// ResolveProject returns flagValue, falling back to the configured project.
func (m *Manager) ResolveProject(flagValue string) (string, error) {
	if p := strings.TrimSpace(flagValue); p != "" {
		return p, nil
	}
	if m.cfg.ProjectID != "" {
		return m.cfg.ProjectID, nil
	}
	return "", ErrNoProject
}

// Authenticate returns a bearer token. With force the stored token is
// discarded first so a fresh login runs.
func (m *Manager) Authenticate(ctx context.Context, force bool) (string, error) {
	if force && m.store != nil {
		if err := m.store.Delete(); err != nil {
			return "", fmt.Errorf("failed to clear stored token: %w", err)
		}
	}

	authCfg := auth.DefaultConfig(m.cfg.BaseURL)
	authCfg.Username = m.cfg.Username
	authCfg.Password = m.cfg.Password
	authCfg.Timeout = m.cfg.HTTPTimeout
	authCfg.Transport = m.transport

	flow, err := auth.NewFlow(authCfg, m.store)
	if err != nil {
		return "", err
	}

	token, err := flow.AcquireToken(ctx)
	if err != nil {
		if credErr := m.cfg.RequireCredentials(); credErr != nil {
			return "", errors.Join(credErr, err)
		}
		return "", err
	}
	return token, nil
}

// Portal returns a client authorized with a fresh or cached token.
func (m *Manager) Portal(ctx context.Context) (*portal.Client, error) {
	token, err := m.Authenticate(ctx, false)
	if err != nil {
		return nil, err
	}
	return portal.New(portal.Config{
		Transport: m.transport,
		BaseURL:   m.cfg.BaseURL,
		Timeout:   m.cfg.HTTPTimeout,
	}, token), nil
}

// Definition loads the configured report definition, or the built-in one.
func (m *Manager) Definition() (*report.Definition, error) {
	if m.cfg.DefinitionPath == "" {
		return report.DefaultDefinition()
	}
	return report.LoadDefinition(m.cfg.DefinitionPath)
}

// GenerateReport builds the report for projectID, writes it out and records
// it in history.
func (m *Manager) GenerateReport(ctx context.Context, projectID string, opts ReportOptions) (*ReportResult, error) {
	def, err := m.Definition()
	if err != nil {
		return nil, err
	}
	client, err := m.Portal(ctx)
	if err != nil {
		return nil, err
	}

	rep, err := report.NewBuilder(client, def).Build(ctx, projectID)
	if err != nil {
		return nil, err
	}

	res := &ReportResult{Report: rep, Path: m.outputPath(rep, opts)}
	if err := writeReport(res.Path, rep, opts.CSV); err != nil {
		return nil, err
	}
	logger.Info("report written", "path", res.Path, "total", rep.Matrix.GrandTotal())

	if !opts.SkipHistory {
		run := &models.ReportRun{
			GeneratedAt: rep.GeneratedAt,
			ProjectID:   projectID,
			OutputPath:  res.Path,
			GrandTotal:  rep.Matrix.GrandTotal(),
		}
		if err := m.database.SaveRun(run, rep.Matrix); err != nil {
			return nil, fmt.Errorf("failed to save report history: %w", err)
		}
		res.RunID = run.ID
	}

	if opts.Notify {
		body := "Итого: " + strconv.Itoa(rep.Matrix.GrandTotal()) + "\n" + filepath.Base(res.Path)
		if err := m.notify("Отчет готов", body); err != nil {
			logger.Warn("failed to send notification", "error", err)
		}
	}

	return res, nil
}

// CountField fetches one endpoint and groups its records by field.
func (m *Manager) CountField(ctx context.Context, endpoint, projectID, field string) (table.Grouped, error) {
	client, err := m.Portal(ctx)
	if err != nil {
		return table.Grouped{}, err
	}
	rows, err := client.Fetch(ctx, endpoint, projectID, nil)
	if err != nil {
		return table.Grouped{}, err
	}
	return table.CountByGroupKey(rows, field), nil
}

// CurrentUser returns the portal user the token belongs to.
func (m *Manager) CurrentUser(ctx context.Context) (*models.User, error) {
	client, err := m.Portal(ctx)
	if err != nil {
		return nil, err
	}
	return client.CurrentUser(ctx)
}

// Projects lists the projects visible to the logged-in user.
func (m *Manager) Projects(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error) {
	client, err := m.Portal(ctx)
	if err != nil {
		return nil, err
	}
	return client.FilteredProjects(ctx, filter)
}

// LatestRun returns the most recent run of projectID, or of any project when
// projectID is empty.
func (m *Manager) LatestRun(projectID string) (models.ReportRun, error) {
	runs, err := m.database.ListRuns(projectID, 1)
	if err != nil {
		return models.ReportRun{}, err
	}
	if len(runs) == 0 {
		return models.ReportRun{}, db.ErrRunNotFound
	}
	return runs[0], nil
}

// Close releases the database.
func (m *Manager) Close() error {
	if m.database == nil {
		return nil
	}
	return m.database.Close()
}

func (m *Manager) outputPath(rep *report.Report, opts ReportOptions) string {
	if opts.Out != "" {
		return opts.Out
	}
	name := report.DefaultFileName(rep.GeneratedAt)
	if opts.CSV {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".csv"
	}
	return filepath.Join(m.cfg.ReportDir, name)
}

func writeReport(path string, rep *report.Report, asCSV bool) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	if !asCSV && !strings.EqualFold(filepath.Ext(path), ".csv") {
		return report.WriteXLSX(path, rep)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := report.WriteCSV(f, rep); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
