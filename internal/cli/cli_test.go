package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/j-veylop/exon-report/internal/db"
	"github.com/j-veylop/exon-report/internal/models"
	"github.com/j-veylop/exon-report/internal/services"
	"github.com/j-veylop/exon-report/internal/table"
)

// setupEnv points the configuration at a temporary directory and returns the
// history database path.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "history.db")

	t.Setenv("DATABASE_PATH", dbPath)
	t.Setenv("TOKEN_FILE", "")
	t.Setenv("TOKEN_BACKEND", "file")
	t.Setenv("REPORT_DIR", dir)
	t.Setenv("REPORT_DEFINITION", "")
	t.Setenv("EXON_PROJECT_ID", "")
	t.Setenv("EXON_BASE_URL", "http://127.0.0.1:1")
	t.Setenv("LOG_LEVEL", "error")
	return dbPath
}

func seedRuns(t *testing.T, dbPath string, runs ...models.ReportRun) {
	t.Helper()
	database, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("db.New() error = %v", err)
	}
	defer database.Close()

	m, err := table.MaterializeReportTable(
		[][]table.Count{{{Key: "Альфа", N: 4}}},
		[]string{"ИТД"},
		[]string{"Альфа"},
	)
	if err != nil {
		t.Fatalf("MaterializeReportTable() error = %v", err)
	}
	for i := range runs {
		if err := database.SaveRun(&runs[i], m); err != nil {
			t.Fatalf("SaveRun() error = %v", err)
		}
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd("exrep test")
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionFlag(t *testing.T) {
	out, err := run(t, "--version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "exrep test" {
		t.Errorf("output = %q, want %q", out, "exrep test")
	}
}

func TestHistory(t *testing.T) {
	dbPath := setupEnv(t)

	out, err := run(t, "history")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "No reports found.") {
		t.Errorf("empty history output = %q", out)
	}

	seedRuns(t, dbPath,
		models.ReportRun{ID: "aaaaaaaa-1111", ProjectID: "p1", GeneratedAt: time.Now().Add(-time.Hour)},
		models.ReportRun{ID: "bbbbbbbb-2222", ProjectID: "p2", GeneratedAt: time.Now()},
	)

	tests := []struct {
		name     string
		args     []string
		contains []string
		excludes []string
	}{
		{
			name:     "all projects",
			args:     []string{"history"},
			contains: []string{"aaaaaaaa", "bbbbbbbb", "p1", "p2"},
		},
		{
			name:     "one project with chart",
			args:     []string{"history", "--project", "p1"},
			contains: []string{"aaaaaaaa", "Итого по 1 отчетам"},
			excludes: []string{"bbbbbbbb"},
		},
		{
			name:     "limit",
			args:     []string{"history", "-n", "1", "--chart=false"},
			contains: []string{"bbbbbbbb"},
			excludes: []string{"aaaaaaaa"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			if err != nil {
				t.Fatalf("history failed: %v", err)
			}
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(out, s) {
					t.Errorf("output should not contain %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestHistoryRemove(t *testing.T) {
	dbPath := setupEnv(t)
	seedRuns(t, dbPath, models.ReportRun{ID: "cccccccc-3333", ProjectID: "p1", GeneratedAt: time.Now()})

	out, err := run(t, "history", "rm", "cccc")
	if err != nil {
		t.Fatalf("history rm failed: %v", err)
	}
	if !strings.Contains(out, "cccccccc-3333") {
		t.Errorf("output = %q", out)
	}

	if _, err := run(t, "history", "rm", "cccc"); !errors.Is(err, db.ErrRunNotFound) {
		t.Errorf("second rm error = %v, want ErrRunNotFound", err)
	}
}

func TestHistoryRemove_CompactsDatabase(t *testing.T) {
	dbPath := setupEnv(t)
	seedRuns(t, dbPath,
		models.ReportRun{ID: "dddddddd-4444", ProjectID: "p1", GeneratedAt: time.Now(), OutputPath: strings.Repeat("x", 256*1024)},
		models.ReportRun{ID: "eeeeeeee-5555", ProjectID: "p1", GeneratedAt: time.Now()},
	)

	if _, err := run(t, "history", "rm", "dddd"); err != nil {
		t.Fatalf("history rm failed: %v", err)
	}

	database, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("db.New() error = %v", err)
	}
	defer database.Close()

	var free int
	if err := database.QueryRowContext(context.Background(), "PRAGMA freelist_count").Scan(&free); err != nil {
		t.Fatalf("PRAGMA freelist_count: %v", err)
	}
	if free != 0 {
		t.Errorf("freelist_count = %d after rm, want 0", free)
	}
	if _, err := database.FindRun("eeee"); err != nil {
		t.Errorf("remaining run lost: %v", err)
	}
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
		wantMsg string
	}{
		{name: "report without project", args: []string{"report"}, wantErr: services.ErrNoProject},
		{name: "count without project", args: []string{"count", "remarks", "author"}, wantErr: services.ErrNoProject},
		{name: "count unknown endpoint", args: []string{"count", "nope", "author"}, wantMsg: "unknown endpoint"},
		{name: "count missing args", args: []string{"count", "remarks"}, wantMsg: "accepts 2 arg(s)"},
		{name: "view empty history", args: []string{"view"}, wantErr: db.ErrRunNotFound},
		{name: "view unknown run", args: []string{"view", "--run", "zz"}, wantErr: db.ErrRunNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupEnv(t)
			_, err := run(t, tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestFormatCounts(t *testing.T) {
	tests := []struct {
		name     string
		grouped  table.Grouped
		chart    bool
		contains []string
		excludes []string
	}{
		{
			name:     "single valued",
			grouped:  table.Grouped{Counts: []table.Count{{Key: "Альфа", N: 2}, {Key: "Бета", N: 1}}, Total: 3},
			contains: []string{"Альфа  2\n", "Бета   1\n", "Итого  3\n"},
			excludes: []string{"attributions"},
		},
		{
			name:     "multi valued",
			grouped:  table.Grouped{Counts: []table.Count{{Key: "o1", N: 2}, {Key: "o2", N: 2}}, Total: 3},
			contains: []string{"o1     2\n", "Итого  3\n", "3 records, 4 attributions"},
		},
		{
			name:     "chart",
			grouped:  table.Grouped{Counts: []table.Count{{Key: "Альфа", N: 2}}, Total: 2},
			chart:    true,
			contains: []string{"Альфа", "\nИтого  2\n"},
		},
		{
			name:     "empty",
			grouped:  table.Grouped{},
			contains: []string{"Итого  0\n"},
			excludes: []string{"attributions"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatCounts(tt.grouped, tt.chart)
			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("output missing %q:\n%s", s, got)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(got, s) {
					t.Errorf("output should not contain %q:\n%s", s, got)
				}
			}
		})
	}
}

func TestRenderMatrix(t *testing.T) {
	m, err := table.MaterializeReportTable(
		[][]table.Count{{{Key: "Альфа", N: 2}}, {{Key: "Бета", N: 5}}},
		[]string{"ИТД", "Замечания"},
		[]string{"Альфа", "Бета"},
	)
	if err != nil {
		t.Fatalf("MaterializeReportTable() error = %v", err)
	}

	got := renderMatrix(m)
	for _, s := range []string{"Организация", "ИТД", "Замечания", "Альфа", "Бета", "Итого", "7"} {
		if !strings.Contains(got, s) {
			t.Errorf("table missing %q:\n%s", s, got)
		}
	}
}

func TestPrintUser(t *testing.T) {
	tests := []struct {
		name string
		user models.User
		want string
	}{
		{
			name: "full name with organization",
			user: models.User{
				FirstName:  "Иван",
				LastName:   "Иванов",
				Attributes: map[string]any{models.CurrentOrganisationAttr: "o1"},
			},
			want: "Portal user: Иванов Иван (organization o1)\n",
		},
		{
			name: "username fallback",
			user: models.User{Username: "ivanov"},
			want: "Portal user: ivanov\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printUser(&buf, &tt.user)
			if buf.String() != tt.want {
				t.Errorf("printUser() = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestRenderProjects(t *testing.T) {
	got := renderProjects([]models.Project{{ID: "p1", Name: "Корпус 1", City: "Казань"}})
	for _, s := range []string{"Проект", "p1", "Корпус 1", "Казань"} {
		if !strings.Contains(got, s) {
			t.Errorf("table missing %q:\n%s", s, got)
		}
	}
	if optional("") != nil || *optional("x") != "x" {
		t.Error("optional() should map empty to nil")
	}
}
