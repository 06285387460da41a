package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/cognicore/ideascope/pkg/ideascope/store"
	"github.com/cognicore/ideascope/pkg/ideascope/store/sqlite"
)

func TestRunRecordsExecutions(t *testing.T) {
	dir := t.TempDir()
	scripts := filepath.Join(dir, "scripts")
	if err := os.Mkdir(scripts, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, body := range map[string]string{
		"a.sh": "echo 'baseline: 0.4'\necho 'proposed: 0.6'\n",
		"b.sh": "exit 2\n",
	} {
		if err := os.WriteFile(filepath.Join(scripts, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	db := filepath.Join(dir, "db", "runs.db")

	ctx := context.Background()
	sum, err := run(ctx, options{
		dir:         scripts,
		ext:         "sh",
		interpreter: "sh",
		logDir:      filepath.Join(dir, "logs"),
		db:          db,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Succeeded != 1 || sum.Failed != 1 {
		t.Fatalf("unexpected summary %+v", sum)
	}

	st, err := sqlite.OpenSQLite(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	runs, err := st.ListRuns(ctx, store.KindExecute, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Input != 2 || runs[0].Output != 1 || runs[0].Topic != "scripts" {
		t.Fatalf("unexpected runs %+v", runs)
	}
	execs, err := st.ListExecutions(ctx, runs[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(execs) != 2 || execs[0].Name != "a" || execs[1].ExitCode != 2 {
		t.Errorf("unexpected executions %+v", execs)
	}

	color.NoColor = true
	var buf bytes.Buffer
	if err := printHistory(ctx, &buf, db, 5); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "ok=1 failed=1") {
		t.Errorf("unexpected history %q", buf.String())
	}

	buf.Reset()
	render(&buf, sum)
	if !strings.Contains(buf.String(), "exit 2") || !strings.Contains(buf.String(), "50.0%") {
		t.Errorf("unexpected render %q", buf.String())
	}
}

func TestRunMissingDir(t *testing.T) {
	if _, err := run(context.Background(), options{dir: filepath.Join(t.TempDir(), "nope"), ext: ".py"}); err == nil {
		t.Fatal("expected error for missing script dir")
	}
}
