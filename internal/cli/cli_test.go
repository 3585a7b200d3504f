package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/amqp"
	"ledger/internal/config"
	"ledger/internal/core"
	"ledger/internal/services"
	"ledger/internal/storage"
)

func testEnv(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	t.Setenv("LEDGER_DB_PATH", dbPath)
	t.Setenv("LEDGER_TRANSPORT", "stdio")
	t.Setenv("LEDGER_LOG_LEVEL", "error")
	t.Setenv("AMQP_URL", "")
	t.Setenv("MIRROR_BACKEND", "memory")
	return dbPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand("test")
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "worker", "export", "migrate"} {
		assert.True(t, names[want], "missing %s", want)
	}
}

func TestMigrateCommand(t *testing.T) {
	dbPath := testEnv(t)

	out, err := run(t, "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 0")

	out, err = run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 1")

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)

	out, err = run(t, "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 1")
}

func TestExportCommand(t *testing.T) {
	dbPath := testEnv(t)

	repo, err := storage.NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	_, err = repo.Insert(context.Background(), core.Entry{
		Kind:       core.KindIncome,
		Amount:     core.Money{Cents: 10000},
		Category:   "salary",
		OccurredAt: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	out, err := run(t, "export")
	require.NoError(t, err)

	var doc struct {
		Transactions []struct {
			ID       int64   `json:"id"`
			Amount   float64 `json:"amount"`
			Category string  `json:"category"`
		} `json:"transactions"`
		Metadata struct {
			Count      int      `json:"count"`
			Categories []string `json:"categories"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Transactions, 1)
	assert.Equal(t, 100.0, doc.Transactions[0].Amount)
	assert.Equal(t, 1, doc.Metadata.Count)
	assert.Equal(t, []string{"salary"}, doc.Metadata.Categories)
}

func TestExportCommand_OutputFile(t *testing.T) {
	testEnv(t)
	target := filepath.Join(t.TempDir(), "backup.json")

	_, err := run(t, "export", "--output", target)
	require.NoError(t, err)

	body, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"transactions": []`)
}

func TestInvalidConfigFailsBeforeRunning(t *testing.T) {
	testEnv(t)
	t.Setenv("MIRROR_BACKEND", "paper")

	_, err := run(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid mirror backend")
}

func TestServeCommand_RejectsUnknownTransport(t *testing.T) {
	testEnv(t)

	_, err := run(t, "serve", "--transport", "grpc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid transport")
}

func TestWorkerCommand_RequiresAMQP(t *testing.T) {
	testEnv(t)

	_, err := run(t, "worker")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AMQP_URL")
}

func TestNewService_NilClientPublishesNothing(t *testing.T) {
	dbPath := testEnv(t)
	repo, err := storage.NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	defer repo.Close()

	var client *amqp.Client
	svc := NewService(repo, client, &config.Config{ListLimit: 50, PreviewRows: 10, ReportedIDs: 20})

	e, err := svc.Add(context.Background(), services.AddRequest{Type: "expense", Amount: 4, Category: "food"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), e.ID)
}
