package db

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/AbdouB/memorybox/internal/models"
)

func setupTestRepo(t *testing.T) *CommandRepository {
	t.Helper()

	database, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return NewCommandRepository(database)
}

func strPtr(s string) *string {
	return &s
}

func TestCreateAndGet(t *testing.T) {
	repo := setupTestRepo(t)

	id, err := repo.Create(&models.CommandInput{
		Command:     "docker ps -a",
		Description: "List all containers",
		Tags:        []string{"docker", "containers"},
		OS:          strPtr("linux"),
		ProjectType: strPtr("go"),
		Context:     strPtr("container debugging"),
		Category:    strPtr("containers"),
		Status:      strPtr("verified"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == "" {
		t.Fatal("create returned an empty id")
	}

	cmd, err := repo.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cmd == nil {
		t.Fatal("get returned nil for a stored command")
	}
	if cmd.Command != "docker ps -a" {
		t.Errorf("command = %q, want %q", cmd.Command, "docker ps -a")
	}
	if cmd.Description != "List all containers" {
		t.Errorf("description = %q", cmd.Description)
	}
	if len(cmd.Tags) != 2 || cmd.Tags[0] != "containers" || cmd.Tags[1] != "docker" {
		t.Errorf("tags = %v, want sorted [containers docker]", cmd.Tags)
	}
	if cmd.OS == nil || *cmd.OS != "linux" {
		t.Errorf("os = %v, want linux", cmd.OS)
	}
	if cmd.Category == nil || *cmd.Category != "containers" {
		t.Errorf("category = %v, want containers", cmd.Category)
	}
	if cmd.UseCount != 1 {
		t.Errorf("use_count after first get = %d, want 1", cmd.UseCount)
	}
	if cmd.LastUsed == nil {
		t.Error("last_used not set by get")
	}
	if cmd.CreatedAt.IsZero() {
		t.Error("created_at is zero")
	}
}

func TestCreateRedactsSecrets(t *testing.T) {
	repo := setupTestRepo(t)

	id, err := repo.Create(&models.CommandInput{Command: `mysql -p 'secret123' -h localhost`})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	cmd, err := repo.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if strings.Contains(cmd.Command, "secret123") {
		t.Fatalf("stored command still contains the secret: %q", cmd.Command)
	}
	if !strings.Contains(cmd.Command, "-p ****") {
		t.Fatalf("stored command missing redaction marker: %q", cmd.Command)
	}
}

func TestGetIncrementsUseCount(t *testing.T) {
	repo := setupTestRepo(t)

	id, err := repo.Create(&models.CommandInput{Command: "git status"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var last *models.Command
	for i := 1; i <= 3; i++ {
		cmd, err := repo.Get(id)
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if cmd.UseCount != i {
			t.Fatalf("use_count after get %d = %d", i, cmd.UseCount)
		}
		if last != nil && cmd.LastUsed.Before(*last.LastUsed) {
			t.Fatalf("last_used went backwards: %v -> %v", last.LastUsed, cmd.LastUsed)
		}
		last = cmd
	}
}

func TestGetMissing(t *testing.T) {
	repo := setupTestRepo(t)

	cmd, err := repo.Get("nonexistent-id")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cmd != nil {
		t.Fatalf("get on unknown id returned %+v, want nil", cmd)
	}
}

func TestConcurrentGets(t *testing.T) {
	repo := setupTestRepo(t)

	id, err := repo.Create(&models.CommandInput{Command: "uptime"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const fetchers = 10
	errs := make(chan error, fetchers)
	var wg sync.WaitGroup
	for i := 0; i < fetchers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Get(id)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent get: %v", err)
		}
	}

	// Candidates does not touch the counter, so it reads the final value
	cmds, err := repo.Candidates(Filter{})
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	if cmds[0].UseCount != fetchers {
		t.Fatalf("use_count = %d after %d concurrent gets, want %d", cmds[0].UseCount, fetchers, fetchers)
	}
}

func TestDelete(t *testing.T) {
	repo := setupTestRepo(t)

	id, err := repo.Create(&models.CommandInput{
		Command: "kubectl get pods",
		Tags:    []string{"kubernetes"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	deleted, err := repo.Delete(id)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Fatal("delete reported no record for a stored command")
	}

	// Idempotent: a second delete reports false without failing
	deleted, err = repo.Delete(id)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if deleted {
		t.Fatal("second delete reported a record")
	}

	cmd, err := repo.Get(id)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if cmd != nil {
		t.Fatal("deleted command still retrievable")
	}

	// Tag relationships are severed but the tag entity survives
	cmds, err := repo.Candidates(Filter{Tags: []string{"kubernetes"}})
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(cmds) != 0 {
		t.Fatalf("deleted command still linked to tag: %d results", len(cmds))
	}
	tags, err := repo.ListTags()
	if err != nil {
		t.Fatalf("list tags: %v", err)
	}
	if len(tags) != 1 || tags[0] != "kubernetes" {
		t.Fatalf("orphaned tag missing: %v", tags)
	}
}

func TestTagUpsert(t *testing.T) {
	repo := setupTestRepo(t)

	if _, err := repo.Create(&models.CommandInput{Command: "git pull", Tags: []string{"git", "git", "sync"}}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(&models.CommandInput{Command: "git push", Tags: []string{"git"}}); err != nil {
		t.Fatalf("create: %v", err)
	}

	tags, err := repo.ListTags()
	if err != nil {
		t.Fatalf("list tags: %v", err)
	}
	if len(tags) != 2 || tags[0] != "git" || tags[1] != "sync" {
		t.Fatalf("tags = %v, want [git sync]", tags)
	}
}

func TestTagNamesAreCaseSensitive(t *testing.T) {
	repo := setupTestRepo(t)

	if _, err := repo.Create(&models.CommandInput{Command: "ls", Tags: []string{"Files", "files"}}); err != nil {
		t.Fatalf("create: %v", err)
	}

	tags, err := repo.ListTags()
	if err != nil {
		t.Fatalf("list tags: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("tags = %v, want two case-distinct entries", tags)
	}
}

func TestListCategories(t *testing.T) {
	repo := setupTestRepo(t)

	inputs := []*models.CommandInput{
		{Command: "docker ps", Category: strPtr("containers")},
		{Command: "docker images", Category: strPtr("containers")},
		{Command: "git log", Category: strPtr("version-control")},
		{Command: "uptime"},
	}
	for _, input := range inputs {
		if _, err := repo.Create(input); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	categories, err := repo.ListCategories()
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	want := []string{"containers", "version-control"}
	if len(categories) != len(want) {
		t.Fatalf("categories = %v, want %v", categories, want)
	}
	for i := range want {
		if categories[i] != want[i] {
			t.Fatalf("categories = %v, want %v", categories, want)
		}
	}
}

func TestCandidatesStructuralFilters(t *testing.T) {
	repo := setupTestRepo(t)

	if _, err := repo.Create(&models.CommandInput{
		Command: "docker ps", OS: strPtr("linux"), ProjectType: strPtr("go"), Category: strPtr("containers"),
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(&models.CommandInput{
		Command: "Get-Process", OS: strPtr("windows"), Category: strPtr("processes"),
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	cmds, err := repo.Candidates(Filter{OS: "linux"})
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(cmds) != 1 || cmds[0].Command != "docker ps" {
		t.Fatalf("os filter returned %+v", cmds)
	}

	cmds, err = repo.Candidates(Filter{OS: "linux", ProjectType: "go", Category: "containers"})
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(cmds) != 1 {
		t.Fatalf("combined filters returned %d results, want 1", len(cmds))
	}

	cmds, err = repo.Candidates(Filter{OS: "linux", Category: "processes"})
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(cmds) != 0 {
		t.Fatalf("conflicting filters returned %d results, want 0", len(cmds))
	}
}

func TestCandidatesTagSupersetMatch(t *testing.T) {
	repo := setupTestRepo(t)

	if _, err := repo.Create(&models.CommandInput{Command: "both", Tags: []string{"a", "b", "c"}}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(&models.CommandInput{Command: "only-a", Tags: []string{"a"}}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(&models.CommandInput{Command: "only-b", Tags: []string{"b"}}); err != nil {
		t.Fatalf("create: %v", err)
	}

	cmds, err := repo.Candidates(Filter{Tags: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(cmds) != 1 || cmds[0].Command != "both" {
		t.Fatalf("tag superset filter returned %+v, want only the command tagged with both", cmds)
	}
}

func TestCandidatesSubstringQuery(t *testing.T) {
	repo := setupTestRepo(t)

	context := "port forwarding"
	inputs := []*models.CommandInput{
		{Command: "docker ps", Description: "List containers"},
		{Command: "git log", Description: "Show docker history"}, // description mentions docker
		{Command: "kubectl proxy", Context: &context},
	}
	for _, input := range inputs {
		if _, err := repo.Create(input); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	cmds, err := repo.Candidates(Filter{Query: "docker"})
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(cmds) != 2 {
		t.Fatalf("query matched %d commands, want 2 (command and description fields)", len(cmds))
	}

	cmds, err = repo.Candidates(Filter{Query: "forwarding"})
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(cmds) != 1 || cmds[0].Command != "kubectl proxy" {
		t.Fatalf("context query returned %+v", cmds)
	}

	// Substring matching is case-sensitive
	cmds, err = repo.Candidates(Filter{Query: "Docker"})
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(cmds) != 0 {
		t.Fatalf("case-sensitive query matched %d commands, want 0", len(cmds))
	}
}

func TestCandidatesOrder(t *testing.T) {
	repo := setupTestRepo(t)

	first, err := repo.Create(&models.CommandInput{Command: "first"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(&models.CommandInput{Command: "second"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(&models.CommandInput{Command: "third"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Same use_count: most recently created first
	cmds, err := repo.Candidates(Filter{})
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(cmds) != 3 {
		t.Fatalf("got %d commands, want 3", len(cmds))
	}
	if cmds[0].Command != "third" || cmds[1].Command != "second" || cmds[2].Command != "first" {
		t.Fatalf("creation-time order wrong: %s, %s, %s", cmds[0].Command, cmds[1].Command, cmds[2].Command)
	}

	// A used command outranks newer unused ones
	if _, err := repo.Get(first); err != nil {
		t.Fatalf("get: %v", err)
	}
	cmds, err = repo.Candidates(Filter{})
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if cmds[0].Command != "first" {
		t.Fatalf("use_count order wrong: first result %q", cmds[0].Command)
	}
}

func TestCorruptTimestampExcluded(t *testing.T) {
	repo := setupTestRepo(t)

	if _, err := repo.Create(&models.CommandInput{Command: "healthy"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.db.Exec(
		`INSERT INTO commands (id, command, created_at, use_count) VALUES (?, ?, ?, 0)`,
		"corrupt-id", "broken", "not-a-timestamp",
	); err != nil {
		t.Fatalf("insert corrupt row: %v", err)
	}

	// Search skips the corrupt record but keeps the rest of the dataset
	cmds, err := repo.Candidates(Filter{})
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(cmds) != 1 || cmds[0].Command != "healthy" {
		t.Fatalf("corrupt row not skipped: %+v", cmds)
	}

	// Fetch by id reads as absent
	cmd, err := repo.Get("corrupt-id")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cmd != nil {
		t.Fatalf("corrupt record returned from get: %+v", cmd)
	}
}

func TestConstraintErrDetection(t *testing.T) {
	repo := setupTestRepo(t)

	insert := `INSERT INTO commands (id, command, created_at, use_count) VALUES (?, ?, ?, 0)`
	if _, err := repo.db.Exec(insert, "dup-id", "one", "2026-01-01T00:00:00Z"); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err := repo.db.Exec(insert, "dup-id", "two", "2026-01-01T00:00:00Z")
	if err == nil {
		t.Fatal("duplicate id insert succeeded")
	}
	if !isConstraintErr(err) {
		t.Fatalf("duplicate id error not detected as constraint violation: %v", err)
	}
}
