package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/validus/validus-go/bundle"
	"github.com/validus/validus-go/ruleset"
)

// GitConfig points the manager at a rules repository.
type GitConfig struct {
	Repository  string `yaml:"repository"`
	Branch      string `yaml:"branch"`
	LocalPath   string `yaml:"local_path"`
	RulesPath   string `yaml:"rules_path"`
	Username    string `yaml:"username"`
	AccessToken string `yaml:"access_token"`
}

// Environment pins ruleset versions for a deployment target, e.g. prod
// holding "sanity" to "~1.2.0" while dev tracks "latest".
type Environment struct {
	Name        string            `yaml:"name"`
	Constraints map[string]string `yaml:"constraints"`
}

// ManagerConfig configures ruleset loading.
type ManagerConfig struct {
	Directory    string        `yaml:"directory"`
	Git          *GitConfig    `yaml:"git"`
	Environments []Environment `yaml:"environments"`
}

// CommitInfo records the provenance of git-loaded rulesets.
type CommitInfo struct {
	Hash      string    `json:"hash"`
	Author    string    `json:"author"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Branch    string    `json:"branch"`
}

// StoredRuleset is a loaded ruleset with provenance.
type StoredRuleset struct {
	Ruleset  *ruleset.Ruleset `json:"ruleset"`
	Path     string           `json:"path"`
	LoadedAt time.Time        `json:"loaded_at"`
	Commit   *CommitInfo      `json:"commit,omitempty"`
}

// RulesetManager loads rulesets from a directory or a git repository and
// resolves which version each name serves, optionally pinned by an
// environment's constraints.
type RulesetManager struct {
	config *ManagerConfig
	logger *slog.Logger

	mu       sync.RWMutex
	repo     *git.Repository
	commit   *CommitInfo
	rulesets map[string][]*StoredRuleset
	active   map[string]*StoredRuleset
}

// NewRulesetManager creates a manager.
func NewRulesetManager(config *ManagerConfig, logger *slog.Logger) *RulesetManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &RulesetManager{
		config:   config,
		logger:   logger,
		rulesets: make(map[string][]*StoredRuleset),
		active:   make(map[string]*StoredRuleset),
	}
}

// Load syncs the git repository when configured and loads every ruleset file
// under the rules directory. The latest version of each name becomes active.
func (m *RulesetManager) Load(ctx context.Context) error {
	dir := m.config.Directory
	if m.config.Git != nil {
		syncedDir, err := m.syncGit(ctx)
		if err != nil {
			return err
		}
		dir = syncedDir
	}
	if dir == "" {
		return fmt.Errorf("no ruleset directory configured")
	}
	return m.loadDirectory(dir)
}

// Refresh re-syncs and reloads. For git sources this pulls the branch; for
// plain directories it rereads the files.
func (m *RulesetManager) Refresh(ctx context.Context) error {
	return m.Load(ctx)
}

// syncGit clones the repository on first use and pulls afterwards, recording
// the head commit for provenance.
func (m *RulesetManager) syncGit(ctx context.Context) (string, error) {
	cfg := m.config.Git
	branch := cfg.Branch
	if branch == "" {
		branch = "main"
	}
	ref := plumbing.ReferenceName("refs/heads/" + branch)

	var auth *githttp.BasicAuth
	if cfg.AccessToken != "" {
		username := cfg.Username
		if username == "" {
			username = "token"
		}
		auth = &githttp.BasicAuth{Username: username, Password: cfg.AccessToken}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.repo == nil {
		if _, err := os.Stat(filepath.Join(cfg.LocalPath, ".git")); os.IsNotExist(err) {
			if err := os.MkdirAll(cfg.LocalPath, 0o755); err != nil {
				return "", fmt.Errorf("creating local path: %w", err)
			}
			_, err := git.PlainCloneContext(ctx, cfg.LocalPath, false, &git.CloneOptions{
				URL:           cfg.Repository,
				ReferenceName: ref,
				SingleBranch:  true,
				Auth:          auth,
			})
			if err != nil {
				return "", fmt.Errorf("cloning %s: %w", cfg.Repository, err)
			}
		}
		repo, err := git.PlainOpen(cfg.LocalPath)
		if err != nil {
			return "", fmt.Errorf("opening repository: %w", err)
		}
		m.repo = repo
	} else {
		worktree, err := m.repo.Worktree()
		if err != nil {
			return "", fmt.Errorf("getting worktree: %w", err)
		}
		err = worktree.PullContext(ctx, &git.PullOptions{
			ReferenceName: ref,
			SingleBranch:  true,
			Auth:          auth,
		})
		if err != nil && err != git.NoErrAlreadyUpToDate {
			return "", fmt.Errorf("pulling %s: %w", branch, err)
		}
	}

	head, err := m.repo.Head()
	if err != nil {
		return "", fmt.Errorf("reading head: %w", err)
	}
	commit, err := m.repo.CommitObject(head.Hash())
	if err != nil {
		return "", fmt.Errorf("reading commit: %w", err)
	}
	m.commit = &CommitInfo{
		Hash:      head.Hash().String(),
		Author:    commit.Author.Email,
		Message:   strings.TrimSpace(commit.Message),
		Timestamp: commit.Author.When,
		Branch:    branch,
	}
	return filepath.Join(cfg.LocalPath, cfg.RulesPath), nil
}

// loadDirectory reads every .yaml/.yml ruleset under dir.
func (m *RulesetManager) loadDirectory(dir string) error {
	loaded := make(map[string][]*StoredRuleset)
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if info.IsDir() || (ext != ".yaml" && ext != ".yml") {
			return nil
		}
		rs, err := ruleset.LoadFile(path)
		if err != nil {
			return err
		}
		m.mu.RLock()
		commit := m.commit
		m.mu.RUnlock()
		loaded[rs.Name] = append(loaded[rs.Name], &StoredRuleset{
			Ruleset:  rs,
			Path:     path,
			LoadedAt: time.Now().UTC(),
			Commit:   commit,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(loaded) == 0 {
		return fmt.Errorf("no rulesets under %s", dir)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rulesets = loaded
	m.active = make(map[string]*StoredRuleset)
	for name, versions := range loaded {
		stored, err := pickVersion(versions, "latest")
		if err != nil {
			return err
		}
		m.active[name] = stored
	}
	m.logger.Info("rulesets loaded", "count", len(loaded), "dir", dir)
	return nil
}

// Activate pins the active version of each constrained ruleset to the named
// environment. Unconstrained names keep serving their latest version.
func (m *RulesetManager) Activate(envName string) error {
	var env *Environment
	for i := range m.config.Environments {
		if m.config.Environments[i].Name == envName {
			env = &m.config.Environments[i]
			break
		}
	}
	if env == nil {
		return fmt.Errorf("unknown environment %q", envName)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for name, constraint := range env.Constraints {
		versions, ok := m.rulesets[name]
		if !ok {
			return fmt.Errorf("environment %s pins unknown ruleset %q", envName, name)
		}
		stored, err := pickVersion(versions, constraint)
		if err != nil {
			return fmt.Errorf("environment %s, ruleset %s: %w", envName, name, err)
		}
		m.active[name] = stored
	}
	return nil
}

// pickVersion resolves a constraint against the loaded versions of one name.
// Unversioned rulesets only satisfy the open constraint.
func pickVersion(versions []*StoredRuleset, constraint string) (*StoredRuleset, error) {
	open := constraint == "" || constraint == "*" || constraint == "latest"
	var candidates []string
	byVersion := make(map[string]*StoredRuleset)
	for _, stored := range versions {
		v := stored.Ruleset.Version
		if v == "" {
			if open {
				byVersion[""] = stored
			}
			continue
		}
		candidates = append(candidates, v)
		byVersion[v] = stored
	}
	if len(candidates) == 0 {
		if stored, ok := byVersion[""]; ok {
			return stored, nil
		}
		return nil, fmt.Errorf("no version satisfies %q", constraint)
	}
	picked, err := bundle.Resolve(candidates, constraint)
	if err != nil {
		if stored, ok := byVersion[""]; ok && open {
			return stored, nil
		}
		return nil, err
	}
	return byVersion[picked], nil
}

// Get returns the active ruleset for the name.
func (m *RulesetManager) Get(name string) (*StoredRuleset, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored, ok := m.active[name]
	return stored, ok
}

// List returns the active rulesets sorted by name.
func (m *RulesetManager) List() []*StoredRuleset {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.active))
	for name := range m.active {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*StoredRuleset, 0, len(names))
	for _, name := range names {
		out = append(out, m.active[name])
	}
	return out
}

// Commit returns the provenance of the last git sync, nil for directory
// sources.
func (m *RulesetManager) Commit() *CommitInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.commit
}
