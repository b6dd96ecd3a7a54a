// Package history enumerates prior revisions of a file from git and
// materializes their content into isolated scratch storage.
//
// Missing history is a normal outcome, not an error: an absent
// repository, a file with no log entries, and a failing git invocation
// all surface as NoHistory and callers fall back to heuristic-only
// recovery.
package history

import (
	"context"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"mender/internal/model"
	"mender/internal/parser"
)

// RevisionRecord is one historical generation of a file. Generation 0
// is the most recent retrieved revision. Records are owned by the
// analysis run that requested them and discarded when the run ends.
type RevisionRecord struct {
	RevisionID      string             `json:"revisionId"`
	Message         string             `json:"message"`
	Timestamp       time.Time          `json:"timestamp"`
	GenerationIndex int                `json:"generationIndex"`
	Content         string             `json:"content"`
	ScratchPath     string             `json:"scratchPath"`
	IsValid         bool               `json:"isValid"`
	Model           *model.SourceModel `json:"model"`
}

// Retriever fetches file history through the git CLI.
type Retriever struct {
	parser *parser.StagedParser
	logger *slog.Logger
}

// NewRetriever creates a history retriever.
func NewRetriever(logger *slog.Logger) *Retriever {
	return &Retriever{
		parser: parser.New(),
		logger: logger,
	}
}

// History enumerates up to maxGenerations revisions of path, most
// recent first, materializing each blob into scratch and probing its
// validity with a full-parse attempt. The second return value is false
// when no history exists (no repo, no log entries, or git failure).
// Cancellation is honored between revision fetches.
func (r *Retriever) History(ctx context.Context, scratch *Scratch, path string, maxGenerations int) ([]RevisionRecord, bool) {
	repoRoot, relPath, ok := r.locate(ctx, path)
	if !ok {
		return nil, false
	}

	entries, ok := r.logEntries(ctx, repoRoot, relPath, maxGenerations)
	if !ok || len(entries) == 0 {
		return nil, false
	}

	base := filepath.Base(path)
	records := make([]RevisionRecord, 0, len(entries))

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("history retrieval cancelled",
				"path", path, "retrieved", len(records))
			break
		}

		content, ok := r.show(ctx, repoRoot, entry.hash, relPath)
		if !ok {
			// One unreadable revision doesn't invalidate the rest.
			r.logger.Debug("skipping unreadable revision",
				"path", path, "revision", entry.hash)
			continue
		}

		scratchPath, err := scratch.Materialize(i, base, content)
		if err != nil {
			r.logger.Warn("failed to materialize revision",
				"path", path, "revision", entry.hash, "error", err)
			continue
		}

		text := string(content)
		rec := RevisionRecord{
			RevisionID:      entry.hash,
			Message:         entry.message,
			Timestamp:       entry.timestamp,
			GenerationIndex: len(records),
			Content:         text,
			ScratchPath:     scratchPath,
			IsValid:         r.parser.ProbeValid(ctx, text),
			Model:           r.parser.Parse(ctx, path, text),
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, false
	}
	return records, true
}

type logEntry struct {
	hash      string
	timestamp time.Time
	message   string
}

// locate resolves the repo root and repo-relative path for a file.
func (r *Retriever) locate(ctx context.Context, path string) (string, string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", "", false
	}

	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--show-toplevel")
	cmd.Dir = filepath.Dir(abs)
	out, err := cmd.Output()
	if err != nil {
		return "", "", false
	}
	repoRoot := strings.TrimSpace(string(out))

	relPath, err := filepath.Rel(repoRoot, abs)
	if err != nil || strings.HasPrefix(relPath, "..") {
		return "", "", false
	}
	return repoRoot, filepath.ToSlash(relPath), true
}

// logEntries runs git log for the file, most recent first.
func (r *Retriever) logEntries(ctx context.Context, repoRoot, relPath string, max int) ([]logEntry, bool) {
	cmd := exec.CommandContext(ctx, "git", "log", "--follow",
		"--format=%H%x1f%ct%x1f%s",
		"-n", strconv.Itoa(max), "--", relPath)
	cmd.Dir = repoRoot

	out, err := cmd.Output()
	if err != nil {
		// Non-zero exit is treated identically to no history.
		return nil, false
	}

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\x1f", 3)
		if len(parts) != 3 {
			continue
		}
		epoch, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, logEntry{
			hash:      parts[0],
			timestamp: time.Unix(epoch, 0).UTC(),
			message:   parts[2],
		})
	}
	return entries, true
}

// show reads the blob content of relPath at a revision.
func (r *Retriever) show(ctx context.Context, repoRoot, revision, relPath string) ([]byte, bool) {
	cmd := exec.CommandContext(ctx, "git", "show", revision+":"+relPath)
	cmd.Dir = repoRoot

	out, err := cmd.Output()
	if err != nil {
		return nil, false
	}
	return out, true
}
