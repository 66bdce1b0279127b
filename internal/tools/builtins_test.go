package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeeToolRequiresCamera(t *testing.T) {
	tool := &SeeTool{Camera: nil}
	_, _, _, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	assert.Error(t, err)
}

func TestWalkToolRequiresMobility(t *testing.T) {
	tool := &WalkTool{Mobility: nil}
	_, _, _, err := tool.Execute(context.Background(), json.RawMessage(`{"direction":"forward"}`))
	assert.Error(t, err)
}

func TestSayToolRequiresSpeaker(t *testing.T) {
	tool := &SayTool{Speaker: nil}
	_, _, _, err := tool.Execute(context.Background(), json.RawMessage(`{"text":"hi"}`))
	assert.Error(t, err)
}

func TestSayToolTruncatesLongText(t *testing.T) {
	spoken := make(chan string, 1)
	tool := &SayTool{Speaker: speakerFunc(func(_ context.Context, text string) error {
		spoken <- text
		return nil
	})}
	longText := make([]byte, sayMaxLength+50)
	for i := range longText {
		longText[i] = 'x'
	}
	input, err := json.Marshal(map[string]string{"text": string(longText)})
	require.NoError(t, err)

	text, _, _, execErr := tool.Execute(context.Background(), input)
	require.NoError(t, execErr)
	assert.Equal(t, "Spoken.", text)
	assert.Len(t, <-spoken, sayMaxLength)
}

type speakerFunc func(ctx context.Context, text string) error

func (f speakerFunc) Say(ctx context.Context, text string) error { return f(ctx, text) }

func TestLookToolRejectsUnknownDirection(t *testing.T) {
	tool := &LookTool{Camera: fakeCamera{}}
	text, _, _, err := tool.Execute(context.Background(), json.RawMessage(`{"direction":"sideways"}`))
	require.NoError(t, err)
	assert.Contains(t, text, "Unknown direction")
}

func TestLookToolResetsOutOfRangeDegreesToDefault(t *testing.T) {
	var pannedDegrees int
	tool := &LookTool{Camera: fakeCameraWithPan{pan: func(_ context.Context, _ string, degrees int) error {
		pannedDegrees = degrees
		return nil
	}}}
	_, _, _, err := tool.Execute(context.Background(), json.RawMessage(`{"direction":"left","degrees":900}`))
	require.NoError(t, err)
	assert.Equal(t, 30, pannedDegrees)
}

type fakeCamera struct{}

func (fakeCamera) Capture(ctx context.Context) ([]byte, error)                { return nil, nil }
func (fakeCamera) Pan(ctx context.Context, direction string, degrees int) error { return nil }

type fakeCameraWithPan struct {
	pan func(ctx context.Context, direction string, degrees int) error
}

func (fakeCameraWithPan) Capture(ctx context.Context) ([]byte, error) { return nil, nil }
func (f fakeCameraWithPan) Pan(ctx context.Context, direction string, degrees int) error {
	return f.pan(ctx, direction, degrees)
}

func TestCodingToolsResolveFallsThroughToCwdWhenUnset(t *testing.T) {
	c := &CodingTools{}
	assert.Equal(t, "relative/path.txt", c.resolve("relative/path.txt"))
}

func TestCodingToolsResolveJoinsWorkdir(t *testing.T) {
	c := &CodingTools{Workdir: "/srv/project"}
	assert.Equal(t, filepath.Join("/srv/project", "a.txt"), c.resolve("a.txt"))
}

func TestCodingToolsResolveLeavesAbsolutePathAlone(t *testing.T) {
	c := &CodingTools{Workdir: "/srv/project"}
	assert.Equal(t, "/etc/hosts", c.resolve("/etc/hosts"))
}

func TestEditFileToolRequiresExactlyOneMatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("alpha beta alpha"), 0o644))
	coding := &CodingTools{Workdir: dir}
	tool := &EditFileTool{Coding: coding}

	input, _ := json.Marshal(map[string]string{"path": "file.txt", "old_string": "alpha", "new_string": "gamma"})
	text, _, _, err := tool.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Contains(t, text, "matches 2 times")

	data, _ := os.ReadFile(path)
	assert.Equal(t, "alpha beta alpha", string(data), "no edit should have been made")
}

func TestEditFileToolReportsMissingMatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))
	coding := &CodingTools{Workdir: dir}
	tool := &EditFileTool{Coding: coding}

	input, _ := json.Marshal(map[string]string{"path": "file.txt", "old_string": "not present", "new_string": "x"})
	text, _, _, err := tool.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Contains(t, text, "not found")
}

func TestEditFileToolAppliesUniqueMatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))
	coding := &CodingTools{Workdir: dir}
	tool := &EditFileTool{Coding: coding}

	input, _ := json.Marshal(map[string]string{"path": "file.txt", "old_string": "world", "new_string": "familiar"})
	text, _, _, err := tool.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "Edited.", text)

	data, _ := os.ReadFile(path)
	assert.Equal(t, "hello familiar", string(data))
}

func TestReadFileToolReadsThroughWorkdir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("contents"), 0o644))
	tool := &ReadFileTool{Coding: &CodingTools{Workdir: dir}}
	input, _ := json.Marshal(map[string]string{"path": "a.txt"})
	text, _, _, err := tool.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "contents", text)
}

func TestGlobToolReportsNoMatches(t *testing.T) {
	dir := t.TempDir()
	tool := &GlobTool{Coding: &CodingTools{Workdir: dir}}
	input, _ := json.Marshal(map[string]string{"pattern": "*.nonexistent"})
	text, _, _, err := tool.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "No files matched.", text)
}

func TestGrepToolFindsMatchingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("the bookshelf is tall"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("nothing interesting"), 0o644))
	tool := &GrepTool{Coding: &CodingTools{Workdir: dir}}
	input, _ := json.Marshal(map[string]string{"pattern": "bookshelf"})
	text, _, _, err := tool.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Contains(t, text, "a.txt")
	assert.NotContains(t, text, "b.txt")
}

func TestGrepToolInvalidPatternIsGuidanceNotError(t *testing.T) {
	tool := &GrepTool{Coding: &CodingTools{Workdir: t.TempDir()}}
	input, _ := json.Marshal(map[string]string{"pattern": "("})
	text, _, _, err := tool.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Contains(t, text, "Invalid pattern")
}
