package tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/utenadev/familiar-ai/internal/memory"
	"github.com/utenadev/familiar-ai/pkg/models"
)

// --- see / look / walk / say -------------------------------------------------

// SeeTool captures one still frame via the camera.
type SeeTool struct{ Camera Camera }

func (t *SeeTool) Name() string        { return "see" }
func (t *SeeTool) Description() string { return "Capture one image from the camera." }
func (t *SeeTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{}}`)
}
func (t *SeeTool) Execute(ctx context.Context, _ json.RawMessage) (string, string, string, error) {
	if t.Camera == nil {
		return "", "", "", fmt.Errorf("camera not configured")
	}
	captureCtx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()
	jpeg, err := t.Camera.Capture(captureCtx)
	if err != nil {
		return "", "", "", err
	}
	return "Image captured.", base64.StdEncoding.EncodeToString(jpeg), "image/jpeg", nil
}

// LookTool pans/tilts the camera by a relative amount.
type LookTool struct{ Camera Camera }

func (t *LookTool) Name() string        { return "look" }
func (t *LookTool) Description() string { return "Pan or tilt the camera a relative amount." }
func (t *LookTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"direction":{"type":"string","enum":["left","right","up","down"]},"degrees":{"type":"integer","default":30}},"required":["direction"]}`)
}
func (t *LookTool) Execute(ctx context.Context, input json.RawMessage) (string, string, string, error) {
	if t.Camera == nil {
		return "", "", "", fmt.Errorf("camera not configured")
	}
	var args struct {
		Direction string `json:"direction"`
		Degrees   int    `json:"degrees"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return "", "", "", err
	}
	switch args.Direction {
	case "left", "right", "up", "down":
	default:
		return fmt.Sprintf("Unknown direction %q; use left, right, up or down.", args.Direction), "", "", nil
	}
	if args.Degrees <= 0 || args.Degrees > 90 {
		args.Degrees = 30
	}
	if err := t.Camera.Pan(ctx, args.Direction, args.Degrees); err != nil {
		return "", "", "", err
	}
	return fmt.Sprintf("Looked %s by %d degrees.", args.Direction, args.Degrees), "", "", nil
}

// WalkTool drives the wheeled base.
type WalkTool struct{ Mobility Mobility }

func (t *WalkTool) Name() string        { return "walk" }
func (t *WalkTool) Description() string { return "Move the base forward, backward, left, right or stop." }
func (t *WalkTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"direction":{"type":"string","enum":["forward","backward","left","right","stop"]},"duration":{"type":"number"}},"required":["direction"]}`)
}
func (t *WalkTool) Execute(ctx context.Context, input json.RawMessage) (string, string, string, error) {
	if t.Mobility == nil {
		return "", "", "", fmt.Errorf("mobility not configured")
	}
	var args struct {
		Direction string  `json:"direction"`
		Duration  float64 `json:"duration"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return "", "", "", err
	}
	switch args.Direction {
	case "forward", "backward", "left", "right", "stop":
	default:
		return fmt.Sprintf("Unknown direction %q.", args.Direction), "", "", nil
	}
	duration := args.Duration
	if duration < 0.1 || duration > 10 {
		duration = 0
	}
	if err := sleepAndStop(ctx, t.Mobility, args.Direction, time.Duration(duration*float64(time.Second))); err != nil {
		return "", "", "", err
	}
	return fmt.Sprintf("Moved %s.", args.Direction), "", "", nil
}

// sayMaxLength truncates say() text to a provider-safe length.
const sayMaxLength = 500

// SayTool speaks text aloud via the remote TTS endpoint.
type SayTool struct {
	Speaker Speaker
}

func (t *SayTool) Name() string        { return "say" }
func (t *SayTool) Description() string { return "Speak text aloud." }
func (t *SayTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"}},"required":["text"]}`)
}
func (t *SayTool) Execute(ctx context.Context, input json.RawMessage) (string, string, string, error) {
	var args struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return "", "", "", err
	}
	text := args.Text
	if len(text) > sayMaxLength {
		text = text[:sayMaxLength]
	}
	if t.Speaker == nil {
		return "", "", "", fmt.Errorf("TTS not configured")
	}
	if err := t.Speaker.Say(ctx, text); err != nil {
		return "", "", "", err
	}
	return "Spoken.", "", "", nil
}

// --- remember / recall / tom -------------------------------------------------

// RememberTool saves a memory record.
type RememberTool struct{ Store *memory.Store }

func (t *RememberTool) Name() string        { return "remember" }
func (t *RememberTool) Description() string { return "Save a memory." }
func (t *RememberTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"content":{"type":"string"},"emotion":{"type":"string"},"image_path":{"type":"string"}},"required":["content"]}`)
}
func (t *RememberTool) Execute(ctx context.Context, input json.RawMessage) (string, string, string, error) {
	var args struct {
		Content   string `json:"content"`
		Emotion   string `json:"emotion"`
		ImagePath string `json:"image_path"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return "", "", "", err
	}
	_, err := t.Store.Save(ctx, args.Content, "", models.KindObservation, models.NormalizeEmotion(args.Emotion), args.ImagePath, "")
	if err != nil {
		// Memory is a feature, not a contract: a save failure is
		// reported to the model as ordinary tool text, not an error.
		return "Could not save that memory right now.", "", "", nil
	}
	return "Remembered.", "", "", nil
}

// RecallTool performs semantic recall.
type RecallTool struct{ Store *memory.Store }

func (t *RecallTool) Name() string        { return "recall" }
func (t *RecallTool) Description() string { return "Recall memories relevant to a query." }
func (t *RecallTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"query":{"type":"string"},"n":{"type":"integer","default":3}},"required":["query"]}`)
}
func (t *RecallTool) Execute(ctx context.Context, input json.RawMessage) (string, string, string, error) {
	var args struct {
		Query string `json:"query"`
		N     int    `json:"n"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return "", "", "", err
	}
	if args.N <= 0 {
		args.N = 3
	}
	records, err := t.Store.Recall(ctx, args.Query, args.N, "")
	if err != nil || len(records) == 0 {
		return "No matching memories.", "", "", nil
	}
	var b strings.Builder
	for i, r := range records {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(fmt.Sprintf("- %s %s: %s", r.Date, r.Time, r.Content))
	}
	return b.String(), "", "", nil
}

// TomTool is the perspective-taking scaffold: recall memories about a
// person and return a structured reflection template.
type TomTool struct{ Store *memory.Store }

func (t *TomTool) Name() string        { return "tom" }
func (t *TomTool) Description() string { return "Reflect on a situation from another person's perspective." }
func (t *TomTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"situation":{"type":"string"},"person":{"type":"string"}},"required":["situation"]}`)
}
func (t *TomTool) Execute(ctx context.Context, input json.RawMessage) (string, string, string, error) {
	var args struct {
		Situation string `json:"situation"`
		Person    string `json:"person"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return "", "", "", err
	}
	query := args.Situation
	if args.Person != "" {
		query = args.Person + " " + query
	}
	var relevant []models.MemoryRecord
	if t.Store != nil {
		relevant, _ = t.Store.Recall(ctx, query, 3, "")
	}
	var memLines strings.Builder
	if len(relevant) == 0 {
		memLines.WriteString("(no relevant memories)")
	}
	for i, r := range relevant {
		if i > 0 {
			memLines.WriteByte('\n')
		}
		memLines.WriteString("- " + r.Content)
	}
	person := args.Person
	if person == "" {
		person = "them"
	}
	return fmt.Sprintf(
		"Situation: %s\nRelevant memories about %s:\n%s\nTone analysis: consider how %s might be feeling.\nProjection: what might %s want right now?\nSubstitution: if I were %s, I would want...\nResponse policy: respond with empathy before acting.",
		args.Situation, person, memLines.String(), person, person, person,
	), "", "", nil
}

// --- coding tools: read_file / edit_file / glob / grep / bash ---------------

// CodingTools groups the workdir-scoped coding tools. read_file,
// edit_file, glob and grep resolve relative paths against Workdir, or
// against the process's working directory when Workdir is empty; bash is
// registered only when AllowBash is set.
type CodingTools struct {
	Workdir   string
	AllowBash bool
}

func (c *CodingTools) resolve(path string) string {
	if c.Workdir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Workdir, path)
}

// ReadFileTool reads a file's contents.
type ReadFileTool struct{ Coding *CodingTools }

func (t *ReadFileTool) Name() string        { return "read_file" }
func (t *ReadFileTool) Description() string { return "Read a text file's contents." }
func (t *ReadFileTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"path":{"type":"string"}},"required":["path"]}`)
}
func (t *ReadFileTool) Execute(ctx context.Context, input json.RawMessage) (string, string, string, error) {
	var args struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return "", "", "", err
	}
	data, err := os.ReadFile(t.Coding.resolve(args.Path))
	if err != nil {
		return "", "", "", err
	}
	return string(data), "", "", nil
}

// EditFileTool replaces one exact occurrence of old_string with
// new_string, per the spec's uniqueness requirement.
type EditFileTool struct{ Coding *CodingTools }

func (t *EditFileTool) Name() string        { return "edit_file" }
func (t *EditFileTool) Description() string { return "Replace one exact occurrence of old_string with new_string." }
func (t *EditFileTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"path":{"type":"string"},"old_string":{"type":"string"},"new_string":{"type":"string"}},"required":["path","old_string","new_string"]}`)
}
func (t *EditFileTool) Execute(ctx context.Context, input json.RawMessage) (string, string, string, error) {
	var args struct {
		Path      string `json:"path"`
		OldString string `json:"old_string"`
		NewString string `json:"new_string"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return "", "", "", err
	}
	full := t.Coding.resolve(args.Path)
	data, err := os.ReadFile(full)
	if err != nil {
		return "", "", "", err
	}
	content := string(data)
	count := strings.Count(content, args.OldString)
	if count == 0 {
		return "old_string not found in file; check it matches exactly, including whitespace.", "", "", nil
	}
	if count > 1 {
		return fmt.Sprintf("old_string matches %d times; make it unique before editing.", count), "", "", nil
	}
	updated := strings.Replace(content, args.OldString, args.NewString, 1)
	if err := os.WriteFile(full, []byte(updated), 0o644); err != nil {
		return "", "", "", err
	}
	return "Edited.", "", "", nil
}

// GlobTool lists files matching a pattern under the coding workdir.
type GlobTool struct{ Coding *CodingTools }

func (t *GlobTool) Name() string        { return "glob" }
func (t *GlobTool) Description() string { return "List files matching a glob pattern." }
func (t *GlobTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"pattern":{"type":"string"}},"required":["pattern"]}`)
}
func (t *GlobTool) Execute(ctx context.Context, input json.RawMessage) (string, string, string, error) {
	var args struct {
		Pattern string `json:"pattern"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return "", "", "", err
	}
	matches, err := filepath.Glob(t.Coding.resolve(args.Pattern))
	if err != nil {
		return "", "", "", err
	}
	if len(matches) == 0 {
		return "No files matched.", "", "", nil
	}
	return strings.Join(matches, "\n"), "", "", nil
}

// GrepTool searches file contents for a regular expression, optionally
// restricted to files matching a glob.
type GrepTool struct{ Coding *CodingTools }

func (t *GrepTool) Name() string        { return "grep" }
func (t *GrepTool) Description() string { return "Search files under the workdir for a regular expression." }
func (t *GrepTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"pattern":{"type":"string"},"glob":{"type":"string","default":"**/*"}},"required":["pattern"]}`)
}
func (t *GrepTool) Execute(ctx context.Context, input json.RawMessage) (string, string, string, error) {
	var args struct {
		Pattern string `json:"pattern"`
		Glob    string `json:"glob"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return "", "", "", err
	}
	re, err := regexp.Compile(args.Pattern)
	if err != nil {
		return fmt.Sprintf("Invalid pattern: %v", err), "", "", nil
	}
	root := t.Coding.Workdir
	if root == "" {
		root = "."
	}
	var hits []string
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if args.Glob != "" && args.Glob != "**/*" {
			if ok, merr := filepath.Match(args.Glob, filepath.Base(path)); merr == nil && !ok {
				return nil
			}
		}
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil
		}
		if re.Match(data) {
			hits = append(hits, path)
		}
		return nil
	})
	if len(hits) == 0 {
		return "No matches.", "", "", nil
	}
	return strings.Join(hits, "\n"), "", "", nil
}

// BashTool runs a shell command under the coding workdir. Only
// advertised when CodingTools.AllowBash is set.
type BashTool struct{ Coding *CodingTools }

func (t *BashTool) Name() string        { return "bash" }
func (t *BashTool) Description() string { return "Run a shell command." }
func (t *BashTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"command":{"type":"string"}},"required":["command"]}`)
}
func (t *BashTool) Execute(ctx context.Context, input json.RawMessage) (string, string, string, error) {
	var args struct {
		Command string `json:"command"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return "", "", "", err
	}
	cmd := exec.CommandContext(ctx, "sh", "-c", args.Command)
	if t.Coding.Workdir != "" {
		cmd.Dir = t.Coding.Workdir
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Sprintf("command failed: %v\n%s", err, out), "", "", nil
	}
	return string(out), "", "", nil
}
