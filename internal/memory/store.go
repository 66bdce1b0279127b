// Package memory implements the durable memory store (C1): typed
// observation/conversation/feeling/curiosity/self-model rows with
// semantic recall, backed by a single local SQLite file.
package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"

	"github.com/utenadev/familiar-ai/pkg/models"
)

// ErrStoreUnavailable is returned by Save on an I/O failure. Callers are
// expected to log and continue: memory is a feature, not a contract.
var ErrStoreUnavailable = errors.New("memory: store unavailable")

// Encoder turns text into a fixed-dimension, L2-normalized embedding. The
// real multilingual encoder is an external dependency (out of scope);
// implementations must not block process startup — defer loading to
// first use.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Store is the SQLite-backed memory store.
type Store struct {
	db      *sql.DB
	encoder Encoder
	logger  *slog.Logger
}

// Config configures Open.
type Config struct {
	Path    string
	Encoder Encoder
	Logger  *slog.Logger
}

// Open opens (creating if absent) the memory database at cfg.Path,
// applying idempotent schema migrations, and returns a ready Store. The
// encoder is stored but never invoked here — embedding cost is paid on
// first Save/Recall, not at startup.
func Open(cfg Config) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("memory: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, encoder: cfg.Encoder, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("memory: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS observations (
	id TEXT PRIMARY KEY,
	content TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	date TEXT NOT NULL,
	time TEXT NOT NULL,
	direction TEXT,
	kind TEXT NOT NULL DEFAULT 'observation',
	emotion TEXT NOT NULL DEFAULT 'neutral',
	image_path TEXT,
	image_data TEXT
);
CREATE TABLE IF NOT EXISTS obs_embeddings (
	obs_id TEXT PRIMARY KEY REFERENCES observations(id) ON DELETE CASCADE,
	vector BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_observations_timestamp ON observations(timestamp);
CREATE INDEX IF NOT EXISTS idx_observations_date ON observations(date);
CREATE INDEX IF NOT EXISTS idx_observations_kind ON observations(kind);
`)
	if err != nil {
		return err
	}
	// Idempotent ALTERs for databases created by an older schema
	// revision that predates kind/emotion/image columns. SQLite has no
	// "ADD COLUMN IF NOT EXISTS", so errors here are expected and ignored
	// once the column already exists.
	for _, stmt := range []string{
		`ALTER TABLE observations ADD COLUMN kind TEXT NOT NULL DEFAULT 'observation'`,
		`ALTER TABLE observations ADD COLUMN emotion TEXT NOT NULL DEFAULT 'neutral'`,
		`ALTER TABLE observations ADD COLUMN image_path TEXT`,
		`ALTER TABLE observations ADD COLUMN image_data TEXT`,
	} {
		_, _ = s.db.Exec(stmt)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save embeds content and writes the row plus its embedding atomically.
// When the store has no encoder, or encoding fails, the row is still
// written but has no embedding; such rows are found only by the keyword
// and recency tiers of Recall. On I/O error it returns
// ErrStoreUnavailable; callers log and continue.
func (s *Store) Save(ctx context.Context, content, direction string, kind models.Kind, emotion models.Emotion, imagePath, imageData string) (string, error) {
	id := uuid.NewString()
	now := time.Now()

	var vec []float32
	if s.encoder != nil {
		v, err := s.encoder.Encode(ctx, "passage: "+content)
		if err != nil {
			s.logger.Warn("memory: embed failed, saving without vector", "error", err)
		} else {
			vec = v
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO observations (id, content, timestamp, date, time, direction, kind, emotion, image_path, image_data)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, content, now.Format(time.RFC3339), now.Format("2006-01-02"), now.Format("15:04"),
		nullString(direction), string(models.NormalizeKind(string(kind))), string(models.NormalizeEmotion(string(emotion))),
		nullString(imagePath), nullString(imageData),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if vec != nil {
		if _, err := tx.ExecContext(ctx, `INSERT INTO obs_embeddings (obs_id, vector) VALUES (?, ?)`, id, encodeVector(vec)); err != nil {
			return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return id, nil
}

// Delete removes a record and, via the foreign key cascade, its embedding.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM observations WHERE id = ?`, id)
	return err
}

// Recall returns the top-n semantically similar records, optionally
// filtered by kind, falling back through substring match then recency
// when no embeddings exist or the encoder is unavailable.
func (s *Store) Recall(ctx context.Context, query string, n int, kind models.Kind) ([]models.MemoryRecord, error) {
	if n <= 0 {
		return nil, nil
	}

	if s.encoder != nil {
		queryVec, err := s.encoder.Encode(ctx, "query: "+query)
		if err == nil {
			records, rerr := s.recallVector(ctx, queryVec, n, kind)
			if rerr == nil && len(records) > 0 {
				return records, nil
			}
		}
	}

	tokens := keywordTokens(query)
	if len(tokens) > 0 {
		records, err := s.recallKeyword(ctx, tokens, n, kind)
		if err == nil && len(records) > 0 {
			return records, nil
		}
	}

	return s.recallRecent(ctx, n, kind)
}

func (s *Store) recallVector(ctx context.Context, queryVec []float32, n int, kind models.Kind) ([]models.MemoryRecord, error) {
	query, args := scopedSelect(`
SELECT o.id, o.content, o.timestamp, o.date, o.time, o.direction, o.kind, o.emotion, o.image_path, o.image_data, e.vector
FROM observations o JOIN obs_embeddings e ON e.obs_id = o.id`, kind)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []models.MemoryRecord
	for rows.Next() {
		var rec models.MemoryRecord
		var direction, imagePath, imageData sql.NullString
		var blob []byte
		var k, em string
		if err := rows.Scan(&rec.ID, &rec.Content, &rec.Timestamp, &rec.Date, &rec.Time, &direction, &k, &em, &imagePath, &imageData, &blob); err != nil {
			return nil, err
		}
		rec.Direction = direction.String
		rec.Kind = models.NormalizeKind(k)
		rec.Emotion = models.NormalizeEmotion(em)
		rec.ImagePath = imagePath.String
		rec.ImageData = imageData.String
		vec := decodeVector(blob)
		rec.Score = cosineSimilarity(vec, queryVec)
		rec.Scored = true
		candidates = append(candidates, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Timestamp > candidates[j].Timestamp
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates, nil
}

func (s *Store) recallKeyword(ctx context.Context, tokens []string, n int, kind models.Kind) ([]models.MemoryRecord, error) {
	base, args := scopedSelect(`SELECT id, content, timestamp, date, time, direction, kind, emotion, image_path, image_data FROM observations o`, kind)
	var clauses []string
	for _, tok := range tokens {
		clauses = append(clauses, "content LIKE ?")
		args = append(args, "%"+tok+"%")
	}
	if len(clauses) > 0 {
		if strings.Contains(base, "WHERE") {
			base += " AND (" + strings.Join(clauses, " OR ") + ")"
		} else {
			base += " WHERE " + strings.Join(clauses, " OR ")
		}
	}
	base += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, n)

	rows, err := s.db.QueryContext(ctx, base, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *Store) recallRecent(ctx context.Context, n int, kind models.Kind) ([]models.MemoryRecord, error) {
	base, args := scopedSelect(`SELECT id, content, timestamp, date, time, direction, kind, emotion, image_path, image_data FROM observations o`, kind)
	base += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, n)

	rows, err := s.db.QueryContext(ctx, base, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// RecentFeelings returns the most recent n records of kind feeling or
// conversation, newest first.
func (s *Store) RecentFeelings(ctx context.Context, n int) ([]models.MemoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, content, timestamp, date, time, direction, kind, emotion, image_path, image_data
FROM observations WHERE kind IN ('feeling', 'conversation')
ORDER BY timestamp DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// RecallSelfModel returns the most recent n self_model records.
func (s *Store) RecallSelfModel(ctx context.Context, n int) ([]models.MemoryRecord, error) {
	return s.recallRecent(ctx, n, models.KindSelfModel)
}

// RecallCuriosities returns the most recent n curiosity records.
func (s *Store) RecallCuriosities(ctx context.Context, n int) ([]models.MemoryRecord, error) {
	return s.recallRecent(ctx, n, models.KindCuriosity)
}

func scopedSelect(base string, kind models.Kind) (string, []any) {
	if kind == "" {
		return base, nil
	}
	if strings.Contains(base, "WHERE") {
		return base + " AND o.kind = ?", []any{string(kind)}
	}
	return base + " WHERE o.kind = ?", []any{string(kind)}
}

func scanRecords(rows *sql.Rows) ([]models.MemoryRecord, error) {
	var out []models.MemoryRecord
	for rows.Next() {
		var rec models.MemoryRecord
		var direction, imagePath, imageData sql.NullString
		var k, em string
		if err := rows.Scan(&rec.ID, &rec.Content, &rec.Timestamp, &rec.Date, &rec.Time, &direction, &k, &em, &imagePath, &imageData); err != nil {
			return nil, err
		}
		rec.Direction = direction.String
		rec.Kind = models.NormalizeKind(k)
		rec.Emotion = models.NormalizeEmotion(em)
		rec.ImagePath = imagePath.String
		rec.ImageData = imageData.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

func keywordTokens(query string) []string {
	var out []string
	for _, tok := range strings.Fields(query) {
		if len([]rune(tok)) >= 2 {
			out = append(out, tok)
		}
	}
	return out
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// encodeVector packs a float32 slice into a little-endian byte blob, the
// on-disk representation obs_embeddings.vector expects.
func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		bits := math.Float32bits(f)
		buf[i*4+0] = byte(bits)
		buf[i*4+1] = byte(bits >> 8)
		buf[i*4+2] = byte(bits >> 16)
		buf[i*4+3] = byte(bits >> 24)
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	n := len(b) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		bits := uint32(b[i*4+0]) | uint32(b[i*4+1])<<8 | uint32(b[i*4+2])<<16 | uint32(b[i*4+3])<<24
		out[i] = math.Float32frombits(bits)
	}
	return out
}

// cosineSimilarity assumes both vectors are already L2-normalized (the
// encoder contract), so the dot product alone is the cosine similarity.
// It still guards against drift with an explicit norm pass rather than
// trusting that contract blindly.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (sqrt64(normA) * sqrt64(normB)))
}

// sqrt64 is a small Newton-Raphson square root: 20 iterations starting
// from x itself.
func sqrt64(x float64) float64 {
	if x == 0 {
		return 0
	}
	z := x
	for i := 0; i < 20; i++ {
		z -= (z*z - x) / (2 * z)
	}
	return z
}
