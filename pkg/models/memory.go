package models

// Kind classifies a MemoryRecord. Unknown values read from storage
// normalize to KindObservation.
type Kind string

const (
	KindObservation Kind = "observation"
	KindConversation Kind = "conversation"
	KindFeeling     Kind = "feeling"
	KindCuriosity   Kind = "curiosity"
	KindSelfModel   Kind = "self_model"
)

// NormalizeKind maps an arbitrary string onto a known Kind, defaulting to
// KindObservation for anything unrecognized.
func NormalizeKind(s string) Kind {
	switch Kind(s) {
	case KindObservation, KindConversation, KindFeeling, KindCuriosity, KindSelfModel:
		return Kind(s)
	default:
		return KindObservation
	}
}

// Emotion classifies the affect attached to a MemoryRecord. Unknown
// values normalize to EmotionNeutral.
type Emotion string

const (
	EmotionNeutral  Emotion = "neutral"
	EmotionHappy    Emotion = "happy"
	EmotionSad      Emotion = "sad"
	EmotionCurious  Emotion = "curious"
	EmotionExcited  Emotion = "excited"
	EmotionMoved    Emotion = "moved"
)

// NormalizeEmotion maps an arbitrary string onto a known Emotion,
// defaulting to EmotionNeutral for anything unrecognized.
func NormalizeEmotion(s string) Emotion {
	switch Emotion(s) {
	case EmotionNeutral, EmotionHappy, EmotionSad, EmotionCurious, EmotionExcited, EmotionMoved:
		return Emotion(s)
	default:
		return EmotionNeutral
	}
}

// MemoryRecord is one durable observation, conversation summary, feeling,
// curiosity or self-model insight. A record saved while an encoder is
// available and succeeds has exactly one embedding, stored separately but
// keyed 1:1 and deleted with it; a record saved otherwise has none.
type MemoryRecord struct {
	ID        string  `json:"id"`
	Content   string  `json:"content"`
	Timestamp string  `json:"timestamp"` // ISO-8601
	Date      string  `json:"date"`      // YYYY-MM-DD
	Time      string  `json:"time"`      // HH:MM
	Direction string  `json:"direction,omitempty"`
	Kind      Kind    `json:"kind"`
	Emotion   Emotion `json:"emotion"`
	ImagePath string  `json:"image_path,omitempty"`
	ImageData string  `json:"image_data,omitempty"` // base64 JPEG thumbnail, <=320x260

	// Score is the cosine similarity against a recall query, when the
	// result came from the vector tier. Fallback tiers leave it at zero
	// and callers must check Scored before rendering it.
	Score  float32 `json:"score,omitempty"`
	Scored bool    `json:"-"`
}
