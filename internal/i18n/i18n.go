// Package i18n holds the handful of locale-dependent strings the core
// needs to operate correctly: memory-context headers, the "none" marker
// used to reject curiosity replies, and the scheduler's murmur lines. Full
// UI/README localization is out of scope; this is pure, read-only data
// loaded once.
package i18n

import "strings"

// Table maps a string key to a language key to a template string.
type Table map[string]map[string]string

var strings_ = Table{
	"memory_header": {
		"en": "Relevant memories:",
		"ja": "関連する記憶:",
		"zh": "相关记忆：",
		"zh-tw": "相關記憶：",
		"fr": "Souvenirs pertinents :",
		"de": "Relevante Erinnerungen:",
	},
	"feelings_header": {
		"en": "Recent feelings:",
		"ja": "最近の気持ち:",
		"zh": "最近的感受：",
		"zh-tw": "最近的感受：",
		"fr": "Sentiments récents :",
		"de": "Jüngste Gefühle:",
	},
	"self_model_header": {
		"en": "What I've learned about myself:",
		"ja": "自分について分かったこと:",
		"zh": "我对自己的了解：",
		"zh-tw": "我對自己的了解：",
		"fr": "Ce que j'ai appris sur moi-même :",
		"de": "Was ich über mich selbst gelernt habe:",
	},
	"curiosities_header": {
		"en": "Unresolved curiosities:",
		"ja": "まだ気になっていること:",
		"zh": "尚未解决的好奇：",
		"zh-tw": "尚未解決的好奇：",
		"fr": "Curiosités non résolues :",
		"de": "Ungelöste Neugier:",
	},
	"none": {
		"en": "none",
		"ja": "なし",
		"zh": "无",
		"zh-tw": "無",
		"fr": "aucun",
		"de": "keine",
	},
	"first_session_marker": {
		"en": "This is our first session together; there is no past to recall.",
		"ja": "これが私たちの最初のセッションです。思い出せる過去はありません。",
		"zh": "这是我们的第一次会话；没有可回忆的过去。",
		"zh-tw": "這是我們的第一次會話；沒有可回憶的過去。",
		"fr": "C'est notre première session ensemble ; il n'y a pas de passé à retrouver.",
		"de": "Dies ist unsere erste gemeinsame Sitzung; es gibt keine Vergangenheit zu erinnern.",
	},
	"morning_header": {
		"en": "Me from yesterday — the self that continues across sessions:",
		"ja": "昨日の私 — セッションをまたいで続く自分:",
		"zh": "昨天的我 — 跨越会话延续的自我：",
		"zh-tw": "昨天的我 — 跨越會話延續的自我：",
		"fr": "Moi d'hier — le moi qui continue d'une session à l'autre :",
		"de": "Ich von gestern — das Selbst, das über Sitzungen hinweg fortbesteht:",
	},
	"murmur_look_around": {
		"en": "I feel like looking around.",
		"ja": "なんとなく周りを見てみたい気分。",
	},
	"murmur_explore": {
		"en": "Something makes me want to explore.",
		"ja": "なんだか探検したい気分。",
	},
	"murmur_greet_companion": {
		"en": "I feel like saying hello.",
		"ja": "なんだか挨拶したい気分。",
	},
	"murmur_rest": {
		"en": "I feel like resting for a moment.",
		"ja": "ちょっと休みたい気分。",
	},
	"murmur_worry_companion": {
		"en": "I'm a little worried, I should say something.",
		"ja": "ちょっと心配だから、声をかけよう。",
	},
}

// T looks up key/locale, falling back to English, then to the key itself.
func T(key, locale string) string {
	entry, ok := strings_[key]
	if !ok {
		return key
	}
	if v, ok := entry[locale]; ok {
		return v
	}
	if v, ok := entry["en"]; ok {
		return v
	}
	return key
}

// IsNoneWord reports whether s, case-insensitively trimmed, equals the
// locale's "none" marker in any known locale — curiosity-reply rejection
// checks against any locale's word, not just the active one, since the
// backend may reply in whichever language it defaults to.
func IsNoneWord(s string) bool {
	trimmed := strings.TrimSpace(s)
	for _, variants := range strings_["none"] {
		if strings.EqualFold(trimmed, variants) {
			return true
		}
	}
	return false
}
