package voice

import (
	"strings"

	"github.com/MrWong99/scriptvox/internal/roster"
)

// AgeBucket is a coarse age class inferred from a narrator's profile.
type AgeBucket string

const (
	AgeChild AgeBucket = "child"
	AgeTeen  AgeBucket = "teen"
	AgeAdult AgeBucket = "adult"
	AgeElder AgeBucket = "elder"
)

// Keyword sets, checked in the order child, elder, teen.
var (
	childKeywords = []string{
		"子供", "子ども", "こども", "幼", "小学", "園児", "赤ちゃん", "赤ん坊", "児童",
		"child", "kid", "toddler", "infant",
	}
	elderKeywords = []string{
		"老", "爺", "婆", "じいさん", "ばあさん", "じいちゃん", "ばあちゃん",
		"祖父", "祖母", "長老", "翁", "高齢", "年寄",
		"elder", "old man", "old woman", "grandfather", "grandmother", "grandpa", "grandma",
	}
	teenKeywords = []string{
		"少年", "少女", "中学", "高校", "学生", "生徒", "十代", "思春期",
		"teen", "student", "high school",
	}
)

// ClassifyAge scans name, aliases and portrait for age keywords. The first
// bucket with a match wins in the order child, elder, teen; otherwise adult.
func ClassifyAge(n *roster.Narrator) AgeBucket {
	if n == nil {
		return AgeAdult
	}
	profile := strings.ToLower(n.Name + " " + strings.Join(n.Aliases, " ") + " " + n.Portrait)
	switch {
	case containsAny(profile, childKeywords):
		return AgeChild
	case containsAny(profile, elderKeywords):
		return AgeElder
	case containsAny(profile, teenKeywords):
		return AgeTeen
	}
	return AgeAdult
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
