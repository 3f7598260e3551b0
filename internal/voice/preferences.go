package voice

import "github.com/MrWong99/scriptvox/internal/roster"

// Candidate is a (speaker, style hint) pair resolved against a [Catalog].
// An empty Style selects the speaker's first style.
type Candidate struct {
	Speaker string `yaml:"speaker"`
	Style   string `yaml:"style"`
}

// preferences lists VOICEVOX voices per gender and age bucket, best fit first.
var preferences = map[roster.Gender]map[AgeBucket][]Candidate{
	roster.GenderFemale: {
		AgeChild: {{"櫻歌ミコ", "ロリ"}, {"雨晴はう", "ノーマル"}, {"春日部つむぎ", "ノーマル"}},
		AgeTeen:  {{"四国めたん", "ノーマル"}, {"春日部つむぎ", "ノーマル"}, {"九州そら", "あまあま"}, {"春歌ナナ", "ノーマル"}},
		AgeAdult: {{"九州そら", "ノーマル"}, {"冥鳴ひまり", "ノーマル"}, {"もち子さん", "ノーマル"}, {"波音リツ", "ノーマル"}, {"小夜/SAYO", "ノーマル"}},
		AgeElder: {{"波音リツ", "クイーン"}, {"もち子さん", "ノーマル"}, {"ナースロボ＿タイプＴ", "ノーマル"}},
	},
	roster.GenderMale: {
		AgeChild: {{"白上虎太郎", "ふつう"}, {"猫使ビィ", "ノーマル"}},
		AgeTeen:  {{"白上虎太郎", "ふつう"}, {"玄野武宏", "ノーマル"}, {"猫使アル", "ノーマル"}},
		AgeAdult: {{"玄野武宏", "ノーマル"}, {"青山龍星", "ノーマル"}, {"剣崎雌雄", "ノーマル"}, {"雀松朱司", "ノーマル"}, {"†聖騎士 紅桜†", "ノーマル"}},
		AgeElder: {{"ちび式じい", "ノーマル"}, {"麒ヶ島宗麟", "ノーマル"}, {"青山龍星", "しっとり"}},
	},
	roster.GenderOther: {
		AgeChild: {{"ずんだもん", "ノーマル"}, {"中国うさぎ", "ノーマル"}},
		AgeTeen:  {{"ずんだもん", "ノーマル"}, {"No.7", "ノーマル"}},
		AgeAdult: {{"No.7", "ノーマル"}, {"WhiteCUL", "ノーマル"}, {"後鬼", "人間ver."}},
		AgeElder: {{"後鬼", "人間ver."}, {"ちび式じい", "ノーマル"}},
	},
}

// neutralVoices closes every candidate list.
var neutralVoices = []Candidate{
	{"ずんだもん", "ノーマル"},
	{"四国めたん", "ノーマル"},
	{"春日部つむぎ", "ノーマル"},
	{"玄野武宏", "ノーマル"},
}

// narrationVoices is tried for the narration pseudo-entry.
var narrationVoices = []Candidate{
	{"青山龍星", "しっとり"},
	{"WhiteCUL", "ノーマル"},
	{"九州そら", "ささやき"},
	{"玄野武宏", "ノーマル"},
}

// Preferences returns the preference list for gender and age. Unknown or
// invalid genders use the "other" row. The result must not be modified.
func Preferences(g roster.Gender, age AgeBucket) []Candidate {
	if g != roster.GenderFemale && g != roster.GenderMale {
		g = roster.GenderOther
	}
	return preferences[g][age]
}

// Candidates lists the voices to try for n, in order, without duplicates.
// overrides maps narrator names to configured voices; narration holds the
// configured narration voices and is only used for the narration
// pseudo-entry.
func Candidates(n *roster.Narrator, overrides map[string][]Candidate, narration []Candidate) []Candidate {
	var out []Candidate
	seen := make(map[Candidate]bool)
	add := func(cs ...Candidate) {
		for _, c := range cs {
			if c.Speaker == "" || seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
		}
	}

	if roster.IsNarration(n) {
		add(narration...)
		add(narrationVoices...)
		add(neutralVoices...)
		return out
	}

	add(overrides[n.Name]...)
	add(Candidate{Speaker: n.Name})
	for _, a := range n.Aliases {
		add(Candidate{Speaker: a})
	}
	age := ClassifyAge(n)
	add(Preferences(n.Gender, age)...)
	if n.Gender == roster.GenderFemale || n.Gender == roster.GenderMale {
		add(Preferences(roster.GenderOther, age)...)
	}
	add(neutralVoices...)
	return out
}
