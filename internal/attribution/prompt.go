package attribution

import (
	"fmt"
	"strings"

	"github.com/MrWong99/scriptvox/internal/roster"
	"github.com/MrWong99/scriptvox/pkg/provider/llm"
	"github.com/MrWong99/scriptvox/pkg/provider/llm/structured"
)

const attributionPrompt = "あなたは小説の台詞の話者を判定します。\n" +
	"登場人物一覧から「対象の文」を話している人物の番号を一つだけ選び、指定されたJSONフォーマットで返答してください。\n" +
	"台詞ではない地の文、または話者が登場人物一覧にいない場合は 0 を選ぶこと。\n" +
	"「前の文」は各行が「話者<TAB>本文」の形式で、話者が空の行は地の文です。"

// indexSchema accepts {"index": n}; a bare integer is wrapped under "index".
var indexSchema = structured.MustSchema("speaker_index", `{
  "type": "object",
  "properties": {
    "index": {"type": "integer", "minimum": 0, "description": "登場人物一覧の番号"}
  },
  "required": ["index"]
}`, "index")

type indexReply struct {
	Index int `json:"index"`
}

// buildMessages renders the numbered choice list and the window.
func buildMessages(w Window, choices roster.Roster) []llm.Message {
	var list strings.Builder
	list.WriteString("登場人物一覧:\n")
	fmt.Fprintf(&list, "0: %s (地の文)", roster.NarrationName)
	for i, n := range choices {
		fmt.Fprintf(&list, "\n%d: %s", i+1, n.Name)
		if len(n.Aliases) > 0 {
			fmt.Fprintf(&list, " [別名: %s]", strings.Join(n.Aliases, "、"))
		}
		if n.Gender != "" && n.Gender != roster.GenderUnknown {
			fmt.Fprintf(&list, " (%s)", n.Gender)
		}
		if n.Portrait != "" {
			fmt.Fprintf(&list, " %s", n.Portrait)
		}
	}

	var ctx strings.Builder
	if len(w.Pre) > 0 {
		ctx.WriteString("前の文:\n")
		ctx.WriteString(w.PreText())
		ctx.WriteString("\n\n")
	}
	ctx.WriteString("対象の文:\n")
	ctx.WriteString(w.Target)
	if len(w.After) > 0 {
		ctx.WriteString("\n\n後の文:\n")
		ctx.WriteString(w.AfterText())
	}

	return []llm.Message{
		llm.UserMessage(list.String()),
		llm.UserMessage(ctx.String()),
	}
}
