// Package guide serves the static climbing guide: holds, moves and etiquette.
package guide

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
)

const (
	TabHolds = "hold"
	TabMoves = "move"
)

type Entry struct {
	Name        string `json:"name"`
	Emoji       string `json:"emoji"`
	Description string `json:"description"`
	HowTo       string `json:"how_to,omitempty"`
	Difficulty  string `json:"difficulty,omitempty"`
	HTML        string `json:"html"`
}

type Tab struct {
	Key     string  `json:"key"`
	Title   string  `json:"title"`
	Entries []Entry `json:"entries"`
}

type Guide struct {
	Title          string   `json:"title"`
	Subtitle       string   `json:"subtitle"`
	Tabs           []Tab    `json:"tabs"`
	Etiquette      []string `json:"etiquette"`
	EtiquetteHTML  string   `json:"etiquette_html"`
	EtiquetteTitle string   `json:"etiquette_title"`
}

var holds = []Entry{
	{Name: "저그 (Jug)", Emoji: "✊", Difficulty: "하",
		Description: "손가락 전체로 움켜쥘 수 있는 크고 깊은 홀드입니다.",
		HowTo:       "손바닥 전체를 밀착시켜 안정적으로 잡으세요."},
	{Name: "크림프 (Crimp)", Emoji: "🤏", Difficulty: "상",
		Description: "손가락 첫 마디만 걸리는 아주 얇고 작은 홀드입니다.",
		HowTo:       "손가락을 모아 세워 잡거나 엄지로 검지를 눌러 지지하세요."},
	{Name: "슬로퍼 (Sloper)", Emoji: "🖐️", Difficulty: "중~상",
		Description: "각이 없고 둥글어 잡을 곳이 마땅치 않은 홀드입니다.",
		HowTo:       "마찰력을 극대화하기 위해 손바닥 전체로 감싸듯 눌러야 합니다."},
	{Name: "핀치 (Pinch)", Emoji: "🦀", Difficulty: "중",
		Description: "엄지와 나머지 손가락으로 집게처럼 잡는 홀드입니다.",
		HowTo:       "양옆에서 강하게 꼬집는 힘(지력)을 이용하세요."},
	{Name: "포켓 (Pocket)", Emoji: "🕳️", Difficulty: "중~상",
		Description: "홀드에 하나 이상의 구멍이 뚫려 있는 형태입니다.",
		HowTo:       "구멍 크기에 따라 손가락 1~3개를 넣어 고정하세요."},
	{Name: "언더 (Undercling)", Emoji: "⤴️", Difficulty: "중",
		Description: "잡는 방향이 아래로 향해 있는 홀드입니다.",
		HowTo:       "손바닥을 위로 향하게 하여 몸 쪽으로 당기며 일어나세요."},
}

var moves = []Entry{
	{Name: "플래깅 (Flagging)", Emoji: "🚩", Description: "한쪽 다리를 벽에 대어 무게 중심을 잡는 가장 기초적인 기술입니다."},
	{Name: "힐훅 (Heel Hook)", Emoji: "🦶", Description: "발뒤꿈치를 홀드 위나 옆에 걸어 몸을 끌어당깁니다."},
	{Name: "토훅 (Toe Hook)", Emoji: "👟", Description: "발등을 홀드에 걸어 몸이 벽에서 떨어지지 않게 버팁니다."},
	{Name: "드롭 니 (Drop Knee)", Emoji: "📐", Description: "한쪽 무릎을 아래로 꺾어 골반을 벽에 밀착시키는 기술입니다."},
	{Name: "다이노 (Dyno)", Emoji: "🚀", Description: "반동을 이용해 다음 홀드로 점프하듯 이동하는 역동적 동작입니다."},
}

var etiquette = []string{
	"🧗 한 벽에는 한 사람만! 등반 경로가 겹치지 않게 주의하세요.",
	"👏 다른 클라이머가 등반 중일 때는 매트 아래에서 대기하세요.",
	"🧹 사용한 홀드에 초크가 너무 많이 묻었다면 브러쉬로 털어주세요.",
}

func entryMarkdown(e Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s %s\n\n", e.Emoji, e.Name)
	if e.Difficulty != "" {
		fmt.Fprintf(&b, "*난이도: %s*\n\n", e.Difficulty)
	}
	b.WriteString(e.Description + "\n")
	if e.HowTo != "" {
		fmt.Fprintf(&b, "\n**💡 잡는 법:** %s\n", e.HowTo)
	}
	return b.String()
}

func render(md goldmark.Markdown, source string) (string, error) {
	var out bytes.Buffer
	if err := md.Convert([]byte(source), &out); err != nil {
		return "", err
	}
	return out.String(), nil
}

func renderEntries(md goldmark.Markdown, entries []Entry) ([]Entry, error) {
	out := make([]Entry, len(entries))
	for i, entry := range entries {
		html, err := render(md, entryMarkdown(entry))
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", entry.Name, err)
		}
		entry.HTML = html
		out[i] = entry
	}
	return out, nil
}

// Build renders every entry once.
func Build() (*Guide, error) {
	md := goldmark.New()

	renderedHolds, err := renderEntries(md, holds)
	if err != nil {
		return nil, err
	}
	renderedMoves, err := renderEntries(md, moves)
	if err != nil {
		return nil, err
	}

	var list strings.Builder
	for _, line := range etiquette {
		list.WriteString("- " + line + "\n")
	}
	etiquetteHTML, err := render(md, list.String())
	if err != nil {
		return nil, fmt.Errorf("render etiquette: %w", err)
	}

	return &Guide{
		Title:    "Climbing A to Z 🧗",
		Subtitle: "클라이밍 입문을 위한 홀드와 기술 완벽 가이드",
		Tabs: []Tab{
			{Key: TabHolds, Title: "홀드 가이드", Entries: renderedHolds},
			{Key: TabMoves, Title: "등반 기술", Entries: renderedMoves},
		},
		Etiquette:      append([]string(nil), etiquette...),
		EtiquetteHTML:  etiquetteHTML,
		EtiquetteTitle: "알아두면 좋은 클라이밍 에티켓",
	}, nil
}

func (g *Guide) Tab(key string) (Tab, bool) {
	for _, tab := range g.Tabs {
		if tab.Key == key {
			return tab, true
		}
	}
	return Tab{}, false
}
