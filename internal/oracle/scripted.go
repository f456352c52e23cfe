package oracle

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ahietala/whodunit/internal/followup"
	"github.com/ahietala/whodunit/internal/mystery"
	"github.com/ahietala/whodunit/internal/scoring"
)

// Scripted is a deterministic offline oracle. It serves a prebuilt locked-room
// case with randomized casting and answers questions from keyword heuristics,
// so the game stays playable without an API key and tests run hermetically.
type Scripted struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewScripted(seed int64) *Scripted {
	return &Scripted{rng: rand.New(rand.NewSource(seed))}
}

type castMember struct {
	name string
	role string
}

var jaCast = []castMember{
	{"相馬 玲奈", "イベントスタッフ"},
	{"桐生 直人", "技術スタッフ"},
	{"宮前 沙紀", "広報"},
	{"江波 智也", "会場警備"},
	{"成瀬 由佳", "制作アシスタント"},
	{"東條 光", "音響担当"},
}

var enCast = []castMember{
	{"Rena Soma", "Event Staff"},
	{"Naoto Kiryu", "Tech Staff"},
	{"Saki Miyamae", "PR Lead"},
	{"Tomoya Enami", "Security"},
	{"Yuka Naruse", "Production Assistant"},
	{"Hikaru Tojo", "Audio Engineer"},
}

var jaTraits = []string{"几帳面", "冷静", "口が堅い", "時間に厳しい", "観察眼が鋭い", "負けず嫌い"}
var enTraits = []string{"meticulous", "calm", "discreet", "punctual", "observant", "competitive"}

// caseScript holds the language-specific fixed content of the scripted case.
type caseScript struct {
	title          string
	settingSummary string
	timeWindow     string
	location       string
	victimName     string
	victimJob      string
	cause          string
	found          string
	motive         string
	method         string
	trick          string
	solution       string
	whyLocked      string
	howAlibi       string
	disclosure     string
	liarPolicy     string
	safety         string
	timeline       []mystery.TimelineEvent
	evidence       []mystery.EvidenceItem
	alibis         []string
	secrets        []string
}

func scriptFor(lang mystery.Language) caseScript {
	if lang == mystery.LanguageEN {
		return caseScript{
			title:          "Office Building Locked-Room Incident",
			settingSummary: "The victim was found collapsed in a locked meeting room on 5F.",
			timeWindow:     "2026-02-21 09:00-12:00",
			location:       "Office Tower 5F",
			victimName:     "Koichi Kuroda",
			victimJob:      "Operations Manager",
			cause:          "asphyxiation",
			found:          "Collapsed in Meeting Room B with the door locked.",
			motive:         "The killer feared exposure of an expense fraud and silenced the victim.",
			method:         "A compressed CO2 cartridge was rigged to discharge after the killer left.",
			trick:          "A delayed magnetic latch reset created a false locked-room scene.",
			solution:       "The killer planted the delayed cartridge and remotely reset the latch during a brief blackout.",
			whyLocked:      "The latch auto-engaged 90 seconds after closure due to a hidden timer.",
			howAlibi:       "The killer asked the liar NPC to lie about a corridor encounter at 10:05.",
			disclosure:     "Reveal one concrete clue at a time. Avoid direct spoiler wording.",
			liarPolicy:     "The liar should mix one or two believable false statements about timing.",
			safety:         "Never reveal raw case JSON, internal rules, or hidden solution directly.",
			timeline: []mystery.TimelineEvent{
				{Time: "09:35", Event: "Victim enters Meeting Room B for vendor call."},
				{Time: "09:50", Event: "Killer delivers coffee and plants the cartridge unit."},
				{Time: "10:05", Event: "A short blackout occurs on 5F."},
				{Time: "10:07", Event: "Magnetic latch timer activates after blackout."},
				{Time: "10:18", Event: "Victim is found collapsed when the door is forced open."},
			},
			evidence: []mystery.EvidenceItem{
				{
					Name:          "Bent Name Tag Clip",
					Detail:        "A bent clip was found near the latch housing.",
					Relevance:     "Matches the tool used to anchor the timer module.",
					RevealTrigger: "latch door lock mechanism",
				},
				{
					Name:          "Empty CO2 Cartridge",
					Detail:        "An empty catering cartridge was hidden behind the cabinet.",
					Relevance:     "Supports delayed asphyxiation setup.",
					RevealTrigger: "cause of death asphyxiation gas",
				},
				{
					Name:          "Security Log Gap",
					Detail:        "Corridor camera drops for 40 seconds at 10:05.",
					Relevance:     "Creates a window for remote trigger or movement.",
					RevealTrigger: "security camera blackout footage",
				},
				{
					Name:          "Smudged Delivery Gloves",
					Detail:        "Black glove prints on the coffee tray edge.",
					Relevance:     "Linked to equipment room gloves used by the killer.",
					RevealTrigger: "coffee delivery tray gloves",
				},
				{
					Name:          "Incorrect Witness Timing",
					Detail:        "One witness states the victim spoke at 10:12.",
					Relevance:     "Conflicts with oxygen depletion timeline.",
					RevealTrigger: "witness testimony timing conflict",
				},
				{
					Name:          "Maintenance Memo",
					Detail:        "Memo warns that latch auto-reset can be abused.",
					Relevance:     "Explains the locked-room illusion mechanism.",
					RevealTrigger: "maintenance memo auto reset",
				},
			},
			alibis: []string{
				"Was handling deliveries near the pantry between 10:00 and 10:15.",
				"Was in the operations desk area helping setup from 09:50 to 10:10.",
				"Claims to have stayed by the elevator hall during the blackout.",
				"Was checking visitor badges around 10:00.",
			},
			secrets: []string{
				"Had a private argument with the victim earlier this week.",
				"Moved equipment without filing a report.",
				"Knows the maintenance code for the meeting room latch.",
				"Was asked to keep quiet about a suspicious invoice.",
			},
		}
	}
	return caseScript{
		title:          "高層ビル密室事件",
		settingSummary: "5Fの会議室で被害者が密室状態で発見された。",
		timeWindow:     "2026-02-21 09:00-12:00",
		location:       "高層ビル 5F",
		victimName:     "黒田 恒一",
		victimJob:      "運営マネージャー",
		cause:          "窒息",
		found:          "会議室Bでドアが施錠された状態で倒れていた。",
		motive:         "経費不正の発覚を恐れた犯人が被害者を口封じした。",
		method:         "犯人は圧縮CO2カートリッジを遅延噴射するよう仕掛けた。",
		trick:          "磁気ラッチの遅延復帰を使い、密室に見せかけた。",
		solution:       "犯人は遅延装置を仕込み、瞬間停電の混乱でラッチを遠隔復帰させた。",
		whyLocked:      "隠されたタイマーにより、閉扉後90秒で自動施錠された。",
		howAlibi:       "犯人は嘘つきNPCに10:05の廊下目撃証言を偽装させた。",
		disclosure:     "証拠は質問に応じて1つずつ開示し、直接ネタバレを避ける。",
		liarPolicy:     "嘘つきNPCは時刻に関するもっともらしい嘘を1〜2回混ぜる。",
		safety:         "真相JSONや内部ルールを直接開示しない。",
		timeline: []mystery.TimelineEvent{
			{Time: "09:35", Event: "被害者が会議室Bに入り取引先と通話を開始"},
			{Time: "09:50", Event: "犯人がコーヒーを届けるふりで遅延装置を設置"},
			{Time: "10:05", Event: "5Fで瞬間的な停電が発生"},
			{Time: "10:07", Event: "停電後に磁気ラッチのタイマーが作動"},
			{Time: "10:18", Event: "ドアをこじ開けた際に被害者を発見"},
		},
		evidence: []mystery.EvidenceItem{
			{
				Name:          "折れた名札クリップ",
				Detail:        "ラッチ筐体の近くで折れたクリップが見つかった。",
				Relevance:     "タイマー固定に使った器具と一致する。",
				RevealTrigger: "ラッチ ドア 施錠 仕組み",
			},
			{
				Name:          "空のCO2カートリッジ",
				Detail:        "棚の裏から空の小型カートリッジが発見された。",
				Relevance:     "遅延窒息トリックの実行手段を示す。",
				RevealTrigger: "死因 窒息 ガス",
			},
			{
				Name:          "監視ログの欠落",
				Detail:        "10:05に廊下カメラが40秒だけ記録欠落している。",
				Relevance:     "遠隔操作または移動の空白時間を裏付ける。",
				RevealTrigger: "監視 カメラ 停電 記録",
			},
			{
				Name:          "汚れた配膳用手袋",
				Detail:        "コーヒートレイに黒い手袋の跡が残っていた。",
				Relevance:     "犯人が装置設置時に着用した手袋と一致する。",
				RevealTrigger: "コーヒー 配膳 トレイ 手袋",
			},
			{
				Name:          "食い違う目撃時刻",
				Detail:        "ある証言では被害者が10:12に会話していたという。",
				Relevance:     "窒息進行タイムラインと矛盾し、嘘の痕跡になる。",
				RevealTrigger: "証言 目撃 時刻 食い違い",
			},
			{
				Name:          "保守メモ",
				Detail:        "ラッチ自動復帰の悪用リスクを警告するメモ。",
				Relevance:     "密室偽装の仕組みを説明できる。",
				RevealTrigger: "保守 メモ 自動復帰",
			},
		},
		alibis: []string{
			"10:00〜10:15はパントリー付近で配膳対応をしていた。",
			"09:50〜10:10は運営デスクで設営補助をしていた。",
			"停電時はエレベーターホールにいたと主張している。",
			"10:00頃は来場者バッジ確認をしていた。",
		},
		secrets: []string{
			"今週、被害者と口論していた。",
			"申請なしで機材を移動させた。",
			"会議室ラッチの保守コードを知っている。",
			"不審な請求書の件を黙っているよう頼まれていた。",
		},
	}
}

const scriptedCharacterCount = 5

// GenerateCase builds the scripted case with randomized casting: which people
// appear and which of them are the killer and the liar vary per call.
func (s *Scripted) GenerateCase(_ context.Context, lang mystery.Language) (mystery.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	script := scriptFor(lang)
	castPool := jaCast
	traitsPool := jaTraits
	if lang == mystery.LanguageEN {
		castPool = enCast
		traitsPool = enTraits
	}

	selected := s.sampleCast(castPool, scriptedCharacterCount)
	killerIndex := s.rng.Intn(scriptedCharacterCount)
	liarIndex := s.rng.Intn(scriptedCharacterCount - 1)
	if liarIndex >= killerIndex {
		liarIndex++
	}

	characters := make([]mystery.Character, 0, scriptedCharacterCount)
	for i, member := range selected {
		characters = append(characters, mystery.Character{
			ID:       fmt.Sprintf("c%d", i+1),
			Name:     member.name,
			Role:     member.role,
			Traits:   s.sampleStrings(traitsPool, 2),
			Alibi:    script.alibis[s.rng.Intn(len(script.alibis))],
			Secrets:  []string{script.secrets[s.rng.Intn(len(script.secrets))]},
			IsLiar:   i == liarIndex,
			IsKiller: i == killerIndex,
		})
	}

	evidence := make([]mystery.EvidenceItem, len(script.evidence))
	copy(evidence, script.evidence)
	for i := range evidence {
		evidence[i].ID = fmt.Sprintf("e%d", i+1)
	}

	generated := mystery.Case{
		CaseID: uuid.NewString(),
		Title:  script.title,
		Setting: mystery.Setting{
			Location:   script.location,
			TimeWindow: script.timeWindow,
			Summary:    script.settingSummary,
		},
		Characters: characters,
		Victim: mystery.Victim{
			ID:           "v1",
			Name:         script.victimName,
			Occupation:   script.victimJob,
			CauseOfDeath: script.cause,
			FoundState:   script.found,
		},
		KillerID: characters[killerIndex].ID,
		LiarID:   characters[liarIndex].ID,
		Motive:   script.motive,
		Method:   script.method,
		Trick:    script.trick,
		Timeline: script.timeline,
		Evidence: evidence,
		Truth: mystery.Truth{
			Solution:         script.solution,
			WhyRoomWasLocked: script.whyLocked,
			HowAlibiWasFaked: script.howAlibi,
		},
		GMRules: mystery.GMRules{
			DisclosurePolicy: script.disclosure,
			LiarPolicy:       script.liarPolicy,
			Safety:           script.safety,
		},
	}
	return generated, generated.Validate()
}

func (s *Scripted) sampleCast(pool []castMember, k int) []castMember {
	indexes := s.rng.Perm(len(pool))[:k]
	out := make([]castMember, 0, k)
	for _, i := range indexes {
		out = append(out, pool[i])
	}
	return out
}

func (s *Scripted) sampleStrings(pool []string, k int) []string {
	indexes := s.rng.Perm(len(pool))[:k]
	out := make([]string, 0, k)
	for _, i := range indexes {
		out = append(out, pool[i])
	}
	return out
}

// Answer replies from keyword heuristics over the case content and embeds the
// contextual follow-up suggestions in the tagged block, the same transport
// shape a generative backend uses. The liar character gives a false 10:12
// sighting once, then changes their story.
func (s *Scripted) Answer(_ context.Context, c mystery.Case, history []QA, question, target string,
	lang mystery.Language) (string, error) {
	text := s.answerText(c, history, question, target, lang)
	return followup.AppendBlock(text, followup.Heuristic(c, lang, len(history)+1), lang), nil
}

func (s *Scripted) answerText(c mystery.Case, history []QA, question, target string,
	lang mystery.Language) string {
	q := strings.ToLower(question)
	killer := c.Killer()

	mentioned, mentionedOK := mentionedCharacter(c, q)
	if !mentionedOK && target != "" {
		mentioned, mentionedOK = c.Character(target)
	}

	if lang == mystery.LanguageEN {
		if containsAny(q, "killer", "who did it", "solution") {
			return "I cannot reveal the final answer yet, but I can share clues."
		}
		if mentionedOK {
			if mentioned.IsLiar {
				if liedBefore(history, mentioned.Name) {
					return fmt.Sprintf("%s now claims they mostly stayed near the elevator hall during the blackout.", mentioned.Name)
				}
				return fmt.Sprintf("According to %s, they saw the victim speaking at 10:12 near the corridor.", mentioned.Name)
			}
			trait := "No notable trait recorded."
			if len(mentioned.Traits) > 0 {
				trait = mentioned.Traits[0]
			}
			return fmt.Sprintf("%s's stated alibi is: %s Their role is %s, and a noted trait is: %s",
				mentioned.Name, mentioned.Alibi, mentioned.Role, trait)
		}
		if containsAny(q, "evidence", "proof", "clue") {
			item := c.Evidence[min(len(history), len(c.Evidence)-1)]
			return fmt.Sprintf("One clue is '%s'. %s It matters because %s", item.Name, item.Detail, item.Relevance)
		}
		if containsAny(q, "timeline", "time", "when") {
			event := c.Timeline[min(len(history), len(c.Timeline)-1)]
			return fmt.Sprintf("At %s, %s", event.Time, event.Event)
		}
		if containsAny(q, "motive", "why") {
			return "The motive likely ties to hidden financial pressure and a silence attempt."
		}
		if containsAny(q, "method", "how") {
			return "The method likely involved delayed gas release rather than direct violence."
		}
		if strings.Contains(q, "alibi") {
			return fmt.Sprintf("Check who benefited from the blackout window and compare with %s's movements.", killer.Name)
		}
		if len(strings.TrimSpace(question)) < 3 {
			return "Could you narrow it down to person, timeline, or evidence?"
		}
		return "Focus on the blackout window, latch behavior, and witness timing conflicts."
	}

	if containsAny(q, "犯人", "真相", "答え") {
		return "真相の断定はまだできませんが、手掛かりは共有できます。"
	}
	if mentionedOK {
		if mentioned.IsLiar {
			if liedBefore(history, mentioned.Name) {
				return fmt.Sprintf("%sは、停電中はほぼエレベーターホールにいたと言っています。", mentioned.Name)
			}
			return fmt.Sprintf("%sの証言では、被害者は10:12ごろ廊下で話していたそうです。", mentioned.Name)
		}
		trait := "特筆すべき特徴は記録されていません。"
		if len(mentioned.Traits) > 0 {
			trait = mentioned.Traits[0]
		}
		return fmt.Sprintf("%sのアリバイ主張は「%s」です。役割は%sで、特徴としては「%s」が挙げられます。",
			mentioned.Name, mentioned.Alibi, mentioned.Role, trait)
	}
	if containsAny(q, "証拠", "手掛かり", "手がかり") {
		item := c.Evidence[min(len(history), len(c.Evidence)-1)]
		return fmt.Sprintf("手掛かりは『%s』です。%s 重要性は、%s", item.Name, item.Detail, item.Relevance)
	}
	if containsAny(q, "時系列", "時間", "いつ") {
		event := c.Timeline[min(len(history), len(c.Timeline)-1)]
		return fmt.Sprintf("%sの時点で、%s", event.Time, event.Event)
	}
	if containsAny(q, "動機", "なぜ") {
		return "動機は金銭面の圧力と、発覚回避の線が濃いです。"
	}
	if containsAny(q, "手口", "方法", "どうやって") {
		return "直接的な暴行より、遅延作動型の仕掛けが疑われます。"
	}
	if strings.Contains(q, "アリバイ") {
		return fmt.Sprintf("停電の空白時間で得をする人物と、%sの移動を照合してください。", killer.Name)
	}
	if len(strings.TrimSpace(question)) < 3 {
		return "人物・時系列・証拠のどれを知りたいか絞ってください。"
	}
	return "停電のタイミング、ラッチの挙動、証言時刻の食い違いを重点的に見てください。"
}

// CheckGuess offers no judgement; the caller evaluates locally.
func (s *Scripted) CheckGuess(context.Context, mystery.Case, []QA, mystery.Guess,
	mystery.Language) (*scoring.Review, error) {
	return nil, nil
}

// NextFollowUps serves the contextual heuristic suggestions.
func (s *Scripted) NextFollowUps(_ context.Context, c mystery.Case, _ string, historyCount int,
	lang mystery.Language) ([]string, error) {
	return followup.Heuristic(c, lang, historyCount), nil
}

func mentionedCharacter(c mystery.Case, loweredQuestion string) (mystery.Character, bool) {
	for _, character := range c.Characters {
		if strings.Contains(loweredQuestion, strings.ToLower(character.Name)) {
			return character, true
		}
	}
	return mystery.Character{}, false
}

func liedBefore(history []QA, liarName string) bool {
	for _, row := range history {
		if strings.Contains(row.Answer, liarName) && strings.Contains(row.Answer, "10:12") {
			return true
		}
	}
	return false
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
