package service

import (
	"fmt"
	"strings"

	"virusbreach/internal/model"
)

// Prompt builders for the narrator. Each returns a (system, user) pair for one
// chat-completions call; the system prompt carries the persona and the legal
// reference material the narrator draws on.

const legalReference = `Republic Act No. 10175 — Cybercrime Prevention Act of 2012

SECTION 4. CYBERCRIME OFFENSES:
(a) Against confidentiality/integrity/availability: Illegal Access (intentional access to a computer system without right), Data Interference, Misuse of Devices.
(b) Computer-related: Forgery, Fraud (unauthorized input/alteration/deletion of data causing damage), Identity Theft (acquisition/use/misuse of another person's identifying information without right).
(c) Content-related: Cybersex, Child Pornography (per RA 9775), Unsolicited Commercial Communications, Cyber Libel (Art. 355 RPC committed through a computer system).
SECTION 5: Aiding, abetting and attempt are punishable.
SECTION 6: RPC/special-law crimes committed through ICT carry a penalty one degree higher.

ENFORCEMENT BODIES: PNP Anti-Cybercrime Group (ACG), NBI Cybercrime Division, DOJ Office of Cybercrime, National Privacy Commission (NPC, for Data Privacy Act violations).

Related laws: RA 10173 (Data Privacy Act), RA 9995 (Anti-Photo and Video Voyeurism), RA 9262 (Anti-VAWC, covers online threats/harassment), RA 11313 (Safe Spaces Act, gender-based online harassment).`

func systemPrompt() string {
	return `You are the Virus Breach narrator — a sharp, witty cybercrime scenario host for a classroom game about the Philippine Cybercrime Prevention Act (RA 10175).

PERSONA:
- You are NOT a teacher. You are a dramatic storyteller who knows Philippine cybercrime law inside and out.
- Dry humor, dramatic flair, zero tolerance for vague answers.
- Grudging respect for genuinely good responses.
- Dark humor is fine, but keep it classroom-appropriate (Filipino college students).
- Reference specific RA 10175 sections accurately when relevant.

LEGAL REFERENCE MATERIAL:

` + legalReference + `

CRITICAL: Always respond with valid JSON only. No markdown code fences, no backticks, no explanation outside the JSON object.`
}

var difficultyGuide = map[model.Difficulty]string{
	model.DifficultyEasy:   "Common, relatable situation. The correct response should be somewhat obvious. Think: everyday social media or phone scenarios that any student might encounter.",
	model.DifficultyMedium: "Requires specific knowledge of proper channels, authorities, or specific RA 10175 sections. The situation is less straightforward and has multiple angles to consider.",
	model.DifficultyHard:   "Complex multi-victim scenario with ambiguous elements. Requires a nuanced, multi-step response. May involve conflicting priorities or ethical gray areas.",
}

func buildScenarioPrompt(difficulty model.Difficulty, topic string, previousTopics []string) (string, string) {
	previousList := ""
	if len(previousTopics) > 0 {
		previousList = "\nPreviously used scenario topics (DO NOT repeat these themes): " + strings.Join(previousTopics, ", ")
	}

	user := fmt.Sprintf(`Generate a %s cybercrime scenario about %q for Filipino college students to respond to.

DIFFICULTY GUIDE: %s
%s

The scenario should:
- Be 2-4 sentences long
- Present a realistic situation a Filipino college student might encounter
- Require the player to decide what to do (not just identify the crime)
- Be written in second person ("You discover...", "Your friend sends you...")
- Feel urgent and specific, not generic

Respond with this exact JSON format:
{"text": "The scenario text here...", "topic": %q}`,
		difficulty, topic, difficultyGuide[difficulty], previousList, topic)

	return systemPrompt(), user
}

func buildOutcomePrompt(scenarioText, teamName, answer string) (string, string) {
	var judging string
	if answer == model.NoResponseMarker || strings.TrimSpace(answer) == "" {
		judging = `This team submitted NO response. Roast them for their silence — they froze under pressure. Be dramatic about their inaction and what consequences unfold because nobody stepped up. Rating: "bad".`
	} else {
		judging = `STEP 1 — CLASSIFY the answer. Pick exactly one:
A) PASSIVE/USELESS: doing nothing, ignoring it, "just chill", or any advice that leaves the victim unhelped. -> Rating MUST be "bad".
B) TROLL/GIBBERISH: random text, joke, meme, or clearly not a real attempt. -> Rating MUST be "bad".
C) WRONG APPROACH: suggests something illegal, harmful, or that makes things worse (e.g. "hack them back"). -> Rating MUST be "bad".
D) VAGUE BUT RIGHT DIRECTION: mentions reporting or seeking help but gives no specifics. -> Rating: "partial".
E) GOOD: names a specific authority (PNP Anti-Cybercrime Group, NBI Cybercrime Division, NPC, platform report), cites a law, or takes concrete steps to protect the victim. -> Rating: "good".

STEP 2 — NARRATE the outcome as a story playing out in the scenario world:
- Describe what ACTUALLY HAPPENED as a result of their choice, weaving in what they did (paraphrased) so the audience understands why this outcome unfolded.
- A/B/C -> narrate the fallout of their inaction or bad move; the victim suffers, the situation escalates.
- D -> narrate a partial win; their instinct helped but vagueness left gaps.
- E -> narrate a satisfying resolution, weaving in the relevant RA 10175 section naturally.

2-3 sentences max. Cinematic consequence scene.`
	}

	user := fmt.Sprintf(`SCENARIO: %q

TEAM %q LITERALLY WROTE THIS EXACT RESPONSE: %q

CRITICAL RULE: You MUST judge ONLY what the team ACTUALLY WROTE above. Do NOT invent or assume what they meant to do. Do NOT give them credit for actions they did not describe.

%s

Respond with this exact JSON format:
{"text": "The narrative outcome...", "rating": "good"}`,
		scenarioText, teamName, answer, judging)

	return systemPrompt(), user
}

func buildPickWinnerPrompt(scenarioText string, teams []TeamOutcome) (string, string) {
	var blocks []string
	for _, t := range teams {
		blocks = append(blocks, fmt.Sprintf("- Team ID: %q | Team Name: %q\n  Answer: %q\n  Outcome: %q\n  Rating: %s",
			t.TeamID, t.TeamName, t.Answer, t.OutcomeText, t.Rating))
	}

	user := fmt.Sprintf(`SCENARIO: %q

TEAM RESPONSES AND OUTCOMES:

%s

Compare all teams and pick 1-2 WINNERS based on these criteria (in priority order):
1. SPECIFICITY — concrete actions, not vague generalities
2. LEGAL AWARENESS — correct RA 10175 section or proper authority
3. VICTIM PROTECTION — prioritizes warning/protecting affected parties
4. PRACTICALITY — steps that would actually work in the real world
5. COMPLETENESS — addresses multiple angles of the problem

If ALL responses were bad or no one submitted, return empty winners.

IMPORTANT: Use the EXACT team IDs provided above. Do NOT invent team IDs.
In the reasoning field, refer to teams by their Team Name (virus name), NOT by team ID.

Respond with this exact JSON format:
{"winnerTeamIds": ["team-0"], "reasoning": "Brief 1-2 sentence explanation of why this team won."}`,
		scenarioText, strings.Join(blocks, "\n\n"))

	return systemPrompt(), user
}

func buildTauntPrompt(teams []TauntTeam, winnerIDs []string, roundNumber int) (string, string) {
	won := make(map[string]bool, len(winnerIDs))
	for _, id := range winnerIDs {
		won[id] = true
	}

	var blocks, winners, losers []string
	for _, t := range teams {
		status := "LOST this round"
		if won[t.TeamID] {
			status = "WINNER this round"
			winners = append(winners, t.VirusName)
		} else {
			losers = append(losers, t.VirusName)
		}
		snippet := t.Answer
		if len(snippet) > 80 {
			snippet = snippet[:80]
		}
		blocks = append(blocks, fmt.Sprintf("- Virus: %q (Team ID: %q) — %s\n  Their answer snippet: %q",
			t.VirusName, t.TeamID, status, snippet))
	}
	winnerNames := strings.Join(winners, ", ")
	if winnerNames == "" {
		winnerNames = "none"
	}
	loserNames := strings.Join(losers, ", ")
	if loserNames == "" {
		loserNames = "none"
	}

	user := fmt.Sprintf(`Round %d just ended. Winners: %s. Losers: %s.

Generate a short taunt from each virus mascot directed AT THE OTHER TEAM(S).

TEAMS:
%s

TAUNT RULES:
- Each virus speaks IN FIRST PERSON ("I", "my", "we") — NEVER refer to yourself in third person
- WINNING virus: pick ONE loser to specifically mock by name. Don't list all losers.
- LOSING virus: pick ONE winner to grudgingly address by name. Don't list all winners.
- Do NOT use your own virus name in the taunt — you ARE that virus
- Keep it FUNNY and CLASSROOM-APPROPRIATE — friendly trash talk, not mean-spirited
- 1-2 sentences max. Reference their answer if it was funny or dumb.

CRITICAL: The JSON KEY is the SPEAKING virus's team ID. The taunt is directed AT a specific opponent, not at yourself.

Respond with this exact JSON format:
{"team-0": "The virus taunt here...", "team-1": "Another taunt..."}`,
		roundNumber, winnerNames, loserNames, strings.Join(blocks, "\n"))

	return systemPrompt(), user
}

func buildSummaryPrompt(teams []SummaryTeam, history []*model.Round) (string, string) {
	var teamBlocks []string
	for _, t := range teams {
		teamBlocks = append(teamBlocks, fmt.Sprintf("- Team %q (ID: %q): %d points", t.VirusName, t.TeamID, t.Points))
	}

	var historyBlocks []string
	for i, round := range history {
		var answers []string
		for teamID, answer := range round.Answers {
			rating := "unknown"
			if outcome, ok := round.Outcomes[teamID]; ok {
				rating = outcome.Rating
			}
			if len(answer) > 60 {
				answer = answer[:60]
			}
			answers = append(answers, fmt.Sprintf("    %s: %q (%s)", teamID, answer, rating))
		}
		winners := strings.Join(round.Winners, ", ")
		if winners == "" {
			winners = "none"
		}
		difficulty := model.Difficulty("Unknown")
		if round.Scenario != nil {
			difficulty = round.Scenario.Difficulty
		}
		historyBlocks = append(historyBlocks, fmt.Sprintf("  Round %d (%s): Winners: %s\n%s",
			i+1, difficulty, winners, strings.Join(answers, "\n")))
	}

	user := fmt.Sprintf(`THE GAME IS OVER. Generate a final summary for each team.

FINAL SCORES:
%s

ROUND HISTORY:
%s

For each team, write:
1. A 2-3 sentence roast-style summary of their performance across all rounds. Be dramatic and funny.
2. A cybersecurity rating. Choose from: "Digital Fortress", "Cyber Sentinel", "Firewall Apprentice", "Needs a Firewall", "Walking Vulnerability", "Script Kiddie"

Higher-scoring teams get more flattering ratings. Zero-point teams get brutally (but humorously) rated.

IMPORTANT: Use the EXACT team IDs as JSON keys.

Respond with this exact JSON format:
{"team-0": {"summary": "The roast summary...", "rating": "Cyber Sentinel"}, "team-1": {"summary": "...", "rating": "..."}}`,
		strings.Join(teamBlocks, "\n"), strings.Join(historyBlocks, "\n\n"))

	return systemPrompt(), user
}
