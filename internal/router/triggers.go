package router

import "strings"

// Trigger topics produced by the keyword detectors. Each maps to one
// knowledge partition; the detectors exist for backward compatibility with
// the older trigger mechanism and take priority over every other routing
// rule.
const (
	TopicDecision       = "decision"
	TopicSessionHistory = "session_history"
	TopicBestPractice   = "best_practice"
)

var decisionPhrases = []string{
	"why did we",
	"why do we",
	"why was",
	"decided",
	"decision",
	"chose",
	"trade-off",
	"tradeoff",
}

var sessionHistoryPhrases = []string{
	"last session",
	"previous session",
	"last time",
	"where did we leave",
	"left off",
	"continue from",
	"what were we",
	"resume",
}

var bestPracticePhrases = []string{
	"best practice",
	"best practices",
	"convention",
	"guideline",
	"style guide",
	"idiomatic",
	"standard way",
}

// DetectDecisionIntent reports whether the message asks about a past
// decision or its rationale.
func DetectDecisionIntent(message string) (string, bool) {
	return matchPhrases(message, TopicDecision, decisionPhrases)
}

// DetectSessionHistoryIntent reports whether the message refers to earlier
// sessions.
func DetectSessionHistoryIntent(message string) (string, bool) {
	return matchPhrases(message, TopicSessionHistory, sessionHistoryPhrases)
}

// DetectBestPracticeIntent reports whether the message asks about
// conventions or guidelines.
func DetectBestPracticeIntent(message string) (string, bool) {
	return matchPhrases(message, TopicBestPractice, bestPracticePhrases)
}

func matchPhrases(message, topic string, phrases []string) (string, bool) {
	lower := strings.ToLower(message)
	for _, phrase := range phrases {
		if strings.Contains(lower, phrase) {
			return topic, true
		}
	}
	return "", false
}
