// Package injection implements the progressive context injection engine.
//
// The engine turns candidate retrieval results into a token-bounded,
// deduplicated, priority-ordered block of text at two moments in a
// conversation: conversation bootstrap (Tier 1, fixed budget) and each
// subsequent user turn (Tier 2, adaptive budget). The adaptive budget
// combines retrieval quality, result density, and topic drift; a greedy
// selector then fills it with whole candidates, never truncating any.
//
// Every runtime failure degrades to injecting less, or nothing: a turn
// with a failed retrieval is indistinguishable from one where no relevant
// prior knowledge existed.
package injection
