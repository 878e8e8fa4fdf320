package main

import (
	"log"
	"os"

	"harvest-advisor/internal/interfaces"
	"harvest-advisor/internal/llm/groq"
	"harvest-advisor/internal/llm/llmobs"
	"harvest-advisor/internal/llm/rule"
	"harvest-advisor/internal/store"
)

// buildBackends selects the reasoning and supervisor backends from config. A
// GROQ provider without a key degrades to the deterministic rule backend so a
// run always produces a session.
func buildBackends(cfg *store.Config) (interfaces.Reasoner, interfaces.SupervisorJudge) {
	if cfg.LLM.Provider == "GROQ" {
		if os.Getenv("GROQ_API_KEY") != "" {
			c := groq.NewClient(cfg)
			return llmobs.WrapReasoner(c), llmobs.WrapJudge(c)
		}
		log.Println("GROQ_API_KEY not set; using rule backend")
	}
	b := rule.NewBackend()
	return llmobs.WrapReasoner(b), llmobs.WrapJudge(b)
}
