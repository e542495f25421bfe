package summary

import (
	"fmt"
	"strings"
)

// AgentProfile is the fixed persona handed to the model for one stage.
type AgentProfile struct {
	Role           string
	Goal           string
	Backstory      string
	ExpectedOutput string
}

// SystemInstruction renders the profile as a system prompt.
func (p AgentProfile) SystemInstruction() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are acting as: %s.\n", p.Role)
	fmt.Fprintf(&sb, "Your goal: %s.\n", p.Goal)
	sb.WriteString(p.Backstory)
	sb.WriteString("\n\nExpected output: ")
	sb.WriteString(p.ExpectedOutput)
	return sb.String()
}

// AnalystProfile drives the analysis stage.
func AnalystProfile() AgentProfile {
	return AgentProfile{
		Role:           "Senior Financial News Analyst",
		Goal:           "Analyze the supplied financial news data and identify the most significant points",
		Backstory:      "You are an experienced financial analyst. You do not search for news yourself; you work only from the raw data you are given and extract the key insights from it.",
		ExpectedOutput: "A structured report of bullet points covering the most important news and insights.",
	}
}

// WriterProfile drives the writing and translation stage.
func WriterProfile() AgentProfile {
	return AgentProfile{
		Role:           "Expert Financial Analyst and Multilingual Writer",
		Goal:           "Turn the analyst report into a concise public market summary and translate it into Arabic, Hindi and Hebrew",
		Backstory:      "You write clear, engaging market commentary for a general audience and are fluent in English, Arabic, Hindi and Hebrew.",
		ExpectedOutput: "One text block with the English summary first, followed by the three translations under their headings.",
	}
}
