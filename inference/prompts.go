package inference

import "fmt"

const critiqueTemplate = `You are an expert assistant analyzing the user's original prompt and the provided initial answer.
Your goal is to give clear, constructive, and concise feedback that will guide improvement.

Original Prompt:
%s

Initial Answer:
%s

Instructions:
- Provide a high-quality critique that focuses on how this answer could be improved.
- Be concise and to the point.
- Highlight key areas that need correction, clarification, or further detail.
- Do not rewrite or provide the full answer; focus only on providing feedback.`

const refineTemplate = `You are an expert assistant refining the previous answer based on new feedback.

Original Prompt:
%s

Previous Answer:
%s

Feedback (Critique):
%s

Instructions:
- Incorporate the provided feedback to enhance correctness, clarity, and completeness.
- Maintain relevance to the original prompt.
- Produce a revised answer that is improved in quality.`

const ratingTemplate = `You are an expert assistant evaluating the quality of the improved answer.

Original Prompt:
%s

Improved Answer:
%s

Instructions:
- Assign a rating from 0 to 100, where 0 is completely inadequate and 100 is a perfect response.
- Provide a concise justification (1-3 sentences) explaining your rating.
- Clearly output your final numeric rating on its own line at the end.`

func critiquePrompt(prompt, answer string) string {
	return fmt.Sprintf(critiqueTemplate, prompt, answer)
}

func refinePrompt(prompt, answer, feedback string) string {
	return fmt.Sprintf(refineTemplate, prompt, answer, feedback)
}

func ratingPrompt(prompt, answer string) string {
	return fmt.Sprintf(ratingTemplate, prompt, answer)
}
