package summarize

// SystemPrompt is sent as the system message (or system instruction for Gemini).
const SystemPrompt = "You are a helpful assistant that summarizes meeting transcripts into structured JSON format."

const promptHeader = `
You are an AI assistant that creates structured summaries from meeting transcripts.
Analyze the following meeting transcript and provide a summary in JSON format.

The summary should include:
1.  key_decisions: Array of important decisions explicitly made or clearly agreed upon during the meeting. Look for phrases like "we decided," "it's agreed that," "the consensus is," "approved," "opted for," "the final call is to," "we will proceed with."
2.  action_items: Array of specific, assignable tasks resulting directly from the meeting, including who is responsible and due dates if mentioned. These are immediate tasks with clear ownership.
3.  discussion_highlights: Array of main topics discussed or important points raised during the conversation.
4.  next_steps: Array of planned future activities, broader follow-up items, or topics for subsequent discussions that do not have immediate individual assignments or strict deadlines from this specific meeting. These represent the general progression or future agenda.
5.  attendees: Array of participant names mentioned in the transcript (extract from the conversation).

Each action_item should be an object with these fields:
-   task: string (description of the specific task)
-   assignedTo: array of strings (names of people assigned)
-   dueDate: string or null (due date if mentioned, otherwise null)

Transcript:
`

const promptFooter = `

Respond ONLY with valid JSON, no additional text or explanation.
`

// BuildPrompt returns the user prompt for a transcript.
func BuildPrompt(transcript string) string {
	return promptHeader + transcript + promptFooter
}
