package ai

// SystemPrompt primes every completion call. It is deliberately short: the
// assistant's behavior, not its persona, is what the backend cares about.
const SystemPrompt = `You are a helpful, knowledgeable AI assistant.

Guidelines:
- Answer clearly and directly; prefer plain language over jargon.
- When a question is ambiguous, state your interpretation before answering.
- Admit uncertainty instead of guessing.
- Keep answers focused on the user's question and prior conversation.`

// titleSystemPrompt frames the summarization call used for auto-titling.
const titleSystemPrompt = "You are a helpful assistant that creates short, concise chat titles."

// titlePrompt is the user-turn template for title generation. The model is
// asked to return only the title; cleanTitle still defends against chatter.
const titlePrompt = `Generate a concise, descriptive title (3-6 words maximum) for a chat conversation based on the user's first message.

Rules:
- Maximum 6 words
- Capture the main topic or question
- Use title case (capitalize major words)
- Be specific and clear
- No punctuation except hyphens if needed
- Return ONLY the title, nothing else

User's first message: %s

Title:`
