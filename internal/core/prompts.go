package core

// ragPromptTemplate grounds the model in retrieved chunks. The first %s is
// the joined retrieval context, the second is the combined history + query.
const ragPromptTemplate = `Use the following pieces of context to answer the question at the end.
If you don't know the answer based on the context, say that you don't know. Do not make up an answer.
Keep the answer concise and grounded in the context.

%s

---

Question: %s
Answer:`

// supportPrompt drives the regular (pre-escalation) classification path.
// The first %s is the recent conversation block, the second the new query.
const supportPrompt = `You are a helpful customer support assistant. Answer the user's latest message politely and concisely, using the conversation so far for context. If you cannot help with the request, say so and ask a clarifying question.

Conversation so far:
%s

User: %s
Assistant:`

// classificationPrompt drives the escalation path once a thread has grown
// past the qualification threshold. The braces are literal markers for the
// model, not format directives; the single %s is the role-tagged transcript.
const classificationPrompt = `You are a lead qualification analyst. Analyze the conversation transcript below and produce a structured assessment.

## Conversation Context
Read every turn of the transcript. Each line carries the message content and the role of its author.

## Keyword Extraction
Extract the product names, feature requests and pain points mentioned by the user. List them as {keywords}.

## Intent Recognition
Determine what the user is ultimately trying to achieve and state it as {intent}.

## Lead Qualification
Classify the lead with exactly one label from [L1-Qualified, S_JUNK, Qualified, L1-Junk] and give a one-sentence justification as {reason}.

Transcript:
%s

Respond with the keywords, the intent, the label and the reason.`
