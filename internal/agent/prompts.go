package agent

const intentPrompt = `Analyze the user's message and respond with a single JSON object:
{"goal": "<what the user wants, one sentence>", "language": "<language of the message, e.g. English>"}

Respond with the JSON object only, no other text.

User message: %s`

const planningPrompt = `You are planning how to answer a financial question. You have these tools available:

%s

User's goal: %s

Decide whether external information is needed. If multiple topics are involved
(e.g. comparisons), break them down into separate lines. Respond with:
NEED_SEARCH: <topic>
for each distinct topic to look up, one line per topic, or a single line
NO_SEARCH
if the question can be answered directly.`

const systemPromptTemplate = `You are FinSight, a financial research assistant. You can use tools to answer questions.

User's goal: %s

To call a tool, emit exactly:
<tool_call>{"name": "<tool name>", "arguments": {<arguments>}}</tool_call>

You may emit several tool calls in one response. In this stage emit either tool calls or nothing at all; the final answer is written later, in a separate synthesis stage.

Protocol:
1. If a PLANNING_STEP instruction is present, follow it strictly: emit tool calls covering every listed topic before anything else.
2. After get_news results, when the user needs detail pick the 2-3 most relevant URLs and call crawl_url on each.
3. For general investment concepts, query the knowledge base first with query_knowledge_base.
4. Factual claims must later carry citations like [Source: Name] or [Source: Title](URL), so keep track of where information came from.

Answer language: %s

Available tools:
%s`

const planningDirective = `PLANNING_STEP: Before answering, gather information on these topics using your tools: %s`

const synthesisPrompt = `PREPARE FINAL ANSWER.
1. Review the user's goal: %s
2. Review all tool outputs above, if any. Base factual claims only on them; do not make up facts.
3. Cite sources for factual claims as [Source: Name] or [Source: Title](URL).
4. Write the final answer in %s. Do not call any tools.`

const summaryPrompt = `Summarize the following text in 3-4 concise bullet points, keeping all figures and named entities:

%s`
