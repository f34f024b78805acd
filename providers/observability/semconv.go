package observability

// Semantic conventions for observability attributes.
// These constants define standard attribute names to ensure consistency
// across different components of the system.

// --- LLM Provider Attributes ---

const (
	// AttrLLMProvider is the name of the LLM provider (e.g., "anthropic")
	AttrLLMProvider = "llm.provider"

	// AttrLLMModel is the model identifier
	AttrLLMModel = "llm.model"

	// AttrLLMEndpoint is the API endpoint URL
	AttrLLMEndpoint = "llm.endpoint"

	// AttrLLMResponseID is the unique response identifier from the provider
	AttrLLMResponseID = "llm.response.id"

	// AttrLLMFinishReason is the reason the generation finished
	AttrLLMFinishReason = "llm.finish_reason"

	// AttrLLMTokensTotal is the total number of tokens
	AttrLLMTokensTotal = "llm.tokens.total" // #nosec G101 -- Not a credential, token refers to LLM tokens

	// AttrLLMCallKind distinguishes free-text completions from structured extractions.
	AttrLLMCallKind = "llm.call.kind"
)

// --- Request Attributes ---

const (
	// AttrRequestMessagesCount is the number of messages in the request
	AttrRequestMessagesCount = "request.messages_count"

	// AttrRequestToolsCount is the number of tools in the request
	AttrRequestToolsCount = "request.tools_count"

	// AttrRetryAttempt is the 0-based retry attempt number
	AttrRetryAttempt = "retry.attempt"
)

// --- HTTP Attributes ---

const (
	// AttrHTTPMethod is the HTTP method (GET, POST, etc.)
	AttrHTTPMethod = "http.method"

	// AttrHTTPStatusCode is the HTTP response status code
	AttrHTTPStatusCode = "http.status_code"

	// AttrHTTPURL is the full request URL
	AttrHTTPURL = "http.url"

	// AttrHTTPRequestBodySize is the request body size in bytes
	AttrHTTPRequestBodySize = "http.request.body.size"

	// AttrHTTPResponseBodySize is the response body size in bytes
	AttrHTTPResponseBodySize = "http.response.body.size"
)

// --- Adapter Attributes ---

const (
	// AttrAdapter names the external collaborator (reddit, slack, anthropic)
	AttrAdapter = "adapter.name"

	// AttrAdapterOperation names the operation performed against the adapter
	AttrAdapterOperation = "adapter.operation"

	// AttrSourceName is the content source identifier (a subreddit)
	AttrSourceName = "source.name"

	// AttrItemCount is the number of items fetched or posted
	AttrItemCount = "items.count"
)

// --- General Attributes ---

const (
	// AttrError is the error message
	AttrError = "error"

	// AttrDuration is the operation duration
	AttrDuration = "duration"

	// AttrStatus is the operation status
	AttrStatus = "status"

	// AttrStatusDescription is the status description
	AttrStatusDescription = "status_description"

	// AttrRunID is the unique identifier of one graph run
	AttrRunID = "run.id"
)

// --- Graph Attributes ---

const (
	// AttrGraphNode is the name of the node being executed
	AttrGraphNode = "graph.node"

	// AttrGraphRouter is the source node whose router produced a decision
	AttrGraphRouter = "graph.router"

	// AttrGraphBranchIndex is the 0-based index of a fanned-out branch
	AttrGraphBranchIndex = "graph.branch.index"

	// AttrGraphBranchCount is the number of branches spawned at a fan-out
	AttrGraphBranchCount = "graph.branch.count"
)

// --- Span Names ---

const (
	// SpanClientComplete is the span name for free-text completions
	SpanClientComplete = "client.complete"

	// SpanClientExtract is the span name for structured extractions
	SpanClientExtract = "client.extract"

	// SpanRedditFetch covers one content fetch against Reddit
	SpanRedditFetch = "reddit.fetch"

	// SpanSlackPost covers one webhook delivery
	SpanSlackPost = "slack.post"

	// SpanGraphRun covers a whole graph run
	SpanGraphRun = "graph.run"

	// SpanGraphNode covers one node execution
	SpanGraphNode = "graph.node.execute"

	// SpanGraphBranch covers one fanned-out branch
	SpanGraphBranch = "graph.branch.execute"
)

// --- Event Names ---

const (
	// EventLLMRequestStart marks the start of an LLM request
	EventLLMRequestStart = "llm.request.start"

	// EventLLMRequestEnd marks the end of an LLM request
	EventLLMRequestEnd = "llm.request.end"

	// EventTokensReceived marks when tokens are received from LLM
	EventTokensReceived = "llm.tokens.received" // #nosec G101 -- Not a credential, token refers to LLM tokens
)

// --- Metric Names ---

const (
	// MetricClientRequestCount is the counter for client requests
	MetricClientRequestCount = "radar.client.request.count"

	// MetricClientRequestDuration is the histogram for request duration
	MetricClientRequestDuration = "radar.client.request.duration"

	// MetricClientTokensTotal is the counter for total tokens
	MetricClientTokensTotal = "radar.client.tokens.total"

	// MetricAdapterRequestCount counts calls to reddit and slack, by adapter and status
	MetricAdapterRequestCount = "radar.adapter.request.count"

	// MetricGraphRunCount counts graph runs, by status
	MetricGraphRunCount = "radar.graph.run.count"

	// MetricGraphNodeDuration is the histogram for node execution time
	MetricGraphNodeDuration = "radar.graph.node.duration"

	// MetricGraphBranchCount counts spawned fan-out branches
	MetricGraphBranchCount = "radar.graph.branch.count"
)
