package types

// RoutingDecisionRecord is a routing decision flattened for DynamoDB persistence
type RoutingDecisionRecord struct {
	ConversationID   string   `json:"conversationId" dynamodbav:"ConversationID"` // partition key
	DecisionID       string   `json:"decisionId" dynamodbav:"DecisionID"`         // sort key
	MessageID        string   `json:"messageId" dynamodbav:"MessageID"`
	Intent           string   `json:"intent" dynamodbav:"Intent"`
	Confidence       float64  `json:"confidence" dynamodbav:"Confidence"`
	NeedHandoff      bool     `json:"needHandoff" dynamodbav:"NeedHandoff"`
	SuggestHandoff   bool     `json:"suggestHandoff" dynamodbav:"SuggestHandoff"`
	HandoffReason    string   `json:"handoffReason" dynamodbav:"HandoffReason"`
	AIResponse       string   `json:"aiResponse" dynamodbav:"AIResponse"`
	ToolsUsed        []string `json:"toolsUsed" dynamodbav:"ToolsUsed"`
	ProcessingTimeMs int      `json:"processingTimeMs" dynamodbav:"ProcessingTimeMs"`
	DecidedAt        string   `json:"decidedAt" dynamodbav:"DecidedAt"` // RFC3339
}

// HandoffRecord is a resolved handoff entry flattened for DynamoDB persistence
type HandoffRecord struct {
	DateKey         string   `json:"dateKey" dynamodbav:"DateKey"`               // YYYY-MM-DD (partition key)
	ConversationID  string   `json:"conversationId" dynamodbav:"ConversationID"` // sort key
	Priority        int      `json:"priority" dynamodbav:"Priority"`
	Reason          string   `json:"reason" dynamodbav:"Reason"`
	Tags            []string `json:"tags" dynamodbav:"Tags"`
	AssignedToStaff string   `json:"assignedToStaff" dynamodbav:"AssignedToStaff"`
	EnqueuedAt      string   `json:"enqueuedAt" dynamodbav:"EnqueuedAt"`   // RFC3339
	AssignedAt      string   `json:"assignedAt" dynamodbav:"AssignedAt"`   // RFC3339
	ResolvedAt      string   `json:"resolvedAt" dynamodbav:"ResolvedAt"`   // RFC3339
	WaitTimeSeconds int      `json:"waitTimeSeconds" dynamodbav:"WaitTimeSeconds"`
}
