package contract

// Role tags one side of the conversation with the model.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleTool  Role = "tool"
)

// PersonaType selects which system instructions and model settings apply
// to an oracle exchange.
type PersonaType string

const (
	PersonaPlanner   PersonaType = "planner"
	PersonaExecutor  PersonaType = "executor"
	PersonaValidator PersonaType = "validator"
)

// Reserved tool names the orchestration core treats specially. Invoking
// them communicates intent instead of performing work.
const (
	ToolSignalTaskComplete = "signal_task_complete"
	ToolAskUserForInput    = "ask_user_for_input"
)

// FunctionCall is a structured request from the model naming a registered
// tool and its arguments.
type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// FunctionResponse carries a tool's normalized result back to the model.
type FunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response,omitempty"`
}

// Part is a tagged variant: exactly one of Text, FunctionCall, or
// FunctionResponse is set. Unknown fields in persisted parts are ignored
// on load for forward compatibility.
type Part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"function_call,omitempty"`
	FunctionResponse *FunctionResponse `json:"function_response,omitempty"`
}

func TextPart(text string) Part {
	return Part{Text: text}
}

func CallPart(name string, args map[string]any) Part {
	return Part{FunctionCall: &FunctionCall{Name: name, Args: args}}
}

func ResponsePart(name string, response map[string]any) Part {
	return Part{FunctionResponse: &FunctionResponse{Name: name, Response: response}}
}

// Turn is one role-tagged unit of conversation.
//
// Invariants: a tool turn contains only FunctionResponse parts; an agent
// turn carrying FunctionCall parts is followed, before any new user turn,
// by a tool turn with one response per call, in call order.
type Turn struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// CallRequests returns the function calls in the turn, in part order.
func (t Turn) CallRequests() []FunctionCall {
	var calls []FunctionCall
	for _, p := range t.Parts {
		if p.FunctionCall != nil {
			calls = append(calls, *p.FunctionCall)
		}
	}
	return calls
}

// TextContent joins the text parts of the turn with single spaces.
func (t Turn) TextContent() string {
	var out string
	for _, p := range t.Parts {
		if p.Text == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p.Text
	}
	return out
}

// ToolResult is the uniform envelope every tool invocation is normalized
// into before it is written back as a FunctionResponse.
type ToolResult struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// AsResponse renders the envelope as a FunctionResponse payload.
func (r ToolResult) AsResponse() map[string]any {
	return map[string]any{
		"success": r.Success,
		"data":    r.Data,
	}
}

// ValidationVerdict is the validator's judgment of one executor attempt.
type ValidationVerdict struct {
	IsSuccessful bool   `json:"is_successful"`
	Reasoning    string `json:"reasoning"`
	Suggestion   string `json:"suggestion"`
}

// ParamType names the JSON schema type of a tool parameter.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamNumber  ParamType = "number"
	ParamInteger ParamType = "integer"
	ParamBoolean ParamType = "boolean"
	ParamArray   ParamType = "array"
)

// ParamSpec describes one declared tool parameter. Array parameters carry
// string elements.
type ParamSpec struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
}

// ToolSpec is one entry of the capability table the registry exposes to
// the oracle.
type ToolSpec struct {
	Name        string
	Description string
	Params      []ParamSpec
}
