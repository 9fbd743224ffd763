package server

import (
	"encoding/json"

	"go.lsp.dev/jsonrpc2"
)

// Method names.  Paths are kinded paths ("a.b[0]"), "" for the root.
const (
	MethodGet         = "get"
	MethodSet         = "set"
	MethodAssign      = "assign"
	MethodDelete      = "delete"
	MethodPush        = "push"
	MethodSplice      = "splice"
	MethodSubscribe   = "subscribe"
	MethodUnsubscribe = "unsubscribe"

	// NotifyChange is sent by the server for each change seen by a
	// subscription.
	NotifyChange = "change"
)

// CodeMutation is the error code of rejected mutations.
const CodeMutation jsonrpc2.Code = -32000

type PathParams struct {
	Path string `json:"path"`
}

type ValueParams struct {
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value"`
}

type PushParams struct {
	Path   string            `json:"path"`
	Values []json.RawMessage `json:"values"`
}

type SpliceParams struct {
	Path        string            `json:"path"`
	Start       int               `json:"start"`
	DeleteCount int               `json:"deleteCount"`
	Values      []json.RawMessage `json:"values,omitempty"`
}

type SubscribeParams struct {
	Path    string `json:"path"`
	Shallow bool   `json:"shallow,omitempty"`
}

type SubscribeResult struct {
	ID string `json:"id"`
}

type UnsubscribeParams struct {
	ID string `json:"id"`
}

// ValueResult carries a value.  An undefined value is left out.
type ValueResult struct {
	Value json.RawMessage `json:"value,omitempty"`
}

type SpliceResult struct {
	Removed []json.RawMessage `json:"removed"`
}

// ChangeParams are the params of a change notification.  Path leads
// from the subscribed location to the changed one; Value and PrevValue
// are left out when undefined.
type ChangeParams struct {
	ID        string          `json:"id"`
	Path      []string        `json:"path"`
	Value     json.RawMessage `json:"value,omitempty"`
	PrevValue json.RawMessage `json:"prevValue,omitempty"`
}
