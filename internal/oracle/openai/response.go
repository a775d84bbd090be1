package openai

import (
	"encoding/json"
	"fmt"

	"ndaredline/internal/oracle"
)

// Output item types of the Responses API that this client distinguishes.
const (
	ItemMessage        = "message"
	ItemFileSearchCall = "file_search_call"
	ItemReasoning      = "reasoning"
)

// ErrNoMessage means the response carried no message item with text.
var ErrNoMessage = oracle.ErrNoMessage

// OutputItem is one decoded entry of a response's output list.
type OutputItem interface {
	ItemType() string
}

// ContentPart is one element of a message's content list.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type MessageItem struct {
	ID      string        `json:"id"`
	Role    string        `json:"role"`
	Status  string        `json:"status"`
	Content []ContentPart `json:"content"`
}

func (MessageItem) ItemType() string { return ItemMessage }

type FileSearchCallItem struct {
	ID      string   `json:"id"`
	Status  string   `json:"status"`
	Queries []string `json:"queries"`
}

func (FileSearchCallItem) ItemType() string { return ItemFileSearchCall }

type ReasoningItem struct {
	ID string `json:"id"`
}

func (ReasoningItem) ItemType() string { return ItemReasoning }

// UnknownItem keeps any item whose type is not modelled, or whose body did
// not match its declared type.
type UnknownItem struct {
	Type string
	Raw  json.RawMessage
}

func (u UnknownItem) ItemType() string { return u.Type }

// APIError is the error object embedded in a failed response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Response is a decoded Responses API payload.
type Response struct {
	ID     string
	Status string
	Error  *APIError
	Output []OutputItem
}

func (r *Response) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID     string            `json:"id"`
		Status string            `json:"status"`
		Error  *APIError         `json:"error"`
		Output []json.RawMessage `json:"output"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	r.ID, r.Status, r.Error = wire.ID, wire.Status, wire.Error
	r.Output = make([]OutputItem, 0, len(wire.Output))
	for _, raw := range wire.Output {
		r.Output = append(r.Output, decodeItem(raw))
	}
	return nil
}

func decodeItem(raw json.RawMessage) OutputItem {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return UnknownItem{Raw: raw}
	}
	var (
		item OutputItem
		err  error
	)
	switch head.Type {
	case ItemMessage:
		var m MessageItem
		err = json.Unmarshal(raw, &m)
		item = m
	case ItemFileSearchCall:
		var f FileSearchCallItem
		err = json.Unmarshal(raw, &f)
		item = f
	case ItemReasoning:
		var rs ReasoningItem
		err = json.Unmarshal(raw, &rs)
		item = rs
	default:
		return UnknownItem{Type: head.Type, Raw: raw}
	}
	if err != nil {
		return UnknownItem{Type: head.Type, Raw: raw}
	}
	return item
}

// ExtractText returns the text of the first message item whose content list
// is non-empty and whose first element carries text.
func ExtractText(items []OutputItem) (string, error) {
	for _, it := range items {
		m, ok := it.(MessageItem)
		if !ok || len(m.Content) == 0 {
			continue
		}
		if m.Content[0].Text != "" {
			return m.Content[0].Text, nil
		}
	}
	return "", ErrNoMessage
}

// Text extracts the answer from the response, describing the response state
// when there is none.
func (r *Response) Text() (string, error) {
	text, err := ExtractText(r.Output)
	if err == nil {
		return text, nil
	}
	if r.Error != nil {
		return "", fmt.Errorf("%w: response %s %s: %s", err, r.Status, r.Error.Code, r.Error.Message)
	}
	return "", fmt.Errorf("%w: response status %q with %d output items", err, r.Status, len(r.Output))
}
