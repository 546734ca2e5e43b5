package api

import (
	"context"
	"encoding/json"
	"net/http"
)

type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message string     `json:"message"`
	History []ChatTurn `json:"history,omitempty"`
}

type ChatReply struct {
	Reply           string `json:"reply"`
	Recommendations []Book `json:"recommendations"`
}

func (r *ChatReply) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	r.Reply = pickText(m, "", "reply", "response", "message")
	r.Recommendations = []Book{}
	if raw, ok := pick(m, "recommendations", "books"); ok && isArray(raw) {
		var books []Book
		if err := json.Unmarshal(raw, &books); err == nil {
			r.Recommendations = books
		}
	}
	return nil
}

type Identification struct {
	Match         *Book   `json:"match,omitempty"`
	Alternatives  []Book  `json:"alternatives"`
	Confidence    float64 `json:"confidence"`
	ExtractedText string  `json:"extracted_text,omitempty"`
}

func (id *Identification) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*id = Identification{Alternatives: []Book{}}
	if raw, ok := pick(m, "match", "book"); ok && isObject(raw) {
		var b Book
		if err := json.Unmarshal(raw, &b); err == nil && !b.ID.IsZero() {
			id.Match = &b
		}
	}
	if raw, ok := pick(m, "alternatives", "matches", "books"); ok && isArray(raw) {
		var books []Book
		if err := json.Unmarshal(raw, &books); err == nil {
			id.Alternatives = books
		}
	}
	if raw, ok := pick(m, "confidence"); ok {
		var n Number
		_ = json.Unmarshal(raw, &n)
		id.Confidence = n.Float()
	}
	id.ExtractedText = pickText(m, "", "extracted_text", "text")
	if id.Match == nil && len(id.Alternatives) > 0 {
		first := id.Alternatives[0]
		id.Match = &first
		id.Alternatives = id.Alternatives[1:]
	}
	return nil
}

func (c *Client) Recommend(ctx context.Context, token string, in ChatRequest) (*ChatReply, error) {
	var res ChatReply
	if err := c.Do(ctx, http.MethodPost, "/ai/recommend", &res, WithToken(token), WithBody(in)); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) IdentifyBook(ctx context.Context, token string, image File) (*Identification, error) {
	image.Field = "image"
	var res Identification
	if err := c.Upload(ctx, "/ai/identify-book", token, nil, []File{image}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
