package models

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/linkdrop/internal/common"
)

// Payload is the JSON body carried over the transport for one post.
type Payload struct {
	ConversationID string      `json:"conversation_id"`
	RootID         string      `json:"root_id"`
	Kind           MessageKind `json:"kind"`
	URL            string      `json:"url,omitempty"`
	Note           string      `json:"note,omitempty"`
	Timestamp      int64       `json:"timestamp"`
}

// Validate enforces the per-kind shape: a root needs an http(s) URL, a reply
// needs a non-empty note and must not carry a URL.
func (p Payload) Validate() error {
	if p.ConversationID == "" {
		return fmt.Errorf("%w: conversation_id", common.ErrEmptyField)
	}
	switch p.Kind {
	case KindRoot:
		return ValidateHTTPURL(p.URL)
	case KindReply:
		if p.RootID == "" {
			return fmt.Errorf("%w: root_id", common.ErrEmptyField)
		}
		if strings.TrimSpace(p.Note) == "" {
			return fmt.Errorf("%w: note", common.ErrEmptyField)
		}
		if p.URL != "" {
			return fmt.Errorf("%w: reply must not carry a url", common.ErrValidation)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %q", common.ErrValidation, p.Kind)
	}
}

func (p Payload) Marshal() ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(p)
}

// ParsePayload decodes and validates a payload received from the transport.
func ParsePayload(b []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(b, &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	return p, p.Validate()
}

// ValidateHTTPURL accepts absolute http and https URLs with a host.
func ValidateHTTPURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%w: url", common.ErrEmptyField)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", common.ErrInvalidURL, raw)
	}
	return nil
}
