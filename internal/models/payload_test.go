package models

import (
	"testing"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/stretchr/testify/require"
)

func TestPayload_Validate(t *testing.T) {
	tests := []struct {
		name    string
		p       Payload
		wantErr error
	}{
		{name: "root ok", p: Payload{ConversationID: "c", RootID: "", Kind: KindRoot, URL: "https://example.org/a"}},
		{name: "root http ok", p: Payload{ConversationID: "c", Kind: KindRoot, URL: "http://example.org"}},
		{name: "root with note ok", p: Payload{ConversationID: "c", Kind: KindRoot, URL: "https://e.org", Note: "look"}},
		{name: "root missing url", p: Payload{ConversationID: "c", Kind: KindRoot}, wantErr: common.ErrEmptyField},
		{name: "root ftp", p: Payload{ConversationID: "c", Kind: KindRoot, URL: "ftp://e.org/x"}, wantErr: common.ErrInvalidURL},
		{name: "root relative", p: Payload{ConversationID: "c", Kind: KindRoot, URL: "/path"}, wantErr: common.ErrInvalidURL},
		{name: "reply ok", p: Payload{ConversationID: "c", RootID: "r", Kind: KindReply, Note: "nice"}},
		{name: "reply blank note", p: Payload{ConversationID: "c", RootID: "r", Kind: KindReply, Note: "  "}, wantErr: common.ErrEmptyField},
		{name: "reply with url", p: Payload{ConversationID: "c", RootID: "r", Kind: KindReply, Note: "n", URL: "https://e.org"}, wantErr: common.ErrValidation},
		{name: "reply no root", p: Payload{ConversationID: "c", Kind: KindReply, Note: "n"}, wantErr: common.ErrEmptyField},
		{name: "no conversation", p: Payload{Kind: KindRoot, URL: "https://e.org"}, wantErr: common.ErrEmptyField},
		{name: "unknown kind", p: Payload{ConversationID: "c", Kind: "poll"}, wantErr: common.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestParsePayload(t *testing.T) {
	in := Payload{ConversationID: "c", RootID: "r", Kind: KindReply, Note: "hi", Timestamp: 42}
	b, err := in.Marshal()
	require.NoError(t, err)
	require.JSONEq(t, `{"conversation_id":"c","root_id":"r","kind":"reply","note":"hi","timestamp":42}`, string(b))

	out, err := ParsePayload(b)
	require.NoError(t, err)
	require.Equal(t, in, out)

	_, err = ParsePayload([]byte(`{`))
	require.ErrorIs(t, err, common.ErrValidation)
}
