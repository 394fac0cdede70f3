package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/ngotes/internal/model"
)

func TestBool_Unmarshal(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want bool
		err  bool
	}{
		{in: `true`, want: true},
		{in: `false`, want: false},
		{in: `"true"`, want: true},
		{in: `"false"`, want: false},
		{in: `1`, want: true},
		{in: `0`, want: false},
		{in: `"yes"`, err: true},
		{in: `2`, err: true},
		{in: `{}`, err: true},
	}
	for _, tc := range cases {
		var b Bool
		err := json.Unmarshal([]byte(tc.in), &b)
		if tc.err {
			require.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, bool(b), tc.in)
	}
}

func TestNoteBody_PresenceAndNull(t *testing.T) {
	t.Parallel()

	var b NoteBody
	require.NoError(t, json.Unmarshal([]byte(`{"content":null,"pinned":"true"}`), &b))
	in := b.Input()
	require.Nil(t, in.Title)
	require.Nil(t, in.Content)
	require.NotNil(t, in.Pinned)
	require.True(t, *in.Pinned)

	back := BodyFromInput(in)
	raw, err := json.Marshal(back)
	require.NoError(t, err)
	require.JSONEq(t, `{"pinned":true}`, string(raw))
}

func TestEnvelope_EmptyListEncodesAsArray(t *testing.T) {
	t.Parallel()

	notes := []model.Note{}
	raw, err := json.Marshal(Envelope{Status: StatusSuccess, Timestamp: 5, Data: &notes})
	require.NoError(t, err)
	require.JSONEq(t, `{"status":1,"timestamp":5,"data":[]}`, string(raw))

	raw, err = json.Marshal(Envelope{Status: StatusFailure, Timestamp: 5, Message: "x"})
	require.NoError(t, err)
	require.JSONEq(t, `{"status":0,"timestamp":5,"message":"x"}`, string(raw))
}

func TestEnvelope_NoteOwnerNeverEncoded(t *testing.T) {
	t.Parallel()

	notes := []model.Note{{ID: "n1", Owner: "secret-owner", Title: "t", Created: 1, LastModified: 1}}
	raw, err := json.Marshal(Envelope{Status: StatusSuccess, Data: &notes})
	require.NoError(t, err)
	require.NotContains(t, string(raw), "secret-owner")
	require.NotContains(t, string(raw), "owner")

	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	require.True(t, env.OK())
	require.Len(t, env.Notes(), 1)
	require.Equal(t, "n1", env.Notes()[0].ID)
}
