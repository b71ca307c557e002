package records

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEncode(t *testing.T, s string) []byte {
	t.Helper()
	b, err := EncodeLegacy(s)
	require.NoError(t, err)
	return b
}

func TestDecodeMetadata(t *testing.T) {
	t.Run("string id and accented key", func(t *testing.T) {
		raw := mustEncode(t, `{"idProcesso":"9981","coordenacao":"Coordenação Cível"}`)

		md, err := DecodeMetadata(raw)
		require.NoError(t, err)
		assert.Equal(t, "9981", md.InternalCaseID)
		assert.Equal(t, "Coordenação Cível", md.ResponsiblePartyKey)
	})

	t.Run("numeric id", func(t *testing.T) {
		raw := mustEncode(t, `{"idProcesso": 120034, "coordenacao":"Trabalhista"}`)

		md, err := DecodeMetadata(raw)
		require.NoError(t, err)
		assert.Equal(t, "120034", md.InternalCaseID)
	})

	t.Run("cp850 bytes differ from utf-8", func(t *testing.T) {
		raw := mustEncode(t, "ç")
		assert.Equal(t, []byte{0x87}, raw)
	})
}

func TestDecodeMetadata_BlankResponsible(t *testing.T) {
	for _, raw := range []string{
		`{"idProcesso":1,"coordenacao":""}`,
		`{"idProcesso":1,"coordenacao":null}`,
	} {
		md, err := DecodeMetadata(mustEncode(t, raw))
		require.NoError(t, err, raw)
		assert.Equal(t, "1", md.InternalCaseID)
		assert.Empty(t, md.ResponsiblePartyKey)
	}
}

func TestDecodeMetadata_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{name: "empty", raw: "  ", want: ErrEmptyMetadata},
		{name: "not json", raw: "idProcesso=1", want: ErrMalformed},
		{name: "no case id", raw: `{"coordenacao":"X"}`, want: ErrMissingCaseID},
		{name: "null case id", raw: `{"idProcesso":null,"coordenacao":"X"}`, want: ErrMissingCaseID},
		{name: "no responsible", raw: `{"idProcesso":"1"}`, want: ErrMissingResponsible},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMetadata([]byte(tt.raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, err := DecodeMetadata([]byte(`{"idProcesso":{"x":1},"coordenacao":"X"}`))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestCaseEvent_DecodeMetadata(t *testing.T) {
	ev := CaseEvent{ID: "55", RawMetadata: mustEncode(t, `{"idProcesso":"7","coordenacao":"Tributário"}`)}
	md, err := ev.DecodeMetadata()
	require.NoError(t, err)
	assert.Equal(t, Metadata{InternalCaseID: "7", ResponsiblePartyKey: "Tributário"}, md)
}
