// Package records defines the case events read from the RECORTES store and
// the decoding of their legacy-encoded metadata.
package records

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
)

// Sentinel errors for metadata decoding.
var (
	ErrEmptyMetadata      = errors.New("metadata is empty")
	ErrMalformed          = errors.New("metadata is not valid JSON")
	ErrMissingCaseID      = errors.New("metadata has no idProcesso")
	ErrMissingResponsible = errors.New("metadata has no coordenacao")
)

// CaseEvent is one pending row of work. Instances are never mutated after
// fetch; only their store-side status changes.
type CaseEvent struct {
	ID             string    // ID_LAWSYSTEM, task identifier used for write-back
	CaseNumber     string    // PROCESSO, display only
	Header         string    // CABECALHO
	DivergenceDate time.Time // DATA_DIV
	RawMetadata    []byte    // METADADOS in code page 850
}

// Metadata is the structured content of RawMetadata.
type Metadata struct {
	InternalCaseID      string
	ResponsiblePartyKey string
}

type wireMetadata struct {
	IDProcesso  flexString `json:"idProcesso"`
	Coordenacao flexString `json:"coordenacao"`
}

// flexString accepts a JSON string or number. LawSystem exports idProcesso
// as a number on older rows.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

// DecodeLegacy converts code page 850 bytes to UTF-8.
func DecodeLegacy(raw []byte) (string, error) {
	out, err := charmap.CodePage850.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode cp850: %w", err)
	}
	return string(out), nil
}

// EncodeLegacy converts UTF-8 text to code page 850. Used by fixtures and
// the replay store.
func EncodeLegacy(s string) ([]byte, error) {
	out, err := charmap.CodePage850.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encode cp850: %w", err)
	}
	return out, nil
}

// DecodeMetadata decodes the event's raw metadata and extracts the fields
// the processor needs.
func (e CaseEvent) DecodeMetadata() (Metadata, error) {
	return DecodeMetadata(e.RawMetadata)
}

// DecodeMetadata decodes raw code page 850 JSON metadata.
func DecodeMetadata(raw []byte) (Metadata, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Metadata{}, ErrEmptyMetadata
	}
	text, err := DecodeLegacy(raw)
	if err != nil {
		return Metadata{}, err
	}

	var w wireMetadata
	if err := json.Unmarshal([]byte(text), &w); err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &keys); err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	md := Metadata{
		InternalCaseID:      strings.TrimSpace(string(w.IDProcesso)),
		ResponsiblePartyKey: string(w.Coordenacao),
	}
	if md.InternalCaseID == "" {
		return Metadata{}, ErrMissingCaseID
	}
	// A blank or null coordenacao is a lookup miss, not a decode failure.
	if _, ok := keys["coordenacao"]; !ok {
		return Metadata{}, ErrMissingResponsible
	}
	return md, nil
}
