// Package filestate decides what happens to an input document once its OCR
// pipeline has run: rename it after the extracted fields, or quarantine it with a
// failure prefix. Decisions are pure; callers perform the filesystem work and
// report the rename outcome back through AfterRename.
package filestate

import (
	"fmt"
	"strings"

	"github.com/jackzampolin/notas/internal/extract"
)

// State is a document's position in the processing lifecycle.
type State string

const (
	Pending      State = "pending"
	Recognized   State = "recognized"
	OCRFailed    State = "ocr_failed"
	Named        State = "named"
	Unnamed      State = "unnamed"
	Renamed      State = "renamed"
	RenameFailed State = "rename_failed"
	Quarantined  State = "quarantined"
)

// Terminal reports whether no further transition leaves s.
func (s State) Terminal() bool {
	return s == Renamed || s == Quarantined
}

// DefaultFailedPrefix marks quarantined documents.
const DefaultFailedPrefix = "FALHOU - "

// MsgNoName is logged when no customer name could be extracted.
const MsgNoName = "Arquivo sem nome"

// MsgNoText is logged when OCR finished without error but produced no text.
const MsgNoText = "OCR sem texto"

// LogKind selects the log a transition is recorded in.
type LogKind int

const (
	LogNone LogKind = iota
	LogSuccess
	LogFailure
)

func (k LogKind) String() string {
	switch k {
	case LogSuccess:
		return "success"
	case LogFailure:
		return "failure"
	default:
		return "none"
	}
}

// Outcome is what the pipeline knows about a document after recognition.
type Outcome struct {
	File   string
	Text   string
	Err    error // rasterization or OCR failure
	Fields extract.Fields
}

// Transition is the decided fate of one document.
type Transition struct {
	File    string  `json:"file" yaml:"file"`
	Target  string  `json:"target" yaml:"target"`
	State   State   `json:"state" yaml:"state"`
	Path    []State `json:"path" yaml:"path"`
	Log     LogKind `json:"-" yaml:"-"`
	Message string  `json:"message,omitempty" yaml:"message,omitempty"`
	Text    string  `json:"-" yaml:"-"`
}

// Machine holds the naming rules shared by every decision.
type Machine struct {
	FailedPrefix string
}

// New returns a Machine using prefix for quarantined names, or
// DefaultFailedPrefix when prefix is empty.
func New(prefix string) Machine {
	if prefix == "" {
		prefix = DefaultFailedPrefix
	}
	return Machine{FailedPrefix: prefix}
}

// QuarantineName is the name a failed document is renamed to.
func (m Machine) QuarantineName(file string) string {
	return m.FailedPrefix + file
}

// TargetName is the name a successfully extracted document is renamed to.
// Absent numbers render as empty segments.
func TargetName(f extract.Fields) string {
	return fmt.Sprintf("%s - Nota %s - Pedido %s.pdf", f.Customer, f.Invoice, f.Order)
}

// Decide maps a recognition outcome to the next transition. The result is
// terminal unless it is Named, in which case the caller attempts the rename and
// passes the error to AfterRename.
func (m Machine) Decide(o Outcome) Transition {
	t := Transition{File: o.File, Text: o.Text, Path: []State{Pending}}

	switch {
	case o.Err != nil:
		return m.quarantine(t, o.Err.Error(), OCRFailed)
	case strings.TrimSpace(o.Text) == "":
		return m.quarantine(t, MsgNoText, OCRFailed)
	}

	t.Path = append(t.Path, Recognized)
	if !o.Fields.HasCustomer() {
		return m.quarantine(t, MsgNoName, Unnamed)
	}

	t.Path = append(t.Path, Named)
	t.State = Named
	t.Target = TargetName(o.Fields)
	t.Log = LogSuccess
	return t
}

// AfterRename completes a Named transition with the result of the rename.
func (m Machine) AfterRename(t Transition, err error) Transition {
	if t.State != Named {
		return t
	}
	t.Path = append([]State(nil), t.Path...)
	if err != nil {
		return m.quarantine(t, err.Error(), RenameFailed)
	}
	t.Path = append(t.Path, Renamed)
	t.State = Renamed
	return t
}

func (m Machine) quarantine(t Transition, msg string, via State) Transition {
	t.Path = append(t.Path, via, Quarantined)
	t.State = Quarantined
	t.Target = m.QuarantineName(t.File)
	t.Log = LogFailure
	t.Message = msg
	return t
}
