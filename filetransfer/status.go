package filetransfer

import "fmt"

// Status is the tagged, user-visible outcome of a transfer event
// Internal code passes Status values around; String is the
// only place the exact wire-facing strings are produced.
type Status struct {
	kind string
	seq  uint32
	msg  string
}

func statusStarted() Status               { return Status{kind: "started"} }
func statusChunk(seq uint32) Status       { return Status{kind: "chunk", seq: seq} }
func statusCompleted() Status             { return Status{kind: "completed"} }
func statusFinished() Status              { return Status{kind: "finished"} }
func statusHashMismatch() Status          { return Status{kind: "finished_hash_mismatch"} }
func statusError(msg string) Status       { return Status{kind: "error", msg: msg} }

// String renders the exact user-visible status strings.
func (s Status) String() string {
	switch s.kind {
	case "chunk":
		return fmt.Sprintf("chunk:%d", s.seq)
	case "error":
		return fmt.Sprintf("error:%s", s.msg)
	default:
		return s.kind
	}
}
