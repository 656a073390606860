package filetransfer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/linkchat/linkchat"
	"github.com/linkchat/linkchat/dispatch"
)

// EventHandler receives status notifications for inbound transfers
// (the user-visible status set).
type EventHandler func(src ethernet.HardwareAddr, id [16]byte, status Status)

// Receiver implements the receiver-side file channel state machine
// plus the transfer registry. All frame handling runs on the
// dispatcher's single receive goroutine, so Receiver itself needs no
// locking beyond what registry already provides.
type Receiver struct {
	disp        *dispatch.Dispatcher
	receiveRoot string
	handler     EventHandler

	reg *registry
}

// NewReceiver returns a Receiver rooted at receiveRoot (inbound files and
// DIR markers are materialized under it). It registers its own handler on
// the file channel; the dispatcher must already be running (or be
// Started shortly after).
func NewReceiver(disp *dispatch.Dispatcher, receiveRoot string) *Receiver {
	r := &Receiver{
		disp:        disp,
		receiveRoot: receiveRoot,
		reg:         newRegistry(),
	}
	disp.RegisterChannelHandler(ethernet.ChannelFile, r.onFileFrame)
	return r
}

// OnEvent registers the handler invoked for every status transition.
func (r *Receiver) OnEvent(h EventHandler) {
	r.handler = h
}

// Stop closes every open file handle and clears the transfer registry,
// closing every open handle.
func (r *Receiver) Stop() {
	r.reg.closeAll()
}

func (r *Receiver) notify(src ethernet.HardwareAddr, id [16]byte, status Status) {
	if r.handler != nil {
		r.handler(src, id, status)
	}
}

func (r *Receiver) onFileFrame(src ethernet.HardwareAddr, header ethernet.AppHeader) {
	switch header.Type {
	case ethernet.MsgFileStart:
		r.handleStart(src, header)
	case ethernet.MsgFileChunk:
		r.handleChunk(src, header)
	case ethernet.MsgFileEnd:
		r.handleEnd(src, header)
	}
}

func (r *Receiver) handleStart(src ethernet.HardwareAddr, header ethernet.AppHeader) {
	if old, ok := r.reg.get(header.ID); ok {
		if old.file != nil {
			old.file.Close()
		}
		r.reg.delete(header.ID)
	}

	name, size, isDir, err := parseStartPayload(string(header.Payload))
	if err != nil {
		r.notify(src, header.ID, statusError(err.Error()))
		return
	}

	if isDir {
		dirPath := filepath.Join(r.receiveRoot, filepath.FromSlash(name))
		if err := os.MkdirAll(dirPath, 0o755); err != nil {
			r.notify(src, header.ID, statusError(fmt.Sprintf("mkdir %s: %v", name, err)))
			return
		}
		r.reg.put(header.ID, &inboundTransfer{path: dirPath, isDir: true})
		r.notify(src, header.ID, statusStarted())
		return
	}

	outPath, err := uniqueOutputPath(r.receiveRoot, filepath.FromSlash(name))
	if err != nil {
		r.notify(src, header.ID, statusError(err.Error()))
		return
	}
	f, err := os.Create(outPath)
	if err != nil {
		r.notify(src, header.ID, statusError(fmt.Sprintf("create %s: %v", outPath, err)))
		return
	}

	r.reg.put(header.ID, &inboundTransfer{path: outPath, file: f, expected: size})
	r.notify(src, header.ID, statusStarted())
}

func (r *Receiver) handleChunk(src ethernet.HardwareAddr, header ethernet.AppHeader) {
	t, ok := r.reg.get(header.ID)
	if !ok {
		return
	}

	if t.haveAcked && header.Seq == t.lastAckedSeq {
		r.ackChunk(src, header.ID, header.Seq)
		return
	}

	if t.file != nil {
		if _, err := t.file.Write(header.Payload); err != nil {
			t.file.Close()
			r.reg.delete(header.ID)
			r.notify(src, header.ID, statusError(fmt.Sprintf("write: %v", err)))
			return
		}
		t.received += int64(len(header.Payload))
	}
	t.lastAckedSeq = header.Seq
	t.haveAcked = true

	// On completion the file is closed but the entry stays registered so
	// the following FILE_END can verify the hash.
	if t.expected > 0 && t.received >= t.expected && t.file != nil {
		t.file.Close()
		t.file = nil
		r.ackChunk(src, header.ID, header.Seq)
		r.notify(src, header.ID, statusCompleted())
		return
	}

	r.ackChunk(src, header.ID, header.Seq)
}

func (r *Receiver) ackChunk(src ethernet.HardwareAddr, id [16]byte, seq uint32) {
	pkt, err := ethernet.EncodeApp(ethernet.MsgAck, ethernet.ChannelFile, seq, id[:], nil)
	if err != nil {
		log.Debugf("filetransfer: encode ACK: %v", err)
		return
	}
	if err := r.disp.Send(src, pkt); err != nil {
		log.Debugf("filetransfer: send ACK to %s failed: %v", src, err)
	}
}

func (r *Receiver) handleEnd(src ethernet.HardwareAddr, header ethernet.AppHeader) {
	t, ok := r.reg.get(header.ID)
	if !ok {
		return
	}
	r.reg.delete(header.ID)

	if t.isDir {
		// DIR marker's closing END: nothing to verify, directory already
		// created on handleStart.
		return
	}

	if t.file != nil {
		t.file.Close()
	}

	actual, err := hashFile(t.path)
	if err != nil {
		r.notify(src, header.ID, statusError(fmt.Sprintf("hash %s: %v", t.path, err)))
		return
	}

	want := strings.TrimSpace(string(header.Payload))
	if actual == want {
		r.notify(src, header.ID, statusFinished())
	} else {
		r.notify(src, header.ID, statusHashMismatch())
	}
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func parseStartPayload(payload string) (name string, size int64, isDir bool, err error) {
	if strings.HasPrefix(payload, "DIR:") {
		rest := strings.TrimPrefix(payload, "DIR:")
		parts := strings.SplitN(rest, "|", 2)
		return parts[0], 0, true, nil
	}

	parts := strings.SplitN(payload, "|", 2)
	if len(parts) != 2 {
		return "", 0, false, fmt.Errorf("malformed FILE_START payload %q", payload)
	}
	size, convErr := strconv.ParseInt(parts[1], 10, 64)
	if convErr != nil {
		return "", 0, false, fmt.Errorf("malformed FILE_START size %q: %w", parts[1], convErr)
	}
	return parts[0], size, false, nil
}

// uniqueOutputPath finds a collision-free path under root for relPath,
// which may carry directory components (reconstructing the sender's
// folder layout); any missing parent directories are created, the
// "recv_" prefix is applied to the leaf filename only, and _1, _2, ...
// is appended to the leaf on collision.
func uniqueOutputPath(root, relPath string) (string, error) {
	dir, leaf := filepath.Split(relPath)
	leaf = "recv_" + leaf
	outDir := filepath.Join(root, dir)
	if dir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", outDir, err)
		}
	}

	candidate := filepath.Join(outDir, leaf)
	if _, err := os.Stat(candidate); os.IsNotExist(err) {
		return candidate, nil
	}

	ext := filepath.Ext(leaf)
	stem := strings.TrimSuffix(leaf, ext)
	for i := 1; ; i++ {
		candidate = filepath.Join(outDir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
		if i > 10000 {
			return "", fmt.Errorf("could not find a unique name for %s", relPath)
		}
	}
}
