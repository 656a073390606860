// Package filetransfer implements the file channel's sender and receiver
// state machines: stop-and-wait delivery with
// per-chunk ACKs, SHA-256 end-to-end verification, and recursive folder
// transfer.
package filetransfer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	uuid "github.com/satori/go.uuid"

	"github.com/linkchat/linkchat"
	"github.com/linkchat/linkchat/dispatch"
	"github.com/linkchat/linkchat/internal/applog"
)

var log = applog.Get("filetransfer")

// DefaultChunkSize is the recommended chunk size: 1000-1200
// bytes, default 1200.
const DefaultChunkSize = 1200

// DefaultAckTimeout is the per-attempt stop-and-wait timeout.
const DefaultAckTimeout = time.Second

// DefaultAckRetries is the max attempts per chunk before giving up.
const DefaultAckRetries = 5

type ackKey struct {
	id  [16]byte
	seq uint32
}

// Sender implements the per-transfer stop-and-wait state machine
// described below.
type Sender struct {
	disp *dispatch.Dispatcher

	ChunkSize  int
	AckTimeout time.Duration
	AckRetries int

	mu      sync.Mutex
	waiters map[ackKey]chan ethernet.HardwareAddr
}

// NewSender returns a Sender over disp with the default chunk size, ack
// timeout and retry count. It registers its own ACK handler on
// the file channel; the dispatcher must already be running (or be
// Started shortly after).
func NewSender(disp *dispatch.Dispatcher) *Sender {
	s := &Sender{
		disp:       disp,
		ChunkSize:  DefaultChunkSize,
		AckTimeout: DefaultAckTimeout,
		AckRetries: DefaultAckRetries,
		waiters:    make(map[ackKey]chan ethernet.HardwareAddr),
	}
	disp.RegisterChannelHandler(ethernet.ChannelFile, s.onFileFrame)
	return s
}

func (s *Sender) onFileFrame(src ethernet.HardwareAddr, header ethernet.AppHeader) {
	if header.Type != ethernet.MsgAck {
		return
	}
	key := ackKey{id: header.ID, seq: header.Seq}

	s.mu.Lock()
	ch, ok := s.waiters[key]
	s.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- src:
	default:
	}
}

func newTransferID() ([16]byte, error) {
	u := uuid.NewV4()
	var id [16]byte
	copy(id[:], u.Bytes())
	return id, nil
}

// SendFile transmits the local file at path to dest. An
// empty dest resolves to broadcast, in which case ACK waiting is skipped
// entirely since broadcast ACK semantics are unreliable by design.
func (s *Sender) SendFile(ctx context.Context, dest ethernet.HardwareAddr, path string) error {
	return s.sendFileAs(ctx, dest, path, filepath.Base(path))
}

// sendFileAs transmits the local file at path to dest, announcing it on
// the wire under wireName rather than path's own basename. SendFolder
// uses this to carry a file's full relative path (slash-separated) so
// the receiver can reconstruct the directory tree instead of flattening
// every transferred file into one directory.
func (s *Sender) sendFileAs(ctx context.Context, dest ethernet.HardwareAddr, path, wireName string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	broadcast := dest.IsEmpty() || dest.IsBroadcast()
	if broadcast {
		dest = ethernet.BroadcastAddr
	}

	id, err := newTransferID()
	if err != nil {
		return err
	}

	startPayload := fmt.Sprintf("%s|%d", wireName, info.Size())
	if err := s.sendControl(dest, ethernet.MsgFileStart, 0, id, startPayload); err != nil {
		return fmt.Errorf("filetransfer: send FILE_START: %w", err)
	}

	hasher := sha256.New()
	buf := make([]byte, s.chunkSize())
	var seq uint32 = 1
	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			hasher.Write(chunk)
			if err := s.sendChunk(ctx, dest, id, seq, chunk, broadcast); err != nil {
				return err
			}
			seq++
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("filetransfer: read %s: %w", path, readErr)
		}
	}

	hash := hex.EncodeToString(hasher.Sum(nil))
	if err := s.sendControl(dest, ethernet.MsgFileEnd, seq, id, hash); err != nil {
		return fmt.Errorf("filetransfer: send FILE_END: %w", err)
	}
	return nil
}

func (s *Sender) chunkSize() int {
	if s.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return s.ChunkSize
}

func (s *Sender) ackTimeout() time.Duration {
	if s.AckTimeout <= 0 {
		return DefaultAckTimeout
	}
	return s.AckTimeout
}

func (s *Sender) ackRetries() int {
	if s.AckRetries <= 0 {
		return DefaultAckRetries
	}
	return s.AckRetries
}

func (s *Sender) sendControl(dest ethernet.HardwareAddr, msgType byte, seq uint32, id [16]byte, payload string) error {
	pkt, err := ethernet.EncodeApp(msgType, ethernet.ChannelFile, seq, id[:], []byte(payload))
	if err != nil {
		return err
	}
	return s.disp.Send(dest, pkt)
}

// sendChunk transmits one FILE_CHUNK and, unless broadcast, waits for its
// ACK, sending the chunk at most AckRetries times in total.
func (s *Sender) sendChunk(ctx context.Context, dest ethernet.HardwareAddr, id [16]byte, seq uint32, payload []byte, broadcast bool) error {
	pkt, err := ethernet.EncodeApp(ethernet.MsgFileChunk, ethernet.ChannelFile, seq, id[:], payload)
	if err != nil {
		return err
	}

	if broadcast {
		return s.disp.Send(dest, pkt)
	}

	key := ackKey{id: id, seq: seq}
	ackCh := make(chan ethernet.HardwareAddr, 1)
	s.mu.Lock()
	s.waiters[key] = ackCh
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.waiters, key)
		s.mu.Unlock()
	}()

	for attempt := 0; attempt < s.ackRetries(); attempt++ {
		if err := s.disp.Send(dest, pkt); err != nil {
			return fmt.Errorf("%w: %v", ErrTransferAborted, err)
		}

		timer := time.NewTimer(s.ackTimeout())
	wait:
		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case src := <-ackCh:
				if src.Compare(dest) {
					timer.Stop()
					return nil
				}
				// ACK from an unexpected source: keep waiting within the
				// same attempt's budget rather than consuming a retry.
				continue wait
			case <-timer.C:
				break wait
			}
		}
	}
	return fmt.Errorf("%w: chunk seq=%d", ErrAckTimeout, seq)
}

// SendFolder recursively walks root and replays its structure on the
// wire: a DIR marker (START immediately followed by an empty-chunk END)
// for the root and every subdirectory, then a normal file transfer for
// every regular file, named by its path relative to root's parent.
// Relative paths always use "/" on the wire regardless of host OS.
func (s *Sender) SendFolder(ctx context.Context, dest ethernet.HardwareAddr, root string) error {
	base := filepath.Base(root)
	var files [][2]string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		wirePath := folderWirePath(base, rel)
		if info.IsDir() {
			return s.sendDirMarker(dest, wirePath)
		}
		files = append(files, [2]string{path, wirePath})
		return nil
	})
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := s.sendFileAs(ctx, dest, f[0], f[1]); err != nil {
			return err
		}
	}
	return nil
}

// folderWirePath joins a folder transfer's root name with an entry's
// path relative to that root, always using "/" on the wire.
func folderWirePath(base, rel string) string {
	if rel == "." {
		return base
	}
	return base + "/" + filepath.ToSlash(rel)
}

func (s *Sender) sendDirMarker(dest ethernet.HardwareAddr, wirePath string) error {
	id, err := newTransferID()
	if err != nil {
		return err
	}
	payload := fmt.Sprintf("DIR:%s|0", wirePath)
	if err := s.sendControl(dest, ethernet.MsgFileStart, 0, id, payload); err != nil {
		return fmt.Errorf("filetransfer: send DIR START: %w", err)
	}
	if err := s.sendControl(dest, ethernet.MsgFileEnd, 1, id, ""); err != nil {
		return fmt.Errorf("filetransfer: send DIR END: %w", err)
	}
	return nil
}
