package tcp

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/panjf2000/gnet/v2"
)

// Collections resolves a collection name to the store operations this
// protocol exposes. cmd/server wires this to internal/collection.Store
// per configured collection.
type Collections interface {
	Get(collection string, docID uint64) ([]byte, error)
	Put(collection string, docID uint64, value []byte) error
	Delete(collection string, docID uint64) error
	Exists(collection string, docID uint64) bool
	Stats(collection string) (any, bool)
}

var errUnknownCollection = errors.New("tcp: unknown collection")

// Server accepts connections and dispatches framed requests to
// Collections. Grounded directly on
// oldsrc/internal/adapter/tcp/server.go's PomaiServer: a gnet
// event-loop acceptor rather than one goroutine per connection.
// OnTraffic is handed gnet's accumulated read buffer (not a blocking
// io.Reader), so it loops consuming as many complete frames as the
// buffer currently holds, exactly the way PomaiServer.OnTraffic peels
// frames off with HeaderSize/keyLen/valLen arithmetic before calling
// Discard; only this protocol's header layout changed (magic, version,
// opcode, collection name, docID, value) from the original's
// magic/opcode/keyLen/valLen.
type Server struct {
	gnet.BuiltinEventEngine

	addr        string
	collections Collections

	eng     gnet.Engine
	started atomic.Bool
}

// NewServer builds a TCP adapter listening on addr once Serve is called.
func NewServer(addr string, collections Collections) *Server {
	return &Server{addr: addr, collections: collections}
}

// Serve blocks running the gnet event loop until ctx is canceled or
// Close is called.
func (s *Server) Serve(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- gnet.Run(s, "tcp://"+s.addr,
			gnet.WithMulticore(true),
			gnet.WithReusePort(true),
			gnet.WithTCPKeepAlive(time.Minute),
		)
	}()

	select {
	case <-ctx.Done():
		s.Close()
		return <-done
	case err := <-done:
		return err
	}
}

// Close stops the event engine, waiting out any in-flight requests.
func (s *Server) Close() error {
	if !s.started.Load() {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.eng.Stop(ctx)
}

// OnBoot records the running engine so Close/Serve can stop it later.
func (s *Server) OnBoot(eng gnet.Engine) gnet.Action {
	s.eng = eng
	s.started.Store(true)
	log.Printf("[tcp] listening on %s", s.addr)
	return gnet.None
}

// OnTraffic decodes every complete frame currently buffered for c,
// dispatches each to Collections, and writes the response inline
// before moving to the next frame. Partial frames are left in the
// buffer for the next OnTraffic call once more bytes arrive.
func (s *Server) OnTraffic(c gnet.Conn) gnet.Action {
	buf, err := c.Peek(-1)
	if err != nil {
		return gnet.Close
	}

	processed := 0
	for len(buf) >= headerSize {
		if buf[0] != magicByte {
			return gnet.Close
		}

		collLen := int(buf[3])
		docID := beUint64(buf[4:12])
		valLen := int(beUint32(buf[12:16]))
		frameLen := headerSize + collLen + valLen

		if len(buf) < frameLen {
			break
		}

		collection := string(buf[headerSize : headerSize+collLen])
		value := append([]byte(nil), buf[headerSize+collLen:frameLen]...)
		req := Request{Opcode: Opcode(buf[2]), Collection: collection, DocID: docID, Value: value}

		s.writeResponse(c, s.dispatch(req))

		buf = buf[frameLen:]
		processed += frameLen
	}

	if processed > 0 {
		c.Discard(processed)
	}
	return gnet.None
}

func (s *Server) writeResponse(c gnet.Conn, resp Response) {
	frame := make([]byte, 5+len(resp.Value))
	frame[0] = resp.Status
	putUint32(frame[1:5], uint32(len(resp.Value)))
	copy(frame[5:], resp.Value)
	c.AsyncWrite(frame, nil)
}

func (s *Server) dispatch(req Request) Response {
	switch req.Opcode {
	case OpGet:
		body, err := s.collections.Get(req.Collection, req.DocID)
		if err != nil {
			return errorResponse(err)
		}
		return Response{Status: StatusOK, Value: body}

	case OpSet:
		if err := s.collections.Put(req.Collection, req.DocID, req.Value); err != nil {
			return errorResponse(err)
		}
		return Response{Status: StatusOK}

	case OpDel:
		if err := s.collections.Delete(req.Collection, req.DocID); err != nil {
			return errorResponse(err)
		}
		return Response{Status: StatusOK}

	case OpExists:
		exists := s.collections.Exists(req.Collection, req.DocID)
		if exists {
			return Response{Status: StatusOK, Value: []byte{1}}
		}
		return Response{Status: StatusOK, Value: []byte{0}}

	case OpStats:
		stats, ok := s.collections.Stats(req.Collection)
		if !ok {
			return Response{Status: StatusNotFound}
		}
		encoded, err := encodeStats(stats)
		if err != nil {
			return Response{Status: StatusServerError}
		}
		return Response{Status: StatusOK, Value: encoded}

	default:
		return Response{Status: StatusInvalidRequest}
	}
}

func errorResponse(err error) Response {
	if errors.Is(err, errUnknownCollection) {
		return Response{Status: StatusNotFound}
	}
	// internal/collection's ErrNotFound and ErrEmptyKey also map to
	// StatusNotFound; anything else is a server error.
	if isNotFound(err) {
		return Response{Status: StatusNotFound}
	}
	return Response{Status: StatusServerError}
}
