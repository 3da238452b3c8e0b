//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package otf2

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gvallee/mpi2otf2/pkg/errors"
)

// EventKind is the type of an event record
type EventKind string

const (
	Enter              EventKind = "ENTER"
	Leave              EventKind = "LEAVE"
	MpiSend            EventKind = "MPI_SEND"
	MpiRecv            EventKind = "MPI_RECV"
	MpiIsend           EventKind = "MPI_ISEND"
	MpiIsendComplete   EventKind = "MPI_ISEND_COMPLETE"
	MpiIrecvRequest    EventKind = "MPI_IRECV_REQUEST"
	MpiIrecv           EventKind = "MPI_IRECV"
	MpiCollectiveBegin EventKind = "MPI_COLLECTIVE_BEGIN"
	MpiCollectiveEnd   EventKind = "MPI_COLLECTIVE_END"
)

// Event is one record of an event file. Only the fields of its kind are set:
//   - Enter, Leave: Region
//   - MpiSend, MpiIsend: Peer (receiver), Comm, Tag, Bytes and Request for MpiIsend
//   - MpiRecv, MpiIrecv: Peer (sender), Comm, Tag, Bytes and Request for MpiIrecv
//   - MpiIsendComplete, MpiIrecvRequest: Request
//   - MpiCollectiveEnd: Collective, Comm, Root, Sent, Received
//
// Peers are MPI_COMM_WORLD ranks. Roots are ranks of the communicator of
// the collective, -1 when the collective has no root.
type Event struct {
	Kind       EventKind
	Time       uint64
	Region     uint32
	Peer       int
	Comm       int64
	Tag        int
	Bytes      int64
	Request    int64
	Collective string
	Root       int
	Sent       int64
	Received   int64
}

func (e *Event) fields() []string {
	t := strconv.FormatUint(e.Time, 10)
	switch e.Kind {
	case Enter, Leave:
		return []string{string(e.Kind), t, fmt.Sprint(e.Region)}
	case MpiSend, MpiRecv:
		return []string{string(e.Kind), t, fmt.Sprint(e.Peer), fmt.Sprint(e.Comm), fmt.Sprint(e.Tag), fmt.Sprint(e.Bytes)}
	case MpiIsend, MpiIrecv:
		return []string{string(e.Kind), t, fmt.Sprint(e.Peer), fmt.Sprint(e.Comm), fmt.Sprint(e.Tag), fmt.Sprint(e.Bytes), fmt.Sprint(e.Request)}
	case MpiIsendComplete, MpiIrecvRequest:
		return []string{string(e.Kind), t, fmt.Sprint(e.Request)}
	case MpiCollectiveBegin:
		return []string{string(e.Kind), t}
	case MpiCollectiveEnd:
		return []string{string(e.Kind), t, e.Collective, fmt.Sprint(e.Comm), fmt.Sprint(e.Root), fmt.Sprint(e.Sent), fmt.Sprint(e.Received)}
	}
	return nil
}

// String returns the line of the event in an event file
func (e *Event) String() string {
	return strings.Join(e.fields(), " ")
}

func parseInts(tokens []string, dst ...*int64) error {
	if len(tokens) != len(dst) {
		return fmt.Errorf("expected %d values, got %d", len(dst), len(tokens))
	}
	for i, t := range tokens {
		v, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return err
		}
		*dst[i] = v
	}
	return nil
}

// ParseEvent parses a line of an event file
func ParseEvent(line string) (*Event, error) {
	tokens := strings.Fields(line)
	if len(tokens) < 2 {
		return nil, fmt.Errorf("invalid event %q", line)
	}
	e := &Event{Kind: EventKind(tokens[0])}
	var err error
	e.Time, err = strconv.ParseUint(tokens[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp in %q: %w", line, err)
	}

	args := tokens[2:]
	var region, peer, tag, root int64
	switch e.Kind {
	case Enter, Leave:
		err = parseInts(args, &region)
		e.Region = uint32(region)
	case MpiSend, MpiRecv:
		err = parseInts(args, &peer, &e.Comm, &tag, &e.Bytes)
	case MpiIsend, MpiIrecv:
		err = parseInts(args, &peer, &e.Comm, &tag, &e.Bytes, &e.Request)
	case MpiIsendComplete, MpiIrecvRequest:
		err = parseInts(args, &e.Request)
	case MpiCollectiveBegin:
		err = parseInts(args)
	case MpiCollectiveEnd:
		if len(args) == 0 {
			return nil, fmt.Errorf("invalid event %q", line)
		}
		e.Collective = args[0]
		err = parseInts(args[1:], &e.Comm, &root, &e.Sent, &e.Received)
	default:
		return nil, fmt.Errorf("unknown event kind %s", e.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid event %q: %w", line, err)
	}
	e.Peer = int(peer)
	e.Tag = int(tag)
	e.Root = int(root)
	return e, nil
}

// EventWriter writes the event file of a location
type EventWriter struct {
	Location uint64
	path     string
	f        *os.File
	w        *bufio.Writer
	archive  *Archive
	count    uint64
	last     uint64
	closed   bool
}

// Count returns the number of events written so far
func (ew *EventWriter) Count() uint64 {
	return ew.count
}

func (ew *EventWriter) write(e *Event) error {
	if ew.closed {
		return errors.Newf(errors.ErrArchiveIO, "event writer of location %d is closed", ew.Location)
	}
	_, err := ew.w.WriteString(e.String() + "\n")
	if err != nil {
		return ew.archive.ioError(fmt.Errorf("unable to write event to %s: %w", ew.path, err))
	}
	ew.count++
	if e.Time > ew.last {
		ew.last = e.Time
	}
	return nil
}

// Enter records the beginning of a region
func (ew *EventWriter) Enter(t uint64, region uint32) error {
	return ew.write(&Event{Kind: Enter, Time: t, Region: region})
}

// Leave records the end of a region
func (ew *EventWriter) Leave(t uint64, region uint32) error {
	return ew.write(&Event{Kind: Leave, Time: t, Region: region})
}

func (ew *EventWriter) MpiSend(t uint64, receiver int, comm int64, tag int, bytes int64) error {
	return ew.write(&Event{Kind: MpiSend, Time: t, Peer: receiver, Comm: comm, Tag: tag, Bytes: bytes})
}

func (ew *EventWriter) MpiRecv(t uint64, sender int, comm int64, tag int, bytes int64) error {
	return ew.write(&Event{Kind: MpiRecv, Time: t, Peer: sender, Comm: comm, Tag: tag, Bytes: bytes})
}

func (ew *EventWriter) MpiIsend(t uint64, receiver int, comm int64, tag int, bytes int64, request int64) error {
	return ew.write(&Event{Kind: MpiIsend, Time: t, Peer: receiver, Comm: comm, Tag: tag, Bytes: bytes, Request: request})
}

func (ew *EventWriter) MpiIsendComplete(t uint64, request int64) error {
	return ew.write(&Event{Kind: MpiIsendComplete, Time: t, Request: request})
}

func (ew *EventWriter) MpiIrecvRequest(t uint64, request int64) error {
	return ew.write(&Event{Kind: MpiIrecvRequest, Time: t, Request: request})
}

func (ew *EventWriter) MpiIrecv(t uint64, sender int, comm int64, tag int, bytes int64, request int64) error {
	return ew.write(&Event{Kind: MpiIrecv, Time: t, Peer: sender, Comm: comm, Tag: tag, Bytes: bytes, Request: request})
}

func (ew *EventWriter) MpiCollectiveBegin(t uint64) error {
	return ew.write(&Event{Kind: MpiCollectiveBegin, Time: t})
}

// MpiCollectiveEnd records the end of a collective operation on a
// communicator along with the volume attributed to the location
func (ew *EventWriter) MpiCollectiveEnd(t uint64, collective string, comm int64, root int, sent int64, received int64) error {
	return ew.write(&Event{Kind: MpiCollectiveEnd, Time: t, Collective: collective, Comm: comm, Root: root, Sent: sent, Received: received})
}

// Close flushes and closes the event file
func (ew *EventWriter) Close() error {
	if ew.closed {
		return nil
	}
	ew.closed = true
	err := ew.w.Flush()
	if err != nil {
		ew.f.Close()
		return ew.archive.ioError(fmt.Errorf("unable to flush %s: %w", ew.path, err))
	}
	err = ew.f.Close()
	if err != nil {
		return ew.archive.ioError(fmt.Errorf("unable to close %s: %w", ew.path, err))
	}
	ew.archive.closeWriter(ew)
	return nil
}

// ReadEvents reads all the events of an event file
func ReadEvents(path string) ([]*Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var events []*Event
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		e, err := ParseEvent(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNum, err)
		}
		events = append(events, e)
	}
	return events, scanner.Err()
}
