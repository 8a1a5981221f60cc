package realtime

import (
	"bufio"
	"io"
	"strings"
)

// Event is one server-sent event as seen by a client.
type Event struct {
	ID   string
	Type string
	Data string
}

// Scanner reads server-sent events from a stream. Comment lines and unknown
// fields are skipped; multiple data lines are joined with newlines.
//
//	scanner := NewScanner(resp.Body)
//	for scanner.Next() {
//		ev := scanner.Event()
//	}
//	err := scanner.Err()
type Scanner struct {
	reader  *bufio.Reader
	current Event
	err     error
}

func NewScanner(r io.Reader) *Scanner {
	return &Scanner{reader: bufio.NewReaderSize(r, 64*1024)}
}

func (s *Scanner) Next() bool {
	if s.err != nil {
		return false
	}
	s.current = Event{}
	var (
		data    []string
		hasData bool
		ev      Event
	)
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF && hasData {
				ev.Data = strings.Join(data, "\n")
				s.current = ev
				s.err = io.EOF
				return true
			}
			s.err = err
			return false
		}
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if hasData {
				ev.Data = strings.Join(data, "\n")
				s.current = ev
				return true
			}
			ev = Event{}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, found := strings.Cut(line, ":")
		if found {
			value = strings.TrimPrefix(value, " ")
		}
		switch field {
		case "data":
			data = append(data, value)
			hasData = true
		case "event":
			ev.Type = value
		case "id":
			ev.ID = value
		}
		if err != nil {
			// Final line without newline.
			if hasData {
				ev.Data = strings.Join(data, "\n")
				s.current = ev
				s.err = err
				return true
			}
			s.err = err
			return false
		}
	}
}

func (s *Scanner) Event() Event { return s.current }

// Err returns nil when the stream ended cleanly.
func (s *Scanner) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}
