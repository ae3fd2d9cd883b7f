// Package message parses host command payloads into named fields.
package message

import (
	"bytes"
	"fmt"
	"slices"
)

// Message defines the interface for host messages.
type Message interface {
	Get(field string) []byte
	Set(field string, val []byte)
	CommandCode() string
	Trace() string
}

// BaseMessage implements Message and holds command fields.
type BaseMessage struct {
	cmdCode     string
	description string
	order       []string
	Fields      map[string][]byte
}

// NewBaseMessage creates a new BaseMessage with the given code and description.
func NewBaseMessage(cmdCode, description string) *BaseMessage {
	return &BaseMessage{cmdCode: cmdCode, description: description, Fields: make(map[string][]byte)}
}

func (m *BaseMessage) Get(field string) []byte {
	return m.Fields[field]
}

func (m *BaseMessage) Set(field string, val []byte) {
	if _, ok := m.Fields[field]; !ok {
		m.order = append(m.order, field)
	}
	m.Fields[field] = val
}

func (m *BaseMessage) CommandCode() string {
	return m.cmdCode
}

func (m *BaseMessage) Description() string {
	return m.description
}

// Trace lists the parsed fields in wire order. Key fields are shown by length only.
func (m *BaseMessage) Trace() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Command: %s - %s\n", m.cmdCode, m.description)
	for _, k := range m.order {
		v := m.Fields[k]
		if slices.Contains(secretFields, k) {
			fmt.Fprintf(&buf, "\t[%s]=<%d bytes>\n", k, len(v))

			continue
		}
		fmt.Fprintf(&buf, "\t[%s]=%s\n", k, v)
	}

	return buf.String()
}
